package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/service"
)

// Check is a readiness probe of one dependency.
type Check func(ctx context.Context) error

// Services bundles the business services the handlers call.
type Services struct {
	Shops     *service.ShopService
	Customers *service.CustomerService
	Vehicles  *service.VehicleService
	Inventory *service.InventoryService
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Drafts    *service.DraftService
	Tasks     *service.TaskService
}

// Handlers holds all HTTP handlers for the tire shop service.
type Handlers struct {
	Services
	hub    *events.Hub
	checks map[string]Check
	logger *logrus.Entry
}

// NewHandlers creates the handlers. hub may be nil when realtime updates
// are disabled.
func NewHandlers(svc Services, hub *events.Hub, checks map[string]Check) *Handlers {
	return &Handlers{
		Services: svc,
		hub:      hub,
		checks:   checks,
		logger:   logging.New("handlers"),
	}
}

// bind decodes the JSON body into v, answering 400 on failure.
func (h *Handlers) bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.logger.WithFields(logging.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Warn("Failed to bind request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// bindQuery decodes query parameters into v, answering 400 on failure.
func (h *Handlers) bindQuery(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return false
	}
	return true
}

func handleError(c *gin.Context, err error) {
	var booked *apperrors.DoubleBookingError
	var invalid *apperrors.ValidationError

	switch {
	case errors.As(err, &booked):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "time slot already booked",
			"scheduled_date": booked.Date,
			"scheduled_time": booked.Time,
			"conflicts":      booked.Conflicts,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   invalid.Message,
			"details": invalid.Details,
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict with existing data"})
	default:
		logging.New("handlers").WithFields(logging.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(requestIDKey),
			"error":      err.Error(),
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func page(items interface{}, total, limit, offset int) gin.H {
	return gin.H{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
}
