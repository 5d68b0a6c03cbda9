package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var filter models.OrderFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	orders, total, err := h.Orders.List(c.Request.Context(), shopID(c), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(orders, total, filter.Limit, filter.Offset))
}

// CreateOrder handles POST /api/v1/orders
//
// A booking onto a taken slot answers 409 with the conflicting orders; the
// client may resend with allow_double_booking set.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !h.bind(c, &req) {
		return
	}

	order, err := h.Orders.Create(c.Request.Context(), shopID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.WithFields(logging.Fields{
		"shop_id":  order.ShopID,
		"order_id": order.ID,
	}).Info("Order created")
	c.JSON(http.StatusCreated, order)
}

// QuoteOrder handles POST /api/v1/orders/quote
func (h *Handlers) QuoteOrder(c *gin.Context) {
	var req models.QuoteRequest
	if !h.bind(c, &req) {
		return
	}
	quote, err := h.Orders.Quote(c.Request.Context(), shopID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CheckConflicts handles POST /api/v1/orders/conflicts
func (h *Handlers) CheckConflicts(c *gin.Context) {
	var req models.ConflictCheckRequest
	if !h.bind(c, &req) {
		return
	}
	conflicts, err := h.Orders.Conflicts(c.Request.Context(), shopID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conflict":  len(conflicts) > 0,
		"conflicts": conflicts,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.Orders.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), shopID(c), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RescheduleOrder handles PATCH /api/v1/orders/:id/schedule
func (h *Handlers) RescheduleOrder(c *gin.Context) {
	var req models.RescheduleRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.Orders.Reschedule(c.Request.Context(), shopID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.Orders.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
