package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"
	ShopIDHeader    = "X-Shop-ID"

	requestIDKey = "request_id"
	shopIDKey    = "shop_id"
)

// RequestID tags every request with an id, reusing the caller's when sent.
// Change events published while serving the request carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(events.WithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger() gin.HandlerFunc {
	logger := logging.New("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(requestIDKey),
		}
		if shopID := c.GetString(shopIDKey); shopID != "" {
			fields["shop_id"] = shopID
		}
		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// ShopScope requires the X-Shop-ID header. Authentication happens upstream;
// the header names the tenant every query is scoped to.
func ShopScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID := c.GetHeader(ShopIDHeader)
		if shopID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "missing shop id",
				"details": gin.H{"shop_id": ShopIDHeader + " header is required"},
			})
			return
		}
		if _, err := uuid.Parse(shopID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid shop id",
				"details": gin.H{"shop_id": ShopIDHeader + " must be a UUID"},
			})
			return
		}
		c.Set(shopIDKey, shopID)
		c.Next()
	}
}

func shopID(c *gin.Context) string {
	return c.GetString(shopIDKey)
}

// UUIDParams answers 404 for any path id that is not a UUID, since no
// record could have it.
func UUIDParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			if _, err := uuid.Parse(p.Value); err != nil {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
		}
		c.Next()
	}
}
