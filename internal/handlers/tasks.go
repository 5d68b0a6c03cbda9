package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

const keepAliveInterval = 25 * time.Second

// ListTasks handles GET /api/v1/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	var filter models.TaskFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tasks, err := h.Tasks.List(c.Request.Context(), shopID(c), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask handles POST /api/v1/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	var in models.TaskInput
	if !h.bind(c, &in) {
		return
	}
	task, err := h.Tasks.Create(c.Request.Context(), shopID(c), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	task, err := h.Tasks.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /api/v1/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	var in models.TaskInput
	if !h.bind(c, &in) {
		return
	}
	task, err := h.Tasks.Update(c.Request.Context(), shopID(c), c.Param("id"), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/v1/tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamTasks handles GET /api/v1/tasks/stream. Each task change of the
// shop is sent as a "change" Server-Sent Event; clients refetch what they
// need.
func (h *Handlers) StreamTasks(c *gin.Context) {
	h.stream(c, events.TableTasks)
}

func (h *Handlers) stream(c *gin.Context, tables ...string) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime updates are disabled"})
		return
	}

	sub := h.hub.Subscribe(shopID(c), tables...)
	defer sub.Close()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		case <-ctx.Done():
			return false
		}
	})

	h.logger.WithFields(logging.Fields{
		"shop_id": shopID(c),
		"dropped": sub.Dropped(),
	}).Debug("Stream closed")
}
