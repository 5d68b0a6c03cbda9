package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// ListInventory handles GET /api/v1/inventory
func (h *Handlers) ListInventory(c *gin.Context) {
	var filter models.TireFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tires, total, err := h.Inventory.List(c.Request.Context(), shopID(c), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(tires, total, filter.Limit, filter.Offset))
}

// CreateTire handles POST /api/v1/inventory
func (h *Handlers) CreateTire(c *gin.Context) {
	var in models.TireInput
	if !h.bind(c, &in) {
		return
	}
	tire, err := h.Inventory.Create(c.Request.Context(), shopID(c), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tire)
}

// GetTire handles GET /api/v1/inventory/:id
func (h *Handlers) GetTire(c *gin.Context) {
	tire, err := h.Inventory.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tire)
}

// UpdateTire handles PUT /api/v1/inventory/:id
func (h *Handlers) UpdateTire(c *gin.Context) {
	var in models.TireInput
	if !h.bind(c, &in) {
		return
	}
	tire, err := h.Inventory.Update(c.Request.Context(), shopID(c), c.Param("id"), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tire)
}

// DeleteTire handles DELETE /api/v1/inventory/:id
func (h *Handlers) DeleteTire(c *gin.Context) {
	if err := h.Inventory.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustTire handles POST /api/v1/inventory/:id/adjust
func (h *Handlers) AdjustTire(c *gin.Context) {
	var req models.AdjustQuantityRequest
	if !h.bind(c, &req) {
		return
	}
	tire, err := h.Inventory.Adjust(c.Request.Context(), shopID(c), c.Param("id"), req.Delta)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tire)
}
