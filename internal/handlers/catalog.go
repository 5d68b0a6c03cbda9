package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// ListServices handles GET /api/v1/services
func (h *Handlers) ListServices(c *gin.Context) {
	var filter models.ServiceFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	services, err := h.Catalog.List(c.Request.Context(), shopID(c), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	if services == nil {
		services = []*models.Service{}
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// CreateService handles POST /api/v1/services
func (h *Handlers) CreateService(c *gin.Context) {
	var in models.ServiceInput
	if !h.bind(c, &in) {
		return
	}
	svc, err := h.Catalog.Create(c.Request.Context(), shopID(c), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// GetService handles GET /api/v1/services/:id
func (h *Handlers) GetService(c *gin.Context) {
	svc, err := h.Catalog.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// UpdateService handles PUT /api/v1/services/:id
func (h *Handlers) UpdateService(c *gin.Context) {
	var in models.ServiceInput
	if !h.bind(c, &in) {
		return
	}
	svc, err := h.Catalog.Update(c.Request.Context(), shopID(c), c.Param("id"), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /api/v1/services/:id
func (h *Handlers) DeleteService(c *gin.Context) {
	if err := h.Catalog.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
