package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// CreateVehicle handles POST /api/v1/vehicles
func (h *Handlers) CreateVehicle(c *gin.Context) {
	var in models.VehicleInput
	if !h.bind(c, &in) {
		return
	}
	vehicle, err := h.Vehicles.Create(c.Request.Context(), shopID(c), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// GetVehicle handles GET /api/v1/vehicles/:id
func (h *Handlers) GetVehicle(c *gin.Context) {
	vehicle, err := h.Vehicles.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// UpdateVehicle handles PUT /api/v1/vehicles/:id
func (h *Handlers) UpdateVehicle(c *gin.Context) {
	var in models.VehicleInput
	if !h.bind(c, &in) {
		return
	}
	vehicle, err := h.Vehicles.Update(c.Request.Context(), shopID(c), c.Param("id"), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/:id
func (h *Handlers) DeleteVehicle(c *gin.Context) {
	if err := h.Vehicles.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
