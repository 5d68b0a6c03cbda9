package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// ListCustomers handles GET /api/v1/customers
func (h *Handlers) ListCustomers(c *gin.Context) {
	var filter models.CustomerFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	customers, total, err := h.Customers.List(c.Request.Context(), shopID(c), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page(customers, total, filter.Limit, filter.Offset))
}

// CreateCustomer handles POST /api/v1/customers
func (h *Handlers) CreateCustomer(c *gin.Context) {
	var in models.CustomerInput
	if !h.bind(c, &in) {
		return
	}
	customer, err := h.Customers.Create(c.Request.Context(), shopID(c), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *Handlers) GetCustomer(c *gin.Context) {
	customer, err := h.Customers.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *Handlers) UpdateCustomer(c *gin.Context) {
	var in models.CustomerInput
	if !h.bind(c, &in) {
		return
	}
	customer, err := h.Customers.Update(c.Request.Context(), shopID(c), c.Param("id"), &in)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	if err := h.Customers.Delete(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCustomerVehicles handles GET /api/v1/customers/:id/vehicles
func (h *Handlers) ListCustomerVehicles(c *gin.Context) {
	vehicles, err := h.Vehicles.ListByCustomer(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}
