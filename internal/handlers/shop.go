package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// GetShop handles GET /api/v1/shop
func (h *Handlers) GetShop(c *gin.Context) {
	shop, err := h.Shops.Get(c.Request.Context(), shopID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UpdateShop handles PUT /api/v1/shop
func (h *Handlers) UpdateShop(c *gin.Context) {
	var req models.UpdateShopRequest
	if !h.bind(c, &req) {
		return
	}
	shop, err := h.Shops.Update(c.Request.Context(), shopID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}
