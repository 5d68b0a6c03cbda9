package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/service"
)

// CreateDraft handles POST /api/v1/drafts. The body is optional.
func (h *Handlers) CreateDraft(c *gin.Context) {
	var details service.DraftDetails
	if c.Request.ContentLength != 0 && !h.bind(c, &details) {
		return
	}
	view, err := h.Drafts.Create(c.Request.Context(), shopID(c), &details)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetDraft handles GET /api/v1/drafts/:id
func (h *Handlers) GetDraft(c *gin.Context) {
	view, err := h.Drafts.Get(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateDraft handles PATCH /api/v1/drafts/:id
func (h *Handlers) UpdateDraft(c *gin.Context) {
	var details service.DraftDetails
	if !h.bind(c, &details) {
		return
	}
	view, err := h.Drafts.UpdateDetails(c.Request.Context(), shopID(c), c.Param("id"), &details)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CancelDraft handles DELETE /api/v1/drafts/:id
func (h *Handlers) CancelDraft(c *gin.Context) {
	if err := h.Drafts.Cancel(c.Request.Context(), shopID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDraftTire handles POST /api/v1/drafts/:id/tires
//
// A clamped reservation is still a 200; the response's warning field says
// how many units were left.
func (h *Handlers) AddDraftTire(c *gin.Context) {
	var req service.AddTireRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.Drafts.AddTire(c.Request.Context(), shopID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetDraftTire handles PUT /api/v1/drafts/:id/tires/:tire_id
func (h *Handlers) SetDraftTire(c *gin.Context) {
	var req service.SetQuantityRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.Drafts.SetTireQuantity(c.Request.Context(), shopID(c), c.Param("id"), c.Param("tire_id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveDraftTire handles DELETE /api/v1/drafts/:id/tires/:tire_id
func (h *Handlers) RemoveDraftTire(c *gin.Context) {
	view, err := h.Drafts.RemoveTire(c.Request.Context(), shopID(c), c.Param("id"), c.Param("tire_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddDraftService handles POST /api/v1/drafts/:id/services
func (h *Handlers) AddDraftService(c *gin.Context) {
	var req service.AddServiceRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.Drafts.AddService(c.Request.Context(), shopID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveDraftService handles DELETE /api/v1/drafts/:id/services/:service_id
func (h *Handlers) RemoveDraftService(c *gin.Context) {
	view, err := h.Drafts.RemoveService(c.Request.Context(), shopID(c), c.Param("id"), c.Param("service_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DraftTotals handles GET /api/v1/drafts/:id/totals
func (h *Handlers) DraftTotals(c *gin.Context) {
	totals, err := h.Drafts.Totals(c.Request.Context(), shopID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// SubmitDraft handles POST /api/v1/drafts/:id/submit
func (h *Handlers) SubmitDraft(c *gin.Context) {
	var req service.SubmitDraftRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	order, err := h.Drafts.Submit(c.Request.Context(), shopID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
