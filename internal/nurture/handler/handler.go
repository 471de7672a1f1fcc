// Package handler exposes the nurture engine over HTTP for operational use.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"outreach_backend/internal/nurture/service"
	"outreach_backend/internal/nurture/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"
)

// Handler handles HTTP requests for nurture runs.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSiteID    = "invalid site id"
)

// New creates a new nurture handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Run triggers a nurture sequencing run for a site.
// POST /api/v1/nurture/run
func (h *Handler) Run(c *gin.Context) {
	var req transport.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(err.Error()))
		return
	}

	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidSiteID))
		return
	}

	// Operators may only trigger runs for their own tenant.
	if tokenSite, ok := httpkit.GetSiteID(c); ok && tokenSite != siteID {
		httpkit.HandleError(c, apperr.Forbidden("forbidden"))
		return
	}

	result := h.svc.Run(c.Request.Context(), siteID, req)
	httpkit.OK(c, result)
}
