package handlers

import (
	"github.com/gin-gonic/gin"

	"leadtrack/internal/domain/settings"
	"leadtrack/internal/infrastructure/http/v1/dto"
)

// SettingsHandler serves the recovery settings endpoints.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	current, err := h.service.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSettings(current))
}

// Update handles PUT /settings (admin only).
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSettings(updated))
}
