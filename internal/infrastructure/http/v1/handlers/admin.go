package handlers

import (
	"github.com/gin-gonic/gin"

	"leadtrack/internal/domain/entries"
)

// AdminHandler serves the destructive maintenance endpoints.
type AdminHandler struct {
	*BaseHandler
	ledger *entries.Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *BaseHandler, ledger *entries.Service) *AdminHandler {
	return &AdminHandler{BaseHandler: base, ledger: ledger}
}

// ClearAll handles POST /admin/clear-all. It wipes the ledger and the
// stock register. Accounts, settings and the audit trail survive.
func (h *AdminHandler) ClearAll(c *gin.Context) {
	if err := h.ledger.ClearAll(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "all operational data cleared")
}
