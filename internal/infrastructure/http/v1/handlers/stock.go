package handlers

import (
	"github.com/gin-gonic/gin"

	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/domain/sku"
	"leadtrack/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the stock register views.
type StockHandler struct {
	*BaseHandler
	service  *stock.Service
	registry *sku.Registry
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, registry *sku.Registry) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service, registry: registry}
}

// Summary handles GET /stock
func (h *StockHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Movements handles GET /stock/movements
func (h *StockHandler) Movements(c *gin.Context) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}

	movements, err := h.service.Movements(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockMovements(movements))
}

// SKUs handles GET /stock/skus
func (h *StockHandler) SKUs(c *gin.Context) {
	lots, err := h.registry.ListAvailable(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SKUListResponse{Items: lots})
}

// Recompute handles POST /stock/recompute (admin only).
func (h *StockHandler) Recompute(c *gin.Context) {
	if err := h.service.Recompute(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "balances rebuilt from movement history")
}
