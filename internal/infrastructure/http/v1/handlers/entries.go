package handlers

import (
	"github.com/gin-gonic/gin"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/id"
	"leadtrack/internal/domain/entries"
	"leadtrack/internal/infrastructure/http/v1/dto"
)

// EntriesHandler handles the append-only ledger endpoints.
type EntriesHandler struct {
	*BaseHandler
	service *entries.Service
}

// NewEntriesHandler creates a new ledger handler.
func NewEntriesHandler(base *BaseHandler, service *entries.Service) *EntriesHandler {
	return &EntriesHandler{BaseHandler: base, service: service}
}

// AppendRefining handles POST /entries/refining
func (h *EntriesHandler) AppendRefining(c *gin.Context) {
	var req dto.AppendRefiningRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntry(h.GetUserID(c), h.GetUserName(c))
	if err := h.service.AppendRefining(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// AppendRecycling handles POST /entries/recycling
func (h *EntriesHandler) AppendRecycling(c *gin.Context) {
	var req dto.AppendRecyclingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	snapshot, err := h.service.SettingsSnapshot(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	e, err := req.ToEntry(h.GetUserID(c), h.GetUserName(c), snapshot)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AppendRecycling(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// AppendDross handles POST /entries/dross
func (h *EntriesHandler) AppendDross(c *gin.Context) {
	var req dto.AppendDrossRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntry(h.GetUserID(c), h.GetUserName(c))
	if err := h.service.AppendDross(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// RecordDrossRecovery handles POST /entries/dross/:id/recovery
func (h *EntriesHandler) RecordDrossRecovery(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry id"))
		return
	}

	var req dto.RecordRecoveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batchID, err := id.Parse(req.BatchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid batch id"))
		return
	}

	if err := h.service.RecordDrossRecovery(c.Request.Context(), entryID, batchID, req.RecoveredKg); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "recovery recorded")
}

// AppendRMLPurchase handles POST /entries/rml-purchase
func (h *EntriesHandler) AppendRMLPurchase(c *gin.Context) {
	var req dto.AppendRMLPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntry(h.GetUserID(c), h.GetUserName(c))
	if err := h.service.AppendRMLPurchase(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// AppendRMLReceived handles POST /entries/rml-received
func (h *EntriesHandler) AppendRMLReceived(c *gin.Context) {
	var req dto.AppendRMLReceivedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntry(h.GetUserID(c), h.GetUserName(c))
	if err := h.service.AppendRMLReceived(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// AppendSale handles POST /entries/sales
func (h *EntriesHandler) AppendSale(c *gin.Context) {
	var req dto.AppendSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntry(h.GetUserID(c), h.GetUserName(c))
	if err := h.service.AppendSale(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// Get handles GET /entries/:id
func (h *EntriesHandler) Get(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry id"))
		return
	}

	entry, err := h.service.Get(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entry)
}

// List handles GET /entries
func (h *EntriesHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	headers, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": headers})
}

// ListRefining handles GET /entries/refining
func (h *EntriesHandler) ListRefining(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListRefining(ctx.Request.Context(), f)
	})
}

// ListRecycling handles GET /entries/recycling
func (h *EntriesHandler) ListRecycling(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListRecycling(ctx.Request.Context(), f)
	})
}

// ListDross handles GET /entries/dross
func (h *EntriesHandler) ListDross(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListDross(ctx.Request.Context(), f)
	})
}

// ListRMLPurchase handles GET /entries/rml-purchase
func (h *EntriesHandler) ListRMLPurchase(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListRMLPurchase(ctx.Request.Context(), f)
	})
}

// ListRMLReceived handles GET /entries/rml-received
func (h *EntriesHandler) ListRMLReceived(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListRMLReceived(ctx.Request.Context(), f)
	})
}

// ListSales handles GET /entries/sales
func (h *EntriesHandler) ListSales(c *gin.Context) {
	h.listTyped(c, func(ctx *gin.Context, f entries.ListFilter) (any, error) {
		return h.service.ListSale(ctx.Request.Context(), f)
	})
}

// Delete handles DELETE /entries/:id (admin only).
func (h *EntriesHandler) Delete(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), entryID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *EntriesHandler) listTyped(c *gin.Context, list func(*gin.Context, entries.ListFilter) (any, error)) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	items, err := list(c, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}
