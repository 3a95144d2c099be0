package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadtrack/internal/domain/entries"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler serves the dashboard and journal exports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.GetDashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dashboard)
}

// ExportRefining handles GET /reports/refining.xlsx
func (h *ReportsHandler) ExportRefining(c *gin.Context) {
	h.export(c, "refining", h.service.ExportRefiningExcel)
}

// ExportRecycling handles GET /reports/recycling.xlsx
func (h *ReportsHandler) ExportRecycling(c *gin.Context) {
	h.export(c, "recycling", h.service.ExportRecyclingExcel)
}

// ExportSales handles GET /reports/sales.xlsx
func (h *ReportsHandler) ExportSales(c *gin.Context) {
	h.export(c, "sales", h.service.ExportSalesExcel)
}

func (h *ReportsHandler) export(c *gin.Context, name string, write func(context.Context, io.Writer, entries.ListFilter) error) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := write(c.Request.Context(), c.Writer, q.ToFilter()); err != nil {
		// Headers may already be on the wire, so just abort.
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
}
