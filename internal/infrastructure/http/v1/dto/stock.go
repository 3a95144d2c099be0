package dto

import (
	"time"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/domain/registers/stock"
)

// The stock summary and RML lots already marshal as the API shape, so
// they pass through. Movements carry raw register identifiers and get
// an explicit response type.

// StockMovementResponse represents one register movement.
type StockMovementResponse struct {
	LineID          string    `json:"lineId"`
	RecorderID      string    `json:"recorderId"`
	RecorderType    string    `json:"recorderType"`
	RecorderVersion int       `json:"recorderVersion"`
	Period          time.Time `json:"period"`
	RecordType      string    `json:"recordType"`
	Material        string    `json:"material"`
	SKU             string    `json:"sku,omitempty"`
	QuantityKg      string    `json:"quantityKg"`
	Pieces          int64     `json:"pieces,omitempty"`
	SBPercent       string    `json:"sbPercent,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FromStockMovement converts an entity to the response shape.
func FromStockMovement(m entity.StockMovement) StockMovementResponse {
	resp := StockMovementResponse{
		LineID:          m.LineID.String(),
		RecorderID:      m.RecorderID.String(),
		RecorderType:    string(m.RecorderType),
		RecorderVersion: m.RecorderVersion,
		Period:          m.Period,
		RecordType:      string(m.RecordType),
		Material:        string(m.Material),
		SKU:             m.SKU,
		QuantityKg:      m.Quantity.String(),
		Pieces:          m.Pieces,
		CreatedAt:       m.CreatedAt,
	}
	if !m.SBPercent.IsZero() {
		resp.SBPercent = m.SBPercent.String()
	}
	return resp
}

// StockMovementListResponse wraps a movement history page.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
}

// FromStockMovements converts a slice of movements.
func FromStockMovements(movements []entity.StockMovement) StockMovementListResponse {
	items := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		items = append(items, FromStockMovement(m))
	}
	return StockMovementListResponse{Items: items}
}

// SKUListResponse lists the RML lots with stock on hand.
type SKUListResponse struct {
	Items []stock.RMLLot `json:"items"`
}

// MovementQuery holds the query parameters for movement history.
type MovementQuery struct {
	Material   string     `form:"material"`
	SKU        string     `form:"sku"`
	RecordType string     `form:"recordType" binding:"omitempty,oneof=receipt expense"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int        `form:"limit,default=100" binding:"omitempty,min=1,max=1000"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a register movement filter.
func (q MovementQuery) ToFilter() stock.MovementFilter {
	filter := stock.MovementFilter{
		FromDate: q.From,
		ToDate:   q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Material != "" {
		m := entity.Material(q.Material)
		filter.Material = &m
	}
	if q.SKU != "" {
		filter.SKU = &q.SKU
	}
	if q.RecordType != "" {
		rt := entity.RecordType(q.RecordType)
		filter.RecordType = &rt
	}
	return filter
}
