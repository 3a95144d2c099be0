package entries

import (
	"context"
	"fmt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/posting"
)

// Fixed sale categories. Anything else in SKUType names an RML lot.
const (
	SaleSKUPureLead = "pure_lead"
	SaleSKUHighLead = "high_lead"
	SaleSKURemelted = "remelted"
)

// SaleEntry is a single flat dispatch record, the one entry type that
// carries no batch list.
type SaleEntry struct {
	entity.Entry

	PartyName string `db:"party_name" json:"partyName"`

	// SKUType is a fixed category or an RML lot key.
	SKUType string `db:"sku_type" json:"skuType"`

	QuantityKg types.Kg `db:"quantity_kg" json:"quantityKg"`
	Pieces     int64    `db:"pieces" json:"pieces"`
}

// NewSaleEntry creates a sale record. An empty skuType sells pure lead.
func NewSaleEntry(userID, userName string) *SaleEntry {
	return &SaleEntry{
		Entry:   entity.NewEntry(entity.EntryTypeSale, userID, userName),
		SKUType: SaleSKUPureLead,
	}
}

// Bucket maps the sale's SKU type onto the register bucket it draws from.
func (s *SaleEntry) Bucket() entity.BucketKey {
	switch s.SKUType {
	case "", SaleSKUPureLead:
		return entity.BucketKey{Material: entity.MaterialPureLead}
	case SaleSKUHighLead:
		return entity.BucketKey{Material: entity.MaterialHighLead}
	case SaleSKURemelted:
		return entity.BucketKey{Material: entity.MaterialRemelted}
	default:
		return entity.BucketKey{Material: entity.MaterialRML, SKU: s.SKUType}
	}
}

// Validate implements entity.Validatable.
func (s *SaleEntry) Validate(ctx context.Context) error {
	if err := s.Entry.Validate(ctx); err != nil {
		return err
	}

	if s.PartyName == "" {
		return apperror.NewValidation("party name is required").
			WithDetail("field", "partyName")
	}
	if !s.QuantityKg.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantityKg")
	}
	if s.Pieces < 0 {
		return apperror.NewValidation("pieces must not be negative").
			WithDetail("field", "pieces")
	}

	return nil
}

// GenerateMovements draws the sold weight out of the named bucket.
func (s *SaleEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	bucket := s.Bucket()
	if bucket.Material == "" {
		return nil, fmt.Errorf("sale entry %s has no bucket", s.ID)
	}

	movements := posting.NewMovementSet()
	movements.AddStock(entity.StockMovement{
		MovementBase: entity.MovementBase{
			LineID:          id.New(),
			RecorderID:      s.ID,
			RecorderType:    s.EntryType,
			RecorderVersion: s.PostedVersion + 1,
			Period:          s.Timestamp,
			RecordType:      entity.RecordTypeExpense,
		},
		Material: bucket.Material,
		SKU:      bucket.SKU,
		Quantity: s.QuantityKg,
		Pieces:   s.Pieces,
	})

	return movements, nil
}

var _ posting.Postable = (*SaleEntry)(nil)
