// Package entries holds the ledger entry types and the ledger service.
// Entries are append-only: once written they are never edited, only
// hard-deleted through the guarded admin path.
package entries

import (
	"context"
	"fmt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/yield"
)

// InputSourceKind discriminates where a refining batch draws its ingots.
type InputSourceKind string

const (
	// InputManual is plant-owned material with no tracked origin bucket.
	InputManual InputSourceKind = "manual"
	// InputSantosh draws down the recycling receivable balance.
	InputSantosh InputSourceKind = "santosh"
	// InputSKU consumes a purchased remelted-lead lot.
	InputSKU InputSourceKind = "sku"
)

// InputSource is the origin of a refining batch's input material.
// SKU is set only when Kind is InputSKU.
type InputSource struct {
	Kind InputSourceKind `db:"-" json:"kind"`
	SKU  string          `db:"-" json:"sku,omitempty"`
}

// ParseInputSource maps the form's free-text source field onto the
// tagged representation. Anything that is not one of the two fixed
// labels is taken as an RML lot key.
func ParseInputSource(s string) InputSource {
	switch s {
	case "", "manual":
		return InputSource{Kind: InputManual}
	case "SANTOSH":
		return InputSource{Kind: InputSantosh}
	default:
		return InputSource{Kind: InputSKU, SKU: s}
	}
}

// Label renders the source back into its stored string form.
func (s InputSource) Label() string {
	switch s.Kind {
	case InputSantosh:
		return "SANTOSH"
	case InputSKU:
		return s.SKU
	default:
		return "manual"
	}
}

// RefiningBatch is one ingot-to-pure-lead run within a refining entry.
// Dross sub-measurements are independent weighings and are not forced
// to reconcile with the ingot mass.
type RefiningBatch struct {
	BatchID id.ID `db:"batch_id" json:"batchId"`
	BatchNo int   `db:"batch_no" json:"batchNo"`

	InputSource InputSource `db:"-" json:"inputSource"`

	// SBPercentage is required when the input comes from SANTOSH.
	SBPercentage *types.Percent `db:"sb_percentage" json:"sbPercentage,omitempty"`

	LeadIngotKg     types.Kg `db:"lead_ingot_kg" json:"leadIngotKg"`
	LeadIngotPieces int64    `db:"lead_ingot_pieces" json:"leadIngotPieces"`

	InitialDrossKg types.Kg `db:"initial_dross_kg" json:"initialDrossKg"`
	SecondDrossKg  types.Kg `db:"second_dross_kg" json:"secondDrossKg"`
	ThirdDrossKg   types.Kg `db:"third_dross_kg" json:"thirdDrossKg"`
	CuDrossKg      types.Kg `db:"cu_dross_kg" json:"cuDrossKg"`
	SnDrossKg      types.Kg `db:"sn_dross_kg" json:"snDrossKg"`
	SbDrossKg      types.Kg `db:"sb_dross_kg" json:"sbDrossKg"`

	PureLeadKg     types.Kg `db:"pure_lead_kg" json:"pureLeadKg"`
	PureLeadPieces int64    `db:"pure_lead_pieces" json:"pureLeadPieces"`

	// RecoveryPercent is frozen at append time from the weights above.
	RecoveryPercent types.Percent `db:"recovery_percent" json:"recoveryPercent"`
}

// RefiningEntry records one or more refining runs.
type RefiningEntry struct {
	entity.Entry

	Batches []RefiningBatch `db:"-" json:"batches"`
}

// NewRefiningEntry creates an empty refining entry.
func NewRefiningEntry(userID, userName string) *RefiningEntry {
	return &RefiningEntry{
		Entry:   entity.NewEntry(entity.EntryTypeRefining, userID, userName),
		Batches: make([]RefiningBatch, 0),
	}
}

// AddBatch appends a batch and freezes its recovery percentage.
func (r *RefiningEntry) AddBatch(b RefiningBatch) {
	b.BatchID = id.New()
	b.BatchNo = len(r.Batches) + 1
	b.RecoveryPercent = types.RatioPercent(b.PureLeadKg, b.LeadIngotKg)
	r.Batches = append(r.Batches, b)
}

// Validate implements entity.Validatable.
func (r *RefiningEntry) Validate(ctx context.Context) error {
	if err := r.Entry.Validate(ctx); err != nil {
		return err
	}

	if len(r.Batches) == 0 {
		return apperror.NewValidation("at least one batch is required").
			WithDetail("field", "batches")
	}

	for i, b := range r.Batches {
		if b.LeadIngotKg.IsNegative() || b.PureLeadKg.IsNegative() {
			return apperror.NewValidation("weights must not be negative").
				WithDetail("field", "batches").
				WithDetail("batchNo", i+1)
		}
		switch b.InputSource.Kind {
		case InputManual:
		case InputSantosh:
			if b.SBPercentage == nil {
				return apperror.NewValidation("sb percentage is required for SANTOSH input").
					WithDetail("field", "sbPercentage").
					WithDetail("batchNo", i+1)
			}
			if !b.SBPercentage.InRange() {
				return apperror.NewValidation("sb percentage must be between 0 and 100").
					WithDetail("field", "sbPercentage").
					WithDetail("batchNo", i+1)
			}
		case InputSKU:
			if b.InputSource.SKU == "" {
				return apperror.NewValidation("sku is required for lot input").
					WithDetail("field", "inputSource").
					WithDetail("batchNo", i+1)
			}
		default:
			return apperror.NewValidation("unknown input source").
				WithDetail("field", "inputSource").
				WithDetail("batchNo", i+1)
		}
	}

	return nil
}

// GenerateMovements creates register movements for this entry:
// a pure-lead receipt per batch, a draw on the batch's source bucket
// when the input is tracked, and an informational antimony receipt
// when the input carries an sb grade.
func (r *RefiningEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := r.PostedVersion + 1

	for _, b := range r.Batches {
		if b.PureLeadKg.IsPositive() {
			movements.AddStock(r.movement(newVersion, entity.RecordTypeReceipt,
				entity.MaterialPureLead, "", b.PureLeadKg, b.PureLeadPieces, 0))
		}

		if b.SBPercentage != nil && b.LeadIngotKg.IsPositive() {
			if sbKg := yield.AntimonyRecoverable(b.LeadIngotKg, *b.SBPercentage); sbKg.IsPositive() {
				movements.AddStock(r.movement(newVersion, entity.RecordTypeReceipt,
					entity.MaterialAntimony, "", sbKg, 0, *b.SBPercentage))
			}
		}

		switch b.InputSource.Kind {
		case InputSantosh:
			if b.LeadIngotKg.IsPositive() {
				movements.AddStock(r.movement(newVersion, entity.RecordTypeExpense,
					entity.MaterialReceivable, "", b.LeadIngotKg, 0, 0))
			}
		case InputSKU:
			if b.LeadIngotKg.IsPositive() {
				var sb types.Percent
				if b.SBPercentage != nil {
					sb = *b.SBPercentage
				}
				movements.AddStock(r.movement(newVersion, entity.RecordTypeExpense,
					entity.MaterialRML, b.InputSource.SKU, b.LeadIngotKg, b.LeadIngotPieces, sb))
			}
		}
	}

	if movements.IsEmpty() {
		return nil, fmt.Errorf("refining entry %s produced no movements", r.ID)
	}

	return movements, nil
}

func (r *RefiningEntry) movement(version int, rt entity.RecordType, mat entity.Material, sku string, kg types.Kg, pieces int64, sb types.Percent) entity.StockMovement {
	return entity.StockMovement{
		MovementBase: entity.MovementBase{
			LineID:          id.New(),
			RecorderID:      r.ID,
			RecorderType:    r.EntryType,
			RecorderVersion: version,
			Period:          r.Timestamp,
			RecordType:      rt,
		},
		Material:  mat,
		SKU:       sku,
		Quantity:  kg,
		Pieces:    pieces,
		SBPercent: sb,
	}
}

var _ posting.Postable = (*RefiningEntry)(nil)
