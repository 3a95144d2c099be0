package entries

import (
	"context"
	"fmt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/sku"
)

// RMLBatch is one remelted-lead lot, used by both purchase and
// received entries. SKU is resolved once at append time for purchases
// and stays empty for received lots, which land in the plain remelted
// bucket instead.
type RMLBatch struct {
	BatchID id.ID `db:"batch_id" json:"batchId"`
	BatchNo int   `db:"batch_no" json:"batchNo"`

	QuantityKg   types.Kg      `db:"quantity_kg" json:"quantityKg"`
	Pieces       int64         `db:"pieces" json:"pieces"`
	SBPercentage types.Percent `db:"sb_percentage" json:"sbPercentage"`
	Remarks      string        `db:"remarks" json:"remarks,omitempty"`

	SKU string `db:"sku" json:"sku,omitempty"`
}

// RMLPurchaseEntry records remelted lead bought from outside suppliers.
// Each batch lands in the lot bucket named by its resolved SKU.
type RMLPurchaseEntry struct {
	entity.Entry

	Batches []RMLBatch `db:"-" json:"batches"`
}

// NewRMLPurchaseEntry creates an empty purchase entry.
func NewRMLPurchaseEntry(userID, userName string) *RMLPurchaseEntry {
	return &RMLPurchaseEntry{
		Entry:   entity.NewEntry(entity.EntryTypeRMLPurchase, userID, userName),
		Batches: make([]RMLBatch, 0),
	}
}

// AddBatch appends a purchased lot, resolving its SKU from the entry's
// event date. Identical (remarks, grade, date) top up the same lot.
func (p *RMLPurchaseEntry) AddBatch(b RMLBatch) {
	b.BatchID = id.New()
	b.BatchNo = len(p.Batches) + 1
	b.SKU = sku.Resolve(b.Remarks, b.SBPercentage, p.Timestamp)
	p.Batches = append(p.Batches, b)
}

// Validate implements entity.Validatable.
func (p *RMLPurchaseEntry) Validate(ctx context.Context) error {
	if err := p.Entry.Validate(ctx); err != nil {
		return err
	}
	if err := validateRMLBatches(p.Batches); err != nil {
		return err
	}
	for i, b := range p.Batches {
		if b.SKU == "" {
			return apperror.NewValidation("sku is required").
				WithDetail("field", "sku").
				WithDetail("batchNo", i+1)
		}
	}
	return nil
}

// GenerateMovements receives each purchased lot into its SKU bucket.
func (p *RMLPurchaseEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := p.PostedVersion + 1

	for _, b := range p.Batches {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.MovementBase{
				LineID:          id.New(),
				RecorderID:      p.ID,
				RecorderType:    p.EntryType,
				RecorderVersion: newVersion,
				Period:          p.Timestamp,
				RecordType:      entity.RecordTypeReceipt,
			},
			Material:  entity.MaterialRML,
			SKU:       b.SKU,
			Quantity:  b.QuantityKg,
			Pieces:    b.Pieces,
			SBPercent: b.SBPercentage,
		})
	}

	if movements.IsEmpty() {
		return nil, fmt.Errorf("rml purchase entry %s produced no movements", p.ID)
	}

	return movements, nil
}

var _ posting.Postable = (*RMLPurchaseEntry)(nil)

// RMLReceivedEntry records remelted lead delivered back by the
// recycler. Each lot settles receivable and lands in remelted stock.
type RMLReceivedEntry struct {
	entity.Entry

	Batches []RMLBatch `db:"-" json:"batches"`
}

// NewRMLReceivedEntry creates an empty received entry.
func NewRMLReceivedEntry(userID, userName string) *RMLReceivedEntry {
	return &RMLReceivedEntry{
		Entry:   entity.NewEntry(entity.EntryTypeRMLReceived, userID, userName),
		Batches: make([]RMLBatch, 0),
	}
}

// AddBatch appends a received lot.
func (r *RMLReceivedEntry) AddBatch(b RMLBatch) {
	b.BatchID = id.New()
	b.BatchNo = len(r.Batches) + 1
	r.Batches = append(r.Batches, b)
}

// Validate implements entity.Validatable.
func (r *RMLReceivedEntry) Validate(ctx context.Context) error {
	if err := r.Entry.Validate(ctx); err != nil {
		return err
	}
	return validateRMLBatches(r.Batches)
}

// GenerateMovements draws the received weight out of the receivable
// balance and receives it into remelted stock.
func (r *RMLReceivedEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := r.PostedVersion + 1

	for _, b := range r.Batches {
		base := entity.MovementBase{
			RecorderID:      r.ID,
			RecorderType:    r.EntryType,
			RecorderVersion: newVersion,
			Period:          r.Timestamp,
		}

		expense := base
		expense.LineID = id.New()
		expense.RecordType = entity.RecordTypeExpense
		movements.AddStock(entity.StockMovement{
			MovementBase: expense,
			Material:     entity.MaterialReceivable,
			Quantity:     b.QuantityKg,
		})

		receipt := base
		receipt.LineID = id.New()
		receipt.RecordType = entity.RecordTypeReceipt
		movements.AddStock(entity.StockMovement{
			MovementBase: receipt,
			Material:     entity.MaterialRemelted,
			Quantity:     b.QuantityKg,
			Pieces:       b.Pieces,
		})
	}

	if movements.IsEmpty() {
		return nil, fmt.Errorf("rml received entry %s produced no movements", r.ID)
	}

	return movements, nil
}

var _ posting.Postable = (*RMLReceivedEntry)(nil)

func validateRMLBatches(batches []RMLBatch) error {
	if len(batches) == 0 {
		return apperror.NewValidation("at least one batch is required").
			WithDetail("field", "batches")
	}

	for i, b := range batches {
		if !b.QuantityKg.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantityKg").
				WithDetail("batchNo", i+1)
		}
		if b.Pieces < 0 {
			return apperror.NewValidation("pieces must not be negative").
				WithDetail("field", "pieces").
				WithDetail("batchNo", i+1)
		}
		if !b.SBPercentage.InRange() {
			return apperror.NewValidation("sb percentage must be between 0 and 100").
				WithDetail("field", "sbPercentage").
				WithDetail("batchNo", i+1)
		}
	}

	return nil
}
