package entries

import (
	"context"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/posting"
)

// DrossBatch is one dross lot sent for reprocessing. The recovered
// high-lead weight usually arrives days later and is filled in through
// RecordRecovery, which reposts the entry.
type DrossBatch struct {
	BatchID id.ID `db:"batch_id" json:"batchId"`
	BatchNo int   `db:"batch_no" json:"batchNo"`

	DrossType      string   `db:"dross_type" json:"drossType"`
	QuantitySentKg types.Kg `db:"quantity_sent_kg" json:"quantitySentKg"`

	HighLeadRecoveredKg types.Kg `db:"high_lead_recovered_kg" json:"highLeadRecoveredKg"`

	// RecoveryPercent is frozen when the recovered weight is recorded.
	RecoveryPercent types.Percent `db:"recovery_percent" json:"recoveryPercent"`
}

// DrossEntry records dross lots sent out for high-lead recovery.
type DrossEntry struct {
	entity.Entry

	Batches []DrossBatch `db:"-" json:"batches"`
}

// NewDrossEntry creates an empty dross entry.
func NewDrossEntry(userID, userName string) *DrossEntry {
	return &DrossEntry{
		Entry:   entity.NewEntry(entity.EntryTypeDross, userID, userName),
		Batches: make([]DrossBatch, 0),
	}
}

// AddBatch appends a dross lot.
func (d *DrossEntry) AddBatch(b DrossBatch) {
	b.BatchID = id.New()
	b.BatchNo = len(d.Batches) + 1
	b.RecoveryPercent = types.RatioPercent(b.HighLeadRecoveredKg, b.QuantitySentKg)
	d.Batches = append(d.Batches, b)
}

// RecordRecovery fills in the recovered weight for one batch.
// The caller must repost the entry so the register picks up the change.
func (d *DrossEntry) RecordRecovery(batchID id.ID, recoveredKg types.Kg) error {
	if recoveredKg.IsNegative() {
		return apperror.NewValidation("recovered weight must not be negative").
			WithDetail("field", "highLeadRecoveredKg")
	}
	for i := range d.Batches {
		if d.Batches[i].BatchID == batchID {
			d.Batches[i].HighLeadRecoveredKg = recoveredKg
			d.Batches[i].RecoveryPercent = types.RatioPercent(recoveredKg, d.Batches[i].QuantitySentKg)
			d.Touch()
			return nil
		}
	}
	return apperror.NewNotFound("dross batch", batchID)
}

// Validate implements entity.Validatable.
func (d *DrossEntry) Validate(ctx context.Context) error {
	if err := d.Entry.Validate(ctx); err != nil {
		return err
	}

	if len(d.Batches) == 0 {
		return apperror.NewValidation("at least one batch is required").
			WithDetail("field", "batches")
	}

	for i, b := range d.Batches {
		if b.DrossType == "" {
			return apperror.NewValidation("dross type is required").
				WithDetail("field", "drossType").
				WithDetail("batchNo", i+1)
		}
		if !b.QuantitySentKg.IsPositive() {
			return apperror.NewValidation("quantity sent must be positive").
				WithDetail("field", "quantitySentKg").
				WithDetail("batchNo", i+1)
		}
		if b.HighLeadRecoveredKg.IsNegative() {
			return apperror.NewValidation("recovered weight must not be negative").
				WithDetail("field", "highLeadRecoveredKg").
				WithDetail("batchNo", i+1)
		}
	}

	return nil
}

// HasRecovery reports whether any batch has a recovered weight yet.
func (d *DrossEntry) HasRecovery() bool {
	for _, b := range d.Batches {
		if b.HighLeadRecoveredKg.IsPositive() {
			return true
		}
	}
	return false
}

// GenerateMovements adds recovered high lead to stock. The sent
// quantity is a tracking figure only and moves no bucket.
func (d *DrossEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := d.PostedVersion + 1

	for _, b := range d.Batches {
		if !b.HighLeadRecoveredKg.IsPositive() {
			continue
		}
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.MovementBase{
				LineID:          id.New(),
				RecorderID:      d.ID,
				RecorderType:    d.EntryType,
				RecorderVersion: newVersion,
				Period:          d.Timestamp,
				RecordType:      entity.RecordTypeReceipt,
			},
			Material: entity.MaterialHighLead,
			Quantity: b.HighLeadRecoveredKg,
		})
	}

	// An entry awaiting recovery legitimately has no movements yet.
	return movements, nil
}

var _ posting.Postable = (*DrossEntry)(nil)
