package entries

import (
	"context"
	"fmt"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/domain/yield"
)

// RecyclingBatch is one battery lot sent for recycling. ReceivableKg is
// computed once from the settings in effect at append time and stored;
// later settings edits never touch it.
type RecyclingBatch struct {
	BatchID id.ID `db:"batch_id" json:"batchId"`
	BatchNo int   `db:"batch_no" json:"batchNo"`

	BatteryType yield.BatteryType `db:"battery_type" json:"batteryType"`
	BatteryKg   types.Kg          `db:"battery_kg" json:"batteryKg"`

	ReceivableKg types.Kg `db:"receivable_kg" json:"receivableKg"`

	// RecoveryPercent records the rate applied, for display.
	RecoveryPercent types.Percent `db:"recovery_percent" json:"recoveryPercent"`
}

// RecyclingEntry records battery lots handed to the recycler.
type RecyclingEntry struct {
	entity.Entry

	Batches []RecyclingBatch `db:"-" json:"batches"`
}

// NewRecyclingEntry creates an empty recycling entry.
func NewRecyclingEntry(userID, userName string) *RecyclingEntry {
	return &RecyclingEntry{
		Entry:   entity.NewEntry(entity.EntryTypeRecycling, userID, userName),
		Batches: make([]RecyclingBatch, 0),
	}
}

// AddBatch appends a battery lot, freezing its receivable yield from
// the given settings snapshot. The caller captures the snapshot once
// per entry so every batch in it uses the same rates.
func (r *RecyclingEntry) AddBatch(snapshot settings.RecoverySettings, batteryType yield.BatteryType, batteryKg types.Kg) error {
	receivable, err := yield.RecyclingReceivable(snapshot, batteryType, batteryKg)
	if err != nil {
		return err
	}
	rate, err := yield.RecoveryFor(snapshot, batteryType)
	if err != nil {
		return err
	}

	r.Batches = append(r.Batches, RecyclingBatch{
		BatchID:         id.New(),
		BatchNo:         len(r.Batches) + 1,
		BatteryType:     batteryType,
		BatteryKg:       batteryKg,
		ReceivableKg:    receivable,
		RecoveryPercent: rate,
	})
	return nil
}

// Validate implements entity.Validatable.
func (r *RecyclingEntry) Validate(ctx context.Context) error {
	if err := r.Entry.Validate(ctx); err != nil {
		return err
	}

	if len(r.Batches) == 0 {
		return apperror.NewValidation("at least one batch is required").
			WithDetail("field", "batches")
	}

	for i, b := range r.Batches {
		if !yield.KnownBatteryType(b.BatteryType) {
			return apperror.NewValidation("unknown battery type").
				WithDetail("field", "batteryType").
				WithDetail("batchNo", i+1)
		}
		if !b.BatteryKg.IsPositive() {
			return apperror.NewValidation("battery weight must be positive").
				WithDetail("field", "batteryKg").
				WithDetail("batchNo", i+1)
		}
		if b.ReceivableKg.IsNegative() {
			return apperror.NewValidation("receivable must not be negative").
				WithDetail("field", "receivableKg").
				WithDetail("batchNo", i+1)
		}
	}

	return nil
}

// GenerateMovements adds each batch's stored receivable to the
// receivable bucket.
func (r *RecyclingEntry) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := r.PostedVersion + 1

	for _, b := range r.Batches {
		if !b.ReceivableKg.IsPositive() {
			continue
		}
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.MovementBase{
				LineID:          id.New(),
				RecorderID:      r.ID,
				RecorderType:    r.EntryType,
				RecorderVersion: newVersion,
				Period:          r.Timestamp,
				RecordType:      entity.RecordTypeReceipt,
			},
			Material: entity.MaterialReceivable,
			Quantity: b.ReceivableKg,
		})
	}

	if movements.IsEmpty() {
		return nil, fmt.Errorf("recycling entry %s produced no movements", r.ID)
	}

	return movements, nil
}

var _ posting.Postable = (*RecyclingEntry)(nil)
