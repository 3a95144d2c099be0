package entity

import (
	"time"

	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
)

// RecordType represents the direction of a stock movement.
type RecordType string

const (
	RecordTypeReceipt RecordType = "receipt"
	RecordTypeExpense RecordType = "expense"
)

// Material identifies a stock bucket kind. Together with SKU it forms the
// full bucket dimension: SKU is empty for every material except MaterialRML.
type Material string

const (
	MaterialPureLead   Material = "pure_lead"
	MaterialReceivable Material = "receivable"
	MaterialHighLead   Material = "high_lead"
	MaterialRemelted   Material = "remelted"
	MaterialRML        Material = "rml"
	MaterialAntimony   Material = "antimony"
)

// KnownMaterial reports whether m names a stock bucket.
func KnownMaterial(m Material) bool {
	switch m {
	case MaterialPureLead, MaterialReceivable, MaterialHighLead,
		MaterialRemelted, MaterialRML, MaterialAntimony:
		return true
	}
	return false
}

// MovementBase contains common fields for all register movements.
type MovementBase struct {
	// LineID is the unique identifier of this movement row.
	LineID id.ID `db:"line_id" json:"lineId"`

	// Recorder is the entry that produced the movement.
	RecorderID      id.ID     `db:"recorder_id" json:"recorderId"`
	RecorderType    EntryType `db:"recorder_type" json:"recorderType"`
	RecorderVersion int       `db:"recorder_version" json:"recorderVersion"`

	// Period is the recorder's event time, carried onto each movement.
	Period time.Time `db:"period" json:"period"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// StockMovement is a single receipt or expense against one stock bucket.
type StockMovement struct {
	MovementBase

	Material Material `db:"material" json:"material"`

	// SKU is set only for MaterialRML buckets.
	SKU string `db:"sku" json:"sku,omitempty"`

	Quantity types.Kg `db:"quantity" json:"quantity"`

	// Pieces counts ingots where the operation tracks them, zero otherwise.
	Pieces int64 `db:"pieces" json:"pieces,omitempty"`

	// SBPercent is the antimony grade of an RML lot, zero for other buckets.
	SBPercent types.Percent `db:"sb_percent" json:"sbPercent,omitempty"`
}

// SignedQuantity returns the quantity with expense negated.
func (m *StockMovement) SignedQuantity() types.Kg {
	if m.RecordType == RecordTypeExpense {
		return -m.Quantity
	}
	return m.Quantity
}

// SignedPieces returns the piece count with expense negated.
func (m *StockMovement) SignedPieces() int64 {
	if m.RecordType == RecordTypeExpense {
		return -m.Pieces
	}
	return m.Pieces
}

// BucketKey returns the (material, sku) pair as a single map key.
func (m *StockMovement) BucketKey() BucketKey {
	return BucketKey{Material: m.Material, SKU: m.SKU}
}

// BucketKey identifies one stock bucket.
type BucketKey struct {
	Material Material
	SKU      string
}

// StockBalance is the cached running balance of one stock bucket.
type StockBalance struct {
	Material Material `db:"material" json:"material"`
	SKU      string   `db:"sku" json:"sku,omitempty"`

	Quantity types.Kg `db:"quantity" json:"quantity"`
	Pieces   int64    `db:"pieces" json:"pieces"`

	// SBPercent is the grade of the RML lot this balance tracks.
	SBPercent types.Percent `db:"sb_percent" json:"sbPercent,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// BucketKey returns the (material, sku) pair as a single map key.
func (b *StockBalance) BucketKey() BucketKey {
	return BucketKey{Material: b.Material, SKU: b.SKU}
}
