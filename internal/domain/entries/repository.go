package entries

import (
	"context"
	"time"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/yield"
)

// ListFilter narrows ledger queries.
type ListFilter struct {
	EntryType *entity.EntryType
	UserID    *string
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// BatteryTotal is the cumulative battery weight per type, a display
// figure derived from the ledger, not from the register.
type BatteryTotal struct {
	BatteryType yield.BatteryType `db:"battery_type" json:"batteryType"`
	TotalKg     types.Kg          `db:"total_kg" json:"totalKg"`
}

// Repository persists ledger entries. Batches are stored with their
// parent and never rewritten except through a full entry update during
// repost.
type Repository interface {
	// Header operations

	// GetHeader returns the common header of any entry
	GetHeader(ctx context.Context, entryID id.ID) (entity.Entry, error)

	// UpdateHeader persists posted-state changes
	UpdateHeader(ctx context.Context, e *entity.Entry) error

	// ListHeaders returns headers newest first
	ListHeaders(ctx context.Context, filter ListFilter) ([]entity.Entry, error)

	// DeleteEntry hard-deletes an entry and its batches
	DeleteEntry(ctx context.Context, entryID id.ID) error

	// TruncateAll removes every entry of every type
	TruncateAll(ctx context.Context) error

	// Typed operations

	CreateRefining(ctx context.Context, e *RefiningEntry) error
	GetRefining(ctx context.Context, entryID id.ID) (*RefiningEntry, error)
	ListRefining(ctx context.Context, filter ListFilter) ([]RefiningEntry, error)

	CreateRecycling(ctx context.Context, e *RecyclingEntry) error
	GetRecycling(ctx context.Context, entryID id.ID) (*RecyclingEntry, error)
	ListRecycling(ctx context.Context, filter ListFilter) ([]RecyclingEntry, error)

	CreateDross(ctx context.Context, e *DrossEntry) error
	GetDross(ctx context.Context, entryID id.ID) (*DrossEntry, error)
	UpdateDross(ctx context.Context, e *DrossEntry) error
	ListDross(ctx context.Context, filter ListFilter) ([]DrossEntry, error)

	CreateRMLPurchase(ctx context.Context, e *RMLPurchaseEntry) error
	GetRMLPurchase(ctx context.Context, entryID id.ID) (*RMLPurchaseEntry, error)
	ListRMLPurchase(ctx context.Context, filter ListFilter) ([]RMLPurchaseEntry, error)

	CreateRMLReceived(ctx context.Context, e *RMLReceivedEntry) error
	GetRMLReceived(ctx context.Context, entryID id.ID) (*RMLReceivedEntry, error)
	ListRMLReceived(ctx context.Context, filter ListFilter) ([]RMLReceivedEntry, error)

	CreateSale(ctx context.Context, e *SaleEntry) error
	GetSale(ctx context.Context, entryID id.ID) (*SaleEntry, error)
	ListSale(ctx context.Context, filter ListFilter) ([]SaleEntry, error)

	// Aggregates

	// BatteryTotals sums battery weight per type across all recycling batches
	BatteryTotals(ctx context.Context) ([]BatteryTotal, error)
}
