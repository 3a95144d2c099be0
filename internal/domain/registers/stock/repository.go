// Package stock provides the stock accumulation register.
package stock

import (
	"context"
	"time"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
)

// Repository defines operations for the stock register.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts movements (used during posting)
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// DeleteMovementsByRecorder removes all movements for an entry
	// recorded before the given posting version.
	// Used during deletion or re-posting.
	DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error

	// GetMovementsByRecorder retrieves all movements for an entry
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// ListMovements returns movement history ordered by insertion
	ListMovements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error)

	// Balance operations

	// GetBalance returns the current balance for one bucket
	GetBalance(ctx context.Context, key entity.BucketKey) (entity.StockBalance, error)

	// GetBalanceForUpdate returns the bucket balance with a row lock,
	// creating a zero row first when the bucket has never moved.
	GetBalanceForUpdate(ctx context.Context, key entity.BucketKey) (entity.StockBalance, error)

	// ApplyDelta adjusts one bucket balance by the given signed amounts.
	// The sbPercent is written on first receipt into an RML bucket.
	ApplyDelta(ctx context.Context, key entity.BucketKey, delta BalanceDelta) error

	// ListBalances returns balances for all buckets
	ListBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// Maintenance

	// RebuildBalances recomputes every bucket balance from the full
	// movement history, replacing the cached rows.
	RebuildBalances(ctx context.Context) error

	// TruncateAll removes all movements and balances
	TruncateAll(ctx context.Context) error
}

// BalanceDelta is a signed adjustment to one bucket balance.
type BalanceDelta struct {
	Quantity  int64 // scaled kg, negative for net expense
	Pieces    int64
	SBPercent int64 // scaled percent, used only when creating an RML row
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	Materials   []entity.Material
	ExcludeZero bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	Material   *entity.Material
	SKU        *string
	RecorderID *id.ID
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
