// Package posting coordinates the recording of entry movements into the
// accumulation registers. All register writes for one entry happen in a
// single transaction, so an entry is either fully reflected in stock or
// not at all.
package posting

import (
	"context"
	"fmt"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/tx"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/pkg/logger"
)

// Postable is implemented by every entry type that records movements.
type Postable interface {
	GetID() id.ID
	GetEntryType() entity.EntryType
	GetPostedVersion() int
	IsPosted() bool

	// CanPost validates the entry before movements are generated.
	CanPost(ctx context.Context) error

	// GenerateMovements produces the movements for the next posting
	// version. Pure: no repository access.
	GenerateMovements(ctx context.Context) (*MovementSet, error)

	MarkPosted()
	MarkUnposted()
}

// MovementSet collects the movements one posting produces.
type MovementSet struct {
	Stock []entity.StockMovement
}

// NewMovementSet creates an empty movement set.
func NewMovementSet() *MovementSet {
	return &MovementSet{}
}

// AddStock appends a stock movement.
func (ms *MovementSet) AddStock(m entity.StockMovement) {
	ms.Stock = append(ms.Stock, m)
}

// IsEmpty reports whether the set carries no movements.
func (ms *MovementSet) IsEmpty() bool {
	return len(ms.Stock) == 0
}

// Engine posts and unposts entries against the registers.
type Engine struct {
	stockSvc  *stock.Service
	txManager tx.Manager
}

// NewEngine creates a posting engine.
func NewEngine(stockSvc *stock.Service, txManager tx.Manager) *Engine {
	return &Engine{
		stockSvc:  stockSvc,
		txManager: txManager,
	}
}

// Post records the entry's movements. On repost the previous version's
// movements are reversed first, inside the same transaction. updateDoc
// persists the entry's new posted state and runs in the transaction too.
func (e *Engine) Post(ctx context.Context, doc Postable, updateDoc func(ctx context.Context) error) error {
	if err := doc.CanPost(ctx); err != nil {
		return err
	}

	movements, err := doc.GenerateMovements(ctx)
	if err != nil {
		return fmt.Errorf("generate movements: %w", err)
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.IsPosted() {
			if err := e.stockSvc.ReverseMovements(ctx, doc.GetID(), doc.GetPostedVersion()+1); err != nil {
				return fmt.Errorf("reverse previous version: %w", err)
			}
		}

		if err := e.stockSvc.RecordMovements(ctx, movements.Stock); err != nil {
			return err
		}

		doc.MarkPosted()
		if err := updateDoc(ctx); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "entry posted",
		"id", doc.GetID(),
		"type", doc.GetEntryType(),
		"version", doc.GetPostedVersion(),
		"movements", len(movements.Stock),
	)

	return nil
}

// Unpost reverses the entry's movements and clears its posted flag.
func (e *Engine) Unpost(ctx context.Context, doc Postable, updateDoc func(ctx context.Context) error) error {
	if !doc.IsPosted() {
		return nil
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.stockSvc.ReverseMovements(ctx, doc.GetID(), doc.GetPostedVersion()+1); err != nil {
			return err
		}

		doc.MarkUnposted()
		if err := updateDoc(ctx); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "entry unposted",
		"id", doc.GetID(),
		"type", doc.GetEntryType(),
	)

	return nil
}
