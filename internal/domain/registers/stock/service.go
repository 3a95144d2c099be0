package stock

import (
	"context"
	"fmt"
	"sort"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/pkg/logger"
)

// Service provides business operations for the stock register.
// Transactions are managed by the caller (posting engine), so every
// mutating method expects to run inside one.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// RecordMovements records stock movements from an entry posting.
// Expense movements are checked against locked balances first, so the
// register can never go negative.
func (s *Service) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if err := validateMovement(i, m); err != nil {
			return err
		}
	}

	deltas := aggregateDeltas(movements)

	// Lock buckets in a stable order and reject any net draw beyond
	// the available balance.
	for _, bd := range deltas {
		balance, err := s.repo.GetBalanceForUpdate(ctx, bd.key)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", bucketLabel(bd.key), err)
		}

		if int64(balance.Quantity)+bd.delta.Quantity < 0 {
			requested := types.Kg(-bd.delta.Quantity)
			return apperror.NewInsufficientStock(
				bucketLabel(bd.key),
				requested.String(),
				balance.Quantity.String(),
			)
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	for _, bd := range deltas {
		if err := s.repo.ApplyDelta(ctx, bd.key, bd.delta); err != nil {
			return fmt.Errorf("apply delta for %s: %w", bucketLabel(bd.key), err)
		}
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
	)

	return nil
}

// ReverseMovements removes movements recorded for an entry before the
// given posting version and rolls their effect out of the balances.
// Fails when removing a receipt would leave a bucket negative, which
// means downstream entries already consumed the stock.
func (s *Service) ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	movements, err := s.repo.GetMovementsByRecorder(ctx, recorderID)
	if err != nil {
		return fmt.Errorf("get movements: %w", err)
	}

	var affected []entity.StockMovement
	for _, m := range movements {
		if m.RecorderVersion < beforeVersion {
			affected = append(affected, m)
		}
	}
	if len(affected) == 0 {
		return nil
	}

	deltas := aggregateDeltas(affected)

	for _, bd := range deltas {
		balance, err := s.repo.GetBalanceForUpdate(ctx, bd.key)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", bucketLabel(bd.key), err)
		}

		// Reversal negates the original delta.
		if int64(balance.Quantity)-bd.delta.Quantity < 0 {
			shortfall := types.Kg(bd.delta.Quantity) - balance.Quantity
			return apperror.NewInsufficientStock(
				bucketLabel(bd.key),
				shortfall.String(),
				balance.Quantity.String(),
			).WithDetail("reason", "stock already consumed by later entries")
		}
	}

	if err := s.repo.DeleteMovementsByRecorder(ctx, recorderID, beforeVersion); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	for _, bd := range deltas {
		reversed := BalanceDelta{
			Quantity: -bd.delta.Quantity,
			Pieces:   -bd.delta.Pieces,
		}
		if err := s.repo.ApplyDelta(ctx, bd.key, reversed); err != nil {
			return fmt.Errorf("apply delta for %s: %w", bucketLabel(bd.key), err)
		}
	}

	logger.Info(ctx, "reversed stock movements",
		"recorder_id", recorderID,
		"before_version", beforeVersion,
	)

	return nil
}

// Available returns the current balance of one bucket.
func (s *Service) Available(ctx context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	balance, err := s.repo.GetBalance(ctx, key)
	if err != nil {
		if apperror.IsNotFound(err) {
			return entity.StockBalance{Material: key.Material, SKU: key.SKU}, nil
		}
		return entity.StockBalance{}, err
	}
	return balance, nil
}

// Movements returns the movement history matching the filter.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// Summary folds the cached balances into the plant-wide stock view.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	balances, err := s.repo.ListBalances(ctx, BalanceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	summary := &Summary{}
	for _, b := range balances {
		switch b.Material {
		case entity.MaterialPureLead:
			summary.PureLead = b.Quantity
			summary.PureLeadPieces = b.Pieces
		case entity.MaterialReceivable:
			summary.Receivable = b.Quantity
		case entity.MaterialHighLead:
			summary.HighLead = b.Quantity
		case entity.MaterialRemelted:
			summary.Remelted = b.Quantity
			summary.RemeltedPieces = b.Pieces
		case entity.MaterialAntimony:
			summary.Antimony = b.Quantity
		case entity.MaterialRML:
			if b.Quantity.IsZero() && b.Pieces == 0 {
				continue
			}
			summary.RMLLots = append(summary.RMLLots, RMLLot{
				SKU:       b.SKU,
				Quantity:  b.Quantity,
				Pieces:    b.Pieces,
				SBPercent: b.SBPercent,
			})
		}
	}

	sort.Slice(summary.RMLLots, func(i, j int) bool {
		return summary.RMLLots[i].SKU < summary.RMLLots[j].SKU
	})

	return summary, nil
}

// Recompute rebuilds every balance from the full movement history.
// The result must match what incremental posting produced; divergence
// means movements were tampered with outside the posting path.
func (s *Service) Recompute(ctx context.Context) error {
	if err := s.repo.RebuildBalances(ctx); err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}

	logger.Info(ctx, "rebuilt stock balances from movement history")
	return nil
}

// TruncateAll wipes movements and balances. Only the data-reset flow
// calls this, inside its own transaction.
func (s *Service) TruncateAll(ctx context.Context) error {
	return s.repo.TruncateAll(ctx)
}

// Summary is the plant-wide stock position across all buckets.
type Summary struct {
	PureLead       types.Kg `json:"pureLeadKg"`
	PureLeadPieces int64    `json:"pureLeadPieces"`
	Receivable     types.Kg `json:"receivableKg"`
	HighLead       types.Kg `json:"highLeadKg"`
	Remelted       types.Kg `json:"remeltedKg"`
	RemeltedPieces int64    `json:"remeltedPieces"`
	Antimony       types.Kg `json:"antimonyKg"`
	RMLLots        []RMLLot `json:"rmlLots,omitempty"`
}

// RMLLot is the stock position of one remelted-lead lot.
type RMLLot struct {
	SKU       string        `json:"sku"`
	Quantity  types.Kg      `json:"quantityKg"`
	Pieces    int64         `json:"pieces"`
	SBPercent types.Percent `json:"sbPercent"`
}

type bucketDelta struct {
	key   entity.BucketKey
	delta BalanceDelta
}

// aggregateDeltas nets the movements per bucket, ordered by bucket key
// so concurrent postings lock rows in the same sequence.
func aggregateDeltas(movements []entity.StockMovement) []bucketDelta {
	byKey := make(map[entity.BucketKey]*BalanceDelta)
	for i := range movements {
		m := &movements[i]
		key := m.BucketKey()
		d, ok := byKey[key]
		if !ok {
			d = &BalanceDelta{SBPercent: int64(m.SBPercent)}
			byKey[key] = d
		}
		d.Quantity += int64(m.SignedQuantity())
		d.Pieces += m.SignedPieces()
	}

	out := make([]bucketDelta, 0, len(byKey))
	for key, d := range byKey {
		out = append(out, bucketDelta{key: key, delta: *d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.Material != out[j].key.Material {
			return out[i].key.Material < out[j].key.Material
		}
		return out[i].key.SKU < out[j].key.SKU
	})
	return out
}

func validateMovement(i int, m entity.StockMovement) error {
	if !m.Quantity.IsPositive() {
		return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
	}
	if id.IsNil(m.RecorderID) {
		return apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
	}
	if !entity.KnownMaterial(m.Material) {
		return apperror.NewValidation(fmt.Sprintf("movement %d: unknown material %q", i, m.Material))
	}
	if m.Material == entity.MaterialRML {
		if m.SKU == "" {
			return apperror.NewValidation(fmt.Sprintf("movement %d: rml movement requires sku", i))
		}
		if !m.SBPercent.InRange() {
			return apperror.NewValidation(fmt.Sprintf("movement %d: sb percent out of range", i))
		}
	} else if m.SKU != "" {
		return apperror.NewValidation(fmt.Sprintf("movement %d: sku is only valid for rml", i))
	}
	return nil
}

func bucketLabel(key entity.BucketKey) string {
	if key.SKU == "" {
		return string(key.Material)
	}
	return string(key.Material) + ":" + key.SKU
}
