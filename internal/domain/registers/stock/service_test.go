package stock

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	movements []entity.StockMovement
	balances  map[entity.BucketKey]entity.StockBalance
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{balances: make(map[entity.BucketKey]entity.StockBalance)}
}

func (r *memoryRepo) CreateMovements(_ context.Context, movements []entity.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memoryRepo) DeleteMovementsByRecorder(_ context.Context, recorderID id.ID, beforeVersion int) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.RecorderID == recorderID && m.RecorderVersion < beforeVersion {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return nil
}

func (r *memoryRepo) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListMovements(_ context.Context, _ MovementFilter) ([]entity.StockMovement, error) {
	return append([]entity.StockMovement(nil), r.movements...), nil
}

func (r *memoryRepo) GetBalance(_ context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	b, ok := r.balances[key]
	if !ok {
		return entity.StockBalance{}, apperror.NewNotFound("stock balance", key)
	}
	return b, nil
}

func (r *memoryRepo) GetBalanceForUpdate(_ context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	b, ok := r.balances[key]
	if !ok {
		b = entity.StockBalance{Material: key.Material, SKU: key.SKU}
		r.balances[key] = b
	}
	return b, nil
}

func (r *memoryRepo) ApplyDelta(_ context.Context, key entity.BucketKey, delta BalanceDelta) error {
	b, ok := r.balances[key]
	if !ok {
		b = entity.StockBalance{
			Material:  key.Material,
			SKU:       key.SKU,
			SBPercent: types.Percent(delta.SBPercent),
		}
	}
	b.Quantity += types.Kg(delta.Quantity)
	b.Pieces += delta.Pieces
	b.UpdatedAt = time.Now()
	r.balances[key] = b
	return nil
}

func (r *memoryRepo) ListBalances(_ context.Context, _ BalanceFilter) ([]entity.StockBalance, error) {
	out := make([]entity.StockBalance, 0, len(r.balances))
	for _, b := range r.balances {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Material != out[j].Material {
			return out[i].Material < out[j].Material
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

func (r *memoryRepo) RebuildBalances(_ context.Context) error {
	r.balances = make(map[entity.BucketKey]entity.StockBalance)
	for _, m := range r.movements {
		key := m.BucketKey()
		b, ok := r.balances[key]
		if !ok {
			b = entity.StockBalance{Material: key.Material, SKU: key.SKU, SBPercent: m.SBPercent}
		}
		b.Quantity += m.SignedQuantity()
		b.Pieces += m.SignedPieces()
		r.balances[key] = b
	}
	return nil
}

func (r *memoryRepo) TruncateAll(_ context.Context) error {
	r.movements = nil
	r.balances = make(map[entity.BucketKey]entity.StockBalance)
	return nil
}

func movement(recorder id.ID, rt entity.RecordType, mat entity.Material, sku string, kg string) entity.StockMovement {
	return entity.StockMovement{
		MovementBase: entity.MovementBase{
			LineID:          id.New(),
			RecorderID:      recorder,
			RecorderType:    entity.EntryTypeRefining,
			RecorderVersion: 1,
			Period:          time.Now(),
			RecordType:      rt,
			CreatedAt:       time.Now(),
		},
		Material: mat,
		SKU:      sku,
		Quantity: types.MustKg(kg),
	}
}

func TestService_NeverNegative(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)

	refine := id.New()
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(refine, entity.RecordTypeReceipt, entity.MaterialPureLead, "", "60.50"),
	}))

	sale := id.New()
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(sale, entity.RecordTypeExpense, entity.MaterialPureLead, "", "20.50"),
	}))

	balance, err := svc.Available(ctx, entity.BucketKey{Material: entity.MaterialPureLead})
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.Quantity.String())

	// Drawing more than the remaining 40.00 kg must be rejected whole.
	oversell := id.New()
	err = svc.RecordMovements(ctx, []entity.StockMovement{
		movement(oversell, entity.RecordTypeExpense, entity.MaterialPureLead, "", "45.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "45.00", appErr.Details["requested"])
	assert.Equal(t, "40.00", appErr.Details["available"])

	// The rejected posting must leave no trace.
	balance, err = svc.Available(ctx, entity.BucketKey{Material: entity.MaterialPureLead})
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.Quantity.String())
	assert.Len(t, repo.movements, 2)
}

func TestService_ExpenseFromEmptyBucket(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	err := svc.RecordMovements(ctx, []entity.StockMovement{
		movement(id.New(), entity.RecordTypeExpense, entity.MaterialHighLead, "", "0.01"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestService_RMLLotsAreSeparateBuckets(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	purchase := id.New()
	lotA := movement(purchase, entity.RecordTypeReceipt, entity.MaterialRML, "SANTOSH, 2.5%, 01/03/2026", "1000.00")
	lotA.SBPercent = types.MustPercent("2.5")
	lotB := movement(purchase, entity.RecordTypeReceipt, entity.MaterialRML, "RML, 3%, 05/03/2026", "500.00")
	lotB.SBPercent = types.MustPercent("3")
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{lotA, lotB}))

	// Consuming lot A must not touch lot B.
	issue := movement(id.New(), entity.RecordTypeExpense, entity.MaterialRML, "SANTOSH, 2.5%, 01/03/2026", "600.00")
	issue.SBPercent = types.MustPercent("2.5")
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{issue}))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.RMLLots, 2)
	assert.Equal(t, "RML, 3%, 05/03/2026", summary.RMLLots[0].SKU)
	assert.Equal(t, "500.00", summary.RMLLots[0].Quantity.String())
	assert.Equal(t, "SANTOSH, 2.5%, 01/03/2026", summary.RMLLots[1].SKU)
	assert.Equal(t, "400.00", summary.RMLLots[1].Quantity.String())
}

func TestService_ReverseRejectsConsumedStock(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	refine := id.New()
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(refine, entity.RecordTypeReceipt, entity.MaterialPureLead, "", "50.00"),
	}))
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(id.New(), entity.RecordTypeExpense, entity.MaterialPureLead, "", "30.00"),
	}))

	// Removing the 50 kg receipt would leave the bucket at -30 kg.
	err := svc.ReverseMovements(ctx, refine, 2)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestService_ReverseRestoresBalance(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)

	receipt := id.New()
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(receipt, entity.RecordTypeReceipt, entity.MaterialHighLead, "", "80.00"),
	}))

	sale := id.New()
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(sale, entity.RecordTypeExpense, entity.MaterialHighLead, "", "30.00"),
	}))

	// Removing the sale puts its 30 kg back.
	require.NoError(t, svc.ReverseMovements(ctx, sale, 2))

	balance, err := svc.Available(ctx, entity.BucketKey{Material: entity.MaterialHighLead})
	require.NoError(t, err)
	assert.Equal(t, "80.00", balance.Quantity.String())
	assert.Len(t, repo.movements, 1)
}

func TestService_RecordMovements_EmptyIsNoop(t *testing.T) {
	svc := NewService(newMemoryRepo())
	require.NoError(t, svc.RecordMovements(context.Background(), nil))
}

func TestService_RecomputeMatchesIncremental(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)

	for _, kg := range []string{"10.00", "25.50", "7.25"} {
		require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
			movement(id.New(), entity.RecordTypeReceipt, entity.MaterialRemelted, "", kg),
		}))
	}
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{
		movement(id.New(), entity.RecordTypeExpense, entity.MaterialRemelted, "", "12.75"),
	}))

	incremental, err := svc.Summary(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Recompute(ctx))

	rebuilt, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, incremental, rebuilt)
	assert.Equal(t, "30.00", rebuilt.Remelted.String())
}

func TestService_ValidatesMovements(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	tests := []struct {
		name string
		m    entity.StockMovement
	}{
		{
			name: "zero quantity",
			m:    movement(id.New(), entity.RecordTypeReceipt, entity.MaterialPureLead, "", "0.00"),
		},
		{
			name: "unknown material",
			m:    movement(id.New(), entity.RecordTypeReceipt, entity.Material("slag"), "", "1.00"),
		},
		{
			name: "rml without sku",
			m:    movement(id.New(), entity.RecordTypeReceipt, entity.MaterialRML, "", "1.00"),
		},
		{
			name: "sku on non-rml bucket",
			m:    movement(id.New(), entity.RecordTypeReceipt, entity.MaterialPureLead, "SANTOSH, 2%, 01/01/2026", "1.00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RecordMovements(ctx, []entity.StockMovement{tt.m})
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}
