// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

var stockMovementColumns = []string{
	"line_id", "recorder_id", "recorder_type", "recorder_version",
	"period", "record_type",
	"material", "sku", "quantity", "pieces", "sb_percent", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts movements.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementValues(m))
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, stockMovementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert (slower). Prefer calling CreateMovements within tx.
	q := r.builder.Insert(stockMovementsTable).Columns(stockMovementColumns...)
	for _, m := range movements {
		q = q.Values(movementValues(m)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

func movementValues(m entity.StockMovement) []any {
	return []any{
		m.LineID, m.RecorderID, m.RecorderType, m.RecorderVersion,
		m.Period, m.RecordType,
		m.Material, m.SKU, m.Quantity, m.Pieces, m.SBPercent, m.CreatedAt,
	}
}

// DeleteMovementsByRecorder removes movements recorded before the given version.
func (r *StockRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	q := r.builder.Delete(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		Where(squirrel.Lt{"recorder_version": beforeVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	return nil
}

// GetMovementsByRecorder retrieves movements for an entry.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// ListMovements returns movement history.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(stockMovementColumns...).From(stockMovementsTable)

	if filter.Material != nil {
		q = q.Where(squirrel.Eq{"material": *filter.Material})
	}
	if filter.SKU != nil {
		q = q.Where(squirrel.Eq{"sku": *filter.SKU})
	}
	if filter.RecorderID != nil {
		q = q.Where(squirrel.Eq{"recorder_id": *filter.RecorderID})
	}
	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

// GetBalance returns current balance for one bucket.
func (r *StockRepo) GetBalance(ctx context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	var balance entity.StockBalance

	q := r.builder.Select(
		"material", "sku", "quantity", "pieces", "sb_percent", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{
			"material": key.Material,
			"sku":      key.SKU,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				Material: key.Material,
				SKU:      key.SKU,
			}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns the bucket balance with a row lock.
// A zero row is created first when the bucket has never moved, so the
// lock always lands on a real row.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	var balance entity.StockBalance

	querier := r.txManager.GetQuerier(ctx)

	insertSQL := `
		INSERT INTO reg_stock_balances (material, sku, quantity, pieces, sb_percent, updated_at)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (material, sku) DO NOTHING
	`
	if _, err := querier.Exec(ctx, insertSQL, key.Material, key.SKU); err != nil {
		return balance, fmt.Errorf("ensure balance row: %w", err)
	}

	selectSQL := `
		SELECT material, sku, quantity, pieces, sb_percent, updated_at
		FROM reg_stock_balances
		WHERE material = $1 AND sku = $2
		FOR UPDATE
	`
	if err := pgxscan.Get(ctx, querier, &balance, selectSQL, key.Material, key.SKU); err != nil {
		return balance, fmt.Errorf("get balance for update: %w", err)
	}

	return balance, nil
}

// ApplyDelta adjusts one bucket balance by the given signed amounts.
func (r *StockRepo) ApplyDelta(ctx context.Context, key entity.BucketKey, delta stock.BalanceDelta) error {
	sql := `
		INSERT INTO reg_stock_balances (material, sku, quantity, pieces, sb_percent, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (material, sku) DO UPDATE SET
			quantity   = reg_stock_balances.quantity + EXCLUDED.quantity,
			pieces     = reg_stock_balances.pieces + EXCLUDED.pieces,
			sb_percent = CASE
				WHEN reg_stock_balances.sb_percent = 0 THEN EXCLUDED.sb_percent
				ELSE reg_stock_balances.sb_percent
			END,
			updated_at = now()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, key.Material, key.SKU, delta.Quantity, delta.Pieces, delta.SBPercent); err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}

	return nil
}

// ListBalances returns balances for all buckets.
func (r *StockRepo) ListBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.Select(
		"material", "sku", "quantity", "pieces", "sb_percent", "updated_at",
	).From(stockBalancesTable)

	if len(filter.Materials) > 0 {
		q = q.Where(squirrel.Eq{"material": filter.Materials})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	q = q.OrderBy("material", "sku")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// RebuildBalances recomputes every bucket balance from the full movement
// history. Grades are taken from the trailing receipt per bucket.
func (r *StockRepo) RebuildBalances(ctx context.Context) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		if _, err := querier.Exec(ctx, `DELETE FROM reg_stock_balances`); err != nil {
			return fmt.Errorf("clear balances: %w", err)
		}

		sql := `
			INSERT INTO reg_stock_balances (material, sku, quantity, pieces, sb_percent, updated_at)
			SELECT
				material,
				sku,
				COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END), 0),
				COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN pieces ELSE -pieces END), 0),
				COALESCE(MAX(sb_percent), 0),
				now()
			FROM reg_stock_movements
			GROUP BY material, sku
		`
		if _, err := querier.Exec(ctx, sql); err != nil {
			return fmt.Errorf("rebuild balances: %w", err)
		}

		return nil
	})
}

// TruncateAll removes all movements and balances.
func (r *StockRepo) TruncateAll(ctx context.Context) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, `TRUNCATE `+stockMovementsTable); err != nil {
		return fmt.Errorf("truncate movements: %w", err)
	}
	if _, err := querier.Exec(ctx, `TRUNCATE `+stockBalancesTable); err != nil {
		return fmt.Errorf("truncate balances: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
