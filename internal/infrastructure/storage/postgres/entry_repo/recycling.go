package entry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/domain/entries"
)

var recyclingBatchColumns = []string{
	"batch_id", "entry_id", "batch_no",
	"battery_type", "battery_kg", "receivable_kg", "recovery_percent",
}

type recyclingBatchRow struct {
	entries.RecyclingBatch

	EntryID id.ID `db:"entry_id"`
}

// CreateRecycling inserts the entry header and its batches.
func (r *LedgerRepo) CreateRecycling(ctx context.Context, e *entries.RecyclingEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}

	q := r.builder().Insert(recyclingBatchesTable).Columns(recyclingBatchColumns...)
	for _, b := range e.Batches {
		q = q.Values(
			b.BatchID, e.ID, b.BatchNo,
			b.BatteryType, b.BatteryKg, b.ReceivableKg, b.RecoveryPercent,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert batches: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recycling batches: %w", err)
	}

	return nil
}

// GetRecycling retrieves one recycling entry with its batches.
func (r *LedgerRepo) GetRecycling(ctx context.Context, entryID id.ID) (*entries.RecyclingEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeRecycling {
		return nil, apperror.NewNotFound("recycling entry", entryID.String())
	}

	batches, err := r.recyclingBatches(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	return &entries.RecyclingEntry{Entry: header, Batches: batches[entryID]}, nil
}

// ListRecycling returns recycling entries with batches, newest first.
func (r *LedgerRepo) ListRecycling(ctx context.Context, filter entries.ListFilter) ([]entries.RecyclingEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeRecycling))
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}

	batches, err := r.recyclingBatches(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entries.RecyclingEntry, 0, len(headers))
	for _, h := range headers {
		result = append(result, entries.RecyclingEntry{Entry: h, Batches: batches[h.ID]})
	}

	return result, nil
}

// BatteryTotals sums battery weight per type across all recycling batches.
func (r *LedgerRepo) BatteryTotals(ctx context.Context) ([]entries.BatteryTotal, error) {
	sql := `
		SELECT battery_type, COALESCE(SUM(battery_kg), 0) AS total_kg
		FROM recycling_batches
		GROUP BY battery_type
		ORDER BY battery_type
	`

	var totals []entries.BatteryTotal
	if err := pgxscan.Select(ctx, r.querier(ctx), &totals, sql); err != nil {
		return nil, fmt.Errorf("select battery totals: %w", err)
	}

	return totals, nil
}

func (r *LedgerRepo) recyclingBatches(ctx context.Context, ids []id.ID) (map[id.ID][]entries.RecyclingBatch, error) {
	q := r.builder().Select(recyclingBatchColumns...).
		From(recyclingBatchesTable).
		Where(squirrel.Eq{"entry_id": ids}).
		OrderBy("batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []recyclingBatchRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select recycling batches: %w", err)
	}

	grouped := make(map[id.ID][]entries.RecyclingBatch, len(ids))
	for _, row := range rows {
		grouped[row.EntryID] = append(grouped[row.EntryID], row.RecyclingBatch)
	}

	return grouped, nil
}
