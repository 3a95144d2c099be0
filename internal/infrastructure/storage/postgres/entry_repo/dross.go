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

var drossBatchColumns = []string{
	"batch_id", "entry_id", "batch_no",
	"dross_type", "quantity_sent_kg", "high_lead_recovered_kg", "recovery_percent",
}

type drossBatchRow struct {
	entries.DrossBatch

	EntryID id.ID `db:"entry_id"`
}

// CreateDross inserts the entry header and its batches.
func (r *LedgerRepo) CreateDross(ctx context.Context, e *entries.DrossEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}

	return r.insertDrossBatches(ctx, e)
}

// GetDross retrieves one dross entry with its batches.
func (r *LedgerRepo) GetDross(ctx context.Context, entryID id.ID) (*entries.DrossEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeDross {
		return nil, apperror.NewNotFound("dross entry", entryID.String())
	}

	batches, err := r.drossBatches(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	return &entries.DrossEntry{Entry: header, Batches: batches[entryID]}, nil
}

// UpdateDross rewrites the batches and header after a recovery is
// recorded. The entry is the only type that mutates after append.
func (r *LedgerRepo) UpdateDross(ctx context.Context, e *entries.DrossEntry) error {
	if err := r.UpdateHeader(ctx, &e.Entry); err != nil {
		return err
	}

	querier := r.querier(ctx)
	if _, err := querier.Exec(ctx, `DELETE FROM `+drossBatchesTable+` WHERE entry_id = $1`, e.ID); err != nil {
		return fmt.Errorf("delete dross batches: %w", err)
	}

	return r.insertDrossBatches(ctx, e)
}

// ListDross returns dross entries with batches, newest first.
func (r *LedgerRepo) ListDross(ctx context.Context, filter entries.ListFilter) ([]entries.DrossEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeDross))
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

	batches, err := r.drossBatches(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entries.DrossEntry, 0, len(headers))
	for _, h := range headers {
		result = append(result, entries.DrossEntry{Entry: h, Batches: batches[h.ID]})
	}

	return result, nil
}

func (r *LedgerRepo) insertDrossBatches(ctx context.Context, e *entries.DrossEntry) error {
	q := r.builder().Insert(drossBatchesTable).Columns(drossBatchColumns...)
	for _, b := range e.Batches {
		q = q.Values(
			b.BatchID, e.ID, b.BatchNo,
			b.DrossType, b.QuantitySentKg, b.HighLeadRecoveredKg, b.RecoveryPercent,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert batches: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert dross batches: %w", err)
	}

	return nil
}

func (r *LedgerRepo) drossBatches(ctx context.Context, ids []id.ID) (map[id.ID][]entries.DrossBatch, error) {
	q := r.builder().Select(drossBatchColumns...).
		From(drossBatchesTable).
		Where(squirrel.Eq{"entry_id": ids}).
		OrderBy("batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []drossBatchRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select dross batches: %w", err)
	}

	grouped := make(map[id.ID][]entries.DrossBatch, len(ids))
	for _, row := range rows {
		grouped[row.EntryID] = append(grouped[row.EntryID], row.DrossBatch)
	}

	return grouped, nil
}
