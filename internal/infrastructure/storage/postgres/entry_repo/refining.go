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

var refiningBatchColumns = []string{
	"batch_id", "entry_id", "batch_no", "input_source", "sb_percentage",
	"lead_ingot_kg", "lead_ingot_pieces",
	"initial_dross_kg", "second_dross_kg", "third_dross_kg",
	"cu_dross_kg", "sn_dross_kg", "sb_dross_kg",
	"pure_lead_kg", "pure_lead_pieces", "recovery_percent",
}

// refiningBatchRow carries the stored form of a batch. The input source
// is persisted as its label and parsed back on read.
type refiningBatchRow struct {
	entries.RefiningBatch

	EntryID id.ID  `db:"entry_id"`
	Source  string `db:"input_source"`
}

func (row refiningBatchRow) toBatch() entries.RefiningBatch {
	b := row.RefiningBatch
	b.InputSource = entries.ParseInputSource(row.Source)
	return b
}

// CreateRefining inserts the entry header and its batches.
func (r *LedgerRepo) CreateRefining(ctx context.Context, e *entries.RefiningEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}

	q := r.builder().Insert(refiningBatchesTable).Columns(refiningBatchColumns...)
	for _, b := range e.Batches {
		q = q.Values(
			b.BatchID, e.ID, b.BatchNo, b.InputSource.Label(), b.SBPercentage,
			b.LeadIngotKg, b.LeadIngotPieces,
			b.InitialDrossKg, b.SecondDrossKg, b.ThirdDrossKg,
			b.CuDrossKg, b.SnDrossKg, b.SbDrossKg,
			b.PureLeadKg, b.PureLeadPieces, b.RecoveryPercent,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert batches: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refining batches: %w", err)
	}

	return nil
}

// GetRefining retrieves one refining entry with its batches.
func (r *LedgerRepo) GetRefining(ctx context.Context, entryID id.ID) (*entries.RefiningEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeRefining {
		return nil, apperror.NewNotFound("refining entry", entryID.String())
	}

	batches, err := r.refiningBatches(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	return &entries.RefiningEntry{Entry: header, Batches: batches[entryID]}, nil
}

// ListRefining returns refining entries with batches, newest first.
func (r *LedgerRepo) ListRefining(ctx context.Context, filter entries.ListFilter) ([]entries.RefiningEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeRefining))
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

	batches, err := r.refiningBatches(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entries.RefiningEntry, 0, len(headers))
	for _, h := range headers {
		result = append(result, entries.RefiningEntry{Entry: h, Batches: batches[h.ID]})
	}

	return result, nil
}

// refiningBatches loads batches for the given entries, grouped by entry.
func (r *LedgerRepo) refiningBatches(ctx context.Context, ids []id.ID) (map[id.ID][]entries.RefiningBatch, error) {
	q := r.builder().Select(refiningBatchColumns...).
		From(refiningBatchesTable).
		Where(squirrel.Eq{"entry_id": ids}).
		OrderBy("batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []refiningBatchRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select refining batches: %w", err)
	}

	grouped := make(map[id.ID][]entries.RefiningBatch, len(ids))
	for _, row := range rows {
		grouped[row.EntryID] = append(grouped[row.EntryID], row.toBatch())
	}

	return grouped, nil
}
