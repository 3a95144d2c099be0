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

// Purchase and received entries share one batch shape and one table.
// The parent header's entry_type tells them apart.
var rmlBatchColumns = []string{
	"batch_id", "entry_id", "batch_no",
	"quantity_kg", "pieces", "sb_percentage", "remarks", "sku",
}

type rmlBatchRow struct {
	entries.RMLBatch

	EntryID id.ID `db:"entry_id"`
}

// CreateRMLPurchase inserts the entry header and its batches.
func (r *LedgerRepo) CreateRMLPurchase(ctx context.Context, e *entries.RMLPurchaseEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}
	return r.insertRMLBatches(ctx, e.ID, e.Batches)
}

// GetRMLPurchase retrieves one purchase entry with its batches.
func (r *LedgerRepo) GetRMLPurchase(ctx context.Context, entryID id.ID) (*entries.RMLPurchaseEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeRMLPurchase {
		return nil, apperror.NewNotFound("rml purchase entry", entryID.String())
	}

	batches, err := r.rmlBatches(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	return &entries.RMLPurchaseEntry{Entry: header, Batches: batches[entryID]}, nil
}

// ListRMLPurchase returns purchase entries with batches, newest first.
func (r *LedgerRepo) ListRMLPurchase(ctx context.Context, filter entries.ListFilter) ([]entries.RMLPurchaseEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeRMLPurchase))
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}

	batches, err := r.rmlBatches(ctx, headerIDs(headers))
	if err != nil {
		return nil, err
	}

	result := make([]entries.RMLPurchaseEntry, 0, len(headers))
	for _, h := range headers {
		result = append(result, entries.RMLPurchaseEntry{Entry: h, Batches: batches[h.ID]})
	}

	return result, nil
}

// CreateRMLReceived inserts the entry header and its batches.
func (r *LedgerRepo) CreateRMLReceived(ctx context.Context, e *entries.RMLReceivedEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}
	return r.insertRMLBatches(ctx, e.ID, e.Batches)
}

// GetRMLReceived retrieves one received entry with its batches.
func (r *LedgerRepo) GetRMLReceived(ctx context.Context, entryID id.ID) (*entries.RMLReceivedEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeRMLReceived {
		return nil, apperror.NewNotFound("rml received entry", entryID.String())
	}

	batches, err := r.rmlBatches(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	return &entries.RMLReceivedEntry{Entry: header, Batches: batches[entryID]}, nil
}

// ListRMLReceived returns received entries with batches, newest first.
func (r *LedgerRepo) ListRMLReceived(ctx context.Context, filter entries.ListFilter) ([]entries.RMLReceivedEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeRMLReceived))
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}

	batches, err := r.rmlBatches(ctx, headerIDs(headers))
	if err != nil {
		return nil, err
	}

	result := make([]entries.RMLReceivedEntry, 0, len(headers))
	for _, h := range headers {
		result = append(result, entries.RMLReceivedEntry{Entry: h, Batches: batches[h.ID]})
	}

	return result, nil
}

func (r *LedgerRepo) insertRMLBatches(ctx context.Context, entryID id.ID, batches []entries.RMLBatch) error {
	q := r.builder().Insert(rmlBatchesTable).Columns(rmlBatchColumns...)
	for _, b := range batches {
		q = q.Values(
			b.BatchID, entryID, b.BatchNo,
			b.QuantityKg, b.Pieces, b.SBPercentage, b.Remarks, b.SKU,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert batches: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert rml batches: %w", err)
	}

	return nil
}

func (r *LedgerRepo) rmlBatches(ctx context.Context, ids []id.ID) (map[id.ID][]entries.RMLBatch, error) {
	q := r.builder().Select(rmlBatchColumns...).
		From(rmlBatchesTable).
		Where(squirrel.Eq{"entry_id": ids}).
		OrderBy("batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []rmlBatchRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select rml batches: %w", err)
	}

	grouped := make(map[id.ID][]entries.RMLBatch, len(ids))
	for _, row := range rows {
		grouped[row.EntryID] = append(grouped[row.EntryID], row.RMLBatch)
	}

	return grouped, nil
}

func headerIDs(headers []entity.Entry) []id.ID {
	ids := make([]id.ID, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}
	return ids
}
