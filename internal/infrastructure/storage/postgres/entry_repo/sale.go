package entry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/entries"
)

var saleRecordColumns = []string{
	"entry_id", "party_name", "sku_type", "quantity_kg", "pieces",
}

// saleRecordRow is the flat dispatch line stored alongside the header.
type saleRecordRow struct {
	EntryID    id.ID    `db:"entry_id"`
	PartyName  string   `db:"party_name"`
	SKUType    string   `db:"sku_type"`
	QuantityKg types.Kg `db:"quantity_kg"`
	Pieces     int64    `db:"pieces"`
}

// CreateSale inserts the entry header and its dispatch record.
func (r *LedgerRepo) CreateSale(ctx context.Context, e *entries.SaleEntry) error {
	if err := r.createHeader(ctx, &e.Entry); err != nil {
		return err
	}

	q := r.builder().Insert(saleRecordsTable).
		Columns(saleRecordColumns...).
		Values(e.ID, e.PartyName, e.SKUType, e.QuantityKg, e.Pieces)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert record: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale record: %w", err)
	}

	return nil
}

// GetSale retrieves one sale entry.
func (r *LedgerRepo) GetSale(ctx context.Context, entryID id.ID) (*entries.SaleEntry, error) {
	header, err := r.GetHeader(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if header.EntryType != entity.EntryTypeSale {
		return nil, apperror.NewNotFound("sale entry", entryID.String())
	}

	records, err := r.saleRecords(ctx, []id.ID{entryID})
	if err != nil {
		return nil, err
	}

	row, ok := records[entryID]
	if !ok {
		return nil, apperror.NewConsistency("sale entry has no dispatch record")
	}

	return assembleSale(header, row), nil
}

// ListSale returns sale entries, newest first.
func (r *LedgerRepo) ListSale(ctx context.Context, filter entries.ListFilter) ([]entries.SaleEntry, error) {
	headers, err := r.ListHeaders(ctx, withType(filter, entity.EntryTypeSale))
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}

	records, err := r.saleRecords(ctx, headerIDs(headers))
	if err != nil {
		return nil, err
	}

	result := make([]entries.SaleEntry, 0, len(headers))
	for _, h := range headers {
		row, ok := records[h.ID]
		if !ok {
			return nil, apperror.NewConsistency("sale entry has no dispatch record")
		}
		result = append(result, *assembleSale(h, row))
	}

	return result, nil
}

func (r *LedgerRepo) saleRecords(ctx context.Context, ids []id.ID) (map[id.ID]saleRecordRow, error) {
	q := r.builder().Select(saleRecordColumns...).
		From(saleRecordsTable).
		Where(squirrel.Eq{"entry_id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []saleRecordRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale records: %w", err)
	}

	records := make(map[id.ID]saleRecordRow, len(rows))
	for _, row := range rows {
		records[row.EntryID] = row
	}

	return records, nil
}

func assembleSale(header entity.Entry, row saleRecordRow) *entries.SaleEntry {
	return &entries.SaleEntry{
		Entry:      header,
		PartyName:  row.PartyName,
		SKUType:    row.SKUType,
		QuantityKg: row.QuantityKg,
		Pieces:     row.Pieces,
	}
}
