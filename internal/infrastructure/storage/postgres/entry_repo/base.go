// Package entry_repo provides the PostgreSQL implementation of the
// ledger entry repository.
package entry_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/domain/entries"
	"leadtrack/internal/infrastructure/storage/postgres"
)

const (
	entriesTable          = "entries"
	refiningBatchesTable  = "refining_batches"
	recyclingBatchesTable = "recycling_batches"
	drossBatchesTable     = "dross_batches"
	rmlBatchesTable       = "rml_batches"
	saleRecordsTable      = "sale_records"
)

var entryColumns = postgres.ExtractDBColumns[entity.Entry]()

// batchTables lists every child table so deletes and truncates cover
// all entry types without consulting the header first.
var batchTables = []string{
	refiningBatchesTable,
	recyclingBatchesTable,
	drossBatchesTable,
	rmlBatchesTable,
	saleRecordsTable,
}

// LedgerRepo implements entries.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txManager: txManager}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// createHeader inserts the common entry header.
func (r *LedgerRepo) createHeader(ctx context.Context, e *entity.Entry) error {
	data := postgres.StructToMap(e)

	filtered := make(map[string]any, len(entryColumns))
	for _, col := range entryColumns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().Insert(entriesTable).SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

// GetHeader returns the common header of any entry.
func (r *LedgerRepo) GetHeader(ctx context.Context, entryID id.ID) (entity.Entry, error) {
	var e entity.Entry

	q := r.builder().Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("entry", entryID.String())
		}
		return e, fmt.Errorf("get entry: %w", err)
	}

	return e, nil
}

// UpdateHeader persists posted-state changes. The in-memory version is
// authoritative; a stale writer finds the row already past it and fails.
func (r *LedgerRepo) UpdateHeader(ctx context.Context, e *entity.Entry) error {
	sql := `
		UPDATE entries
		SET posted = $2, posted_version = $3, comment = $4,
			updated_at = $5, version = $6
		WHERE id = $1 AND version < $6
	`

	result, err := r.querier(ctx).Exec(ctx, sql,
		e.ID, e.Posted, e.PostedVersion, e.Comment, e.UpdatedAt, e.Version,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("entry", e.ID)
	}

	return nil
}

// ListHeaders returns headers newest first.
func (r *LedgerRepo) ListHeaders(ctx context.Context, filter entries.ListFilter) ([]entity.Entry, error) {
	q := r.builder().Select(entryColumns...).From(entriesTable)
	q = applyListFilter(q, filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var headers []entity.Entry
	if err := pgxscan.Select(ctx, r.querier(ctx), &headers, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return headers, nil
}

// DeleteEntry hard-deletes an entry and its batches.
func (r *LedgerRepo) DeleteEntry(ctx context.Context, entryID id.ID) error {
	querier := r.querier(ctx)

	for _, table := range batchTables {
		if _, err := querier.Exec(ctx, `DELETE FROM `+table+` WHERE entry_id = $1`, entryID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	result, err := querier.Exec(ctx, `DELETE FROM entries WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("entry", entryID.String())
	}

	return nil
}

// truncateLedgerSQL names the batch tables and entries in one
// statement. The batch tables carry foreign keys into entries, and
// Postgres only truncates a referenced table when every referencing
// table appears in the same TRUNCATE.
func truncateLedgerSQL() string {
	tables := append(append([]string{}, batchTables...), entriesTable)
	return `TRUNCATE ` + strings.Join(tables, ", ")
}

// TruncateAll removes every entry of every type.
func (r *LedgerRepo) TruncateAll(ctx context.Context) error {
	if _, err := r.querier(ctx).Exec(ctx, truncateLedgerSQL()); err != nil {
		return fmt.Errorf("truncate ledger tables: %w", err)
	}

	return nil
}

// applyListFilter narrows and orders a header query.
func applyListFilter(q squirrel.SelectBuilder, filter entries.ListFilter) squirrel.SelectBuilder {
	if filter.EntryType != nil {
		q = q.Where(squirrel.Eq{"entry_type": *filter.EntryType})
	}
	if filter.UserID != nil {
		q = q.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"timestamp": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"timestamp": *filter.ToDate})
	}

	q = q.OrderBy("timestamp DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return q
}

// withType pins a filter to one entry type.
func withType(filter entries.ListFilter, t entity.EntryType) entries.ListFilter {
	filter.EntryType = &t
	return filter
}

// Ensure interface compliance.
var _ entries.Repository = (*LedgerRepo)(nil)
