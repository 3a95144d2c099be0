package entry_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateLedgerSQL_SingleStatementCoversAllTables(t *testing.T) {
	sql := truncateLedgerSQL()

	// Every batch table references entries, so a truncate that names
	// entries must name them all in the same statement or Postgres
	// rejects it.
	assert.Equal(t, 1, strings.Count(sql, "TRUNCATE"))
	assert.NotContains(t, sql, ";")
	for _, table := range batchTables {
		assert.Contains(t, sql, table)
	}
	assert.Contains(t, sql, entriesTable)

	// Referencing tables come before the referenced one.
	assert.Less(t, strings.Index(sql, saleRecordsTable), strings.LastIndex(sql, entriesTable))
}
