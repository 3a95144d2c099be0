package postgres

import (
	"testing"
	"time"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"

	"github.com/stretchr/testify/assert"
)

type mockRecord struct {
	entity.BaseDocument
	Material string `db:"material" json:"material"`
	SKU      string `db:"sku" json:"sku"`
	Ignored  string `db:"-"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{
		"id", "version", "created_at", "updated_at", "material", "sku",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{
				ID:      id.New(),
				Version: 5,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		Material: "pure_lead",
		SKU:      "",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "pure_lead", m["material"])
	assert.Equal(t, "", m["sku"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
