package sku

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leadtrack/internal/core/types"
)

func TestResolve(t *testing.T) {
	date := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		remarks string
		sb      string
		want    string
	}{
		{"supplier remark", "SANTOSH", "2.5", "SANTOSH, 2.5%, 05/03/2026"},
		{"blank remark falls back", "", "3", "RML, 3%, 05/03/2026"},
		{"whitespace remark falls back", "   ", "3", "RML, 3%, 05/03/2026"},
		{"remark is trimmed", "  SANTOSH  ", "2.5", "SANTOSH, 2.5%, 05/03/2026"},
		{"integer grade has no decimals", "SANTOSH", "2", "SANTOSH, 2%, 05/03/2026"},
		{"zero grade", "SANTOSH", "0", "SANTOSH, 0%, 05/03/2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.remarks, types.MustPercent(tt.sb), date)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	date := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, time.March, 5, 23, 59, 0, 0, time.UTC)

	// Same supplier, grade and calendar day always map to the same lot.
	assert.Equal(t,
		Resolve("SANTOSH", types.MustPercent("2.5"), date),
		Resolve("SANTOSH", types.MustPercent("2.5"), later),
	)

	// Any differing attribute opens a new lot.
	assert.NotEqual(t,
		Resolve("SANTOSH", types.MustPercent("2.5"), date),
		Resolve("SANTOSH", types.MustPercent("3"), date),
	)
}
