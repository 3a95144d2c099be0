// Package reports builds the dashboard view and journal exports over
// the ledger and the stock register.
package reports

import (
	"context"
	"fmt"

	"leadtrack/internal/domain/entries"
	"leadtrack/internal/domain/registers/stock"
)

// Dashboard is the plant overview served to the landing screen.
type Dashboard struct {
	Stock         *stock.Summary         `json:"stock"`
	BatteryTotals []entries.BatteryTotal `json:"batteryTotals"`
	EntryCounts   map[string]int         `json:"entryCounts"`
}

// Service provides report generation operations.
type Service struct {
	ledger   *entries.Service
	stockSvc *stock.Service
}

// NewService creates a new reports service.
func NewService(ledger *entries.Service, stockSvc *stock.Service) *Service {
	return &Service{ledger: ledger, stockSvc: stockSvc}
}

// GetDashboard assembles the stock summary, per-type battery totals
// and ledger counts in one call.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	summary, err := s.stockSvc.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}

	totals, err := s.ledger.BatteryTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("battery totals: %w", err)
	}

	headers, err := s.ledger.List(ctx, entries.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	counts := make(map[string]int)
	for _, h := range headers {
		counts[string(h.EntryType)]++
	}

	return &Dashboard{
		Stock:         summary,
		BatteryTotals: totals,
		EntryCounts:   counts,
	}, nil
}

// journalFilter bounds exports to a sane page size.
func journalFilter(f entries.ListFilter) entries.ListFilter {
	if f.Limit <= 0 {
		f.Limit = 1000
	}
	if f.Limit > 5000 {
		f.Limit = 5000
	}
	return f
}
