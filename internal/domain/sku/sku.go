// Package sku derives and lists the identifiers of remelted-lead lots.
package sku

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadtrack/internal/core/entity"
	"leadtrack/internal/domain/registers/stock"

	"leadtrack/internal/core/types"
)

// DateLayout is the purchase-date component of an SKU key.
const DateLayout = "02/01/2006"

// DefaultSupplier labels lots purchased without a supplier remark.
const DefaultSupplier = "RML"

// Resolve derives the deterministic SKU key of an RML lot from its
// purchase attributes. The same inputs always produce the same key, so
// a repeated purchase from the same supplier on the same day with the
// same grade tops up the existing lot instead of opening a new one.
func Resolve(remarks string, sbPercent types.Percent, purchaseDate time.Time) string {
	supplier := strings.TrimSpace(remarks)
	if supplier == "" {
		supplier = DefaultSupplier
	}
	return fmt.Sprintf("%s, %s%%, %s",
		supplier,
		sbPercent.String(),
		purchaseDate.Format(DateLayout),
	)
}

// Registry lists the RML lots currently known to the stock register.
type Registry struct {
	stockSvc *stock.Service
}

// NewRegistry creates a registry over the stock register.
func NewRegistry(stockSvc *stock.Service) *Registry {
	return &Registry{stockSvc: stockSvc}
}

// ListAvailable returns the lots with stock on hand, for input pickers.
func (r *Registry) ListAvailable(ctx context.Context) ([]stock.RMLLot, error) {
	summary, err := r.stockSvc.Summary(ctx)
	if err != nil {
		return nil, err
	}

	lots := make([]stock.RMLLot, 0, len(summary.RMLLots))
	for _, lot := range summary.RMLLots {
		if lot.Quantity.IsPositive() {
			lots = append(lots, lot)
		}
	}
	return lots, nil
}

// Lookup returns the current position of one lot by its key.
func (r *Registry) Lookup(ctx context.Context, key string) (entity.StockBalance, error) {
	return r.stockSvc.Available(ctx, entity.BucketKey{
		Material: entity.MaterialRML,
		SKU:      key,
	})
}
