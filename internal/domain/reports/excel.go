package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"leadtrack/internal/domain/entries"
)

const sheetName = "Sheet1"

// ExportRefiningExcel writes the refining journal as an xlsx workbook,
// one row per batch.
func (s *Service) ExportRefiningExcel(ctx context.Context, w io.Writer, filter entries.ListFilter) error {
	list, err := s.ledger.ListRefining(ctx, journalFilter(filter))
	if err != nil {
		return fmt.Errorf("list refining: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{
		"Date", "User", "Batch", "Input Source", "SB %",
		"Ingot Kg", "Ingot Pcs",
		"Initial Dross", "2nd Dross", "3rd Dross", "Cu Dross", "Sn Dross", "Sb Dross",
		"Pure Lead Kg", "Pure Lead Pcs", "Recovery %", "Comment",
	}
	writeHeaderRow(f, headers)

	row := 2
	for _, e := range list {
		for _, b := range e.Batches {
			sb := ""
			if b.SBPercentage != nil {
				sb = b.SBPercentage.String()
			}
			writeRow(f, row, []any{
				e.Timestamp.Format("02/01/2006"),
				e.UserName,
				b.BatchNo,
				b.InputSource.Label(),
				sb,
				b.LeadIngotKg.Float64(),
				b.LeadIngotPieces,
				b.InitialDrossKg.Float64(),
				b.SecondDrossKg.Float64(),
				b.ThirdDrossKg.Float64(),
				b.CuDrossKg.Float64(),
				b.SnDrossKg.Float64(),
				b.SbDrossKg.Float64(),
				b.PureLeadKg.Float64(),
				b.PureLeadPieces,
				b.RecoveryPercent.Float64(),
				e.Comment,
			})
			row++
		}
	}

	return f.Write(w)
}

// ExportRecyclingExcel writes the recycling journal, one row per batch.
func (s *Service) ExportRecyclingExcel(ctx context.Context, w io.Writer, filter entries.ListFilter) error {
	list, err := s.ledger.ListRecycling(ctx, journalFilter(filter))
	if err != nil {
		return fmt.Errorf("list recycling: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	writeHeaderRow(f, []string{
		"Date", "User", "Batch", "Battery Type", "Battery Kg",
		"Recovery %", "Receivable Kg", "Comment",
	})

	row := 2
	for _, e := range list {
		for _, b := range e.Batches {
			writeRow(f, row, []any{
				e.Timestamp.Format("02/01/2006"),
				e.UserName,
				b.BatchNo,
				string(b.BatteryType),
				b.BatteryKg.Float64(),
				b.RecoveryPercent.Float64(),
				b.ReceivableKg.Float64(),
				e.Comment,
			})
			row++
		}
	}

	return f.Write(w)
}

// ExportSalesExcel writes the sales journal.
func (s *Service) ExportSalesExcel(ctx context.Context, w io.Writer, filter entries.ListFilter) error {
	list, err := s.ledger.ListSale(ctx, journalFilter(filter))
	if err != nil {
		return fmt.Errorf("list sales: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	writeHeaderRow(f, []string{
		"Date", "User", "Party", "SKU", "Quantity Kg", "Pieces", "Comment",
	})

	for i, e := range list {
		writeRow(f, i+2, []any{
			e.Timestamp.Format("02/01/2006"),
			e.UserName,
			e.PartyName,
			e.SKUType,
			e.QuantityKg.Float64(),
			e.Pieces,
			e.Comment,
		})
	}

	return f.Write(w)
}

func writeHeaderRow(f *excelize.File, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
}

func writeRow(f *excelize.File, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheetName, cell, v)
	}
}
