package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/roofscope/roofscope/internal/repository"
)

// Service produces XLSX bytes for persisted estimates.
type Service struct {
	estimates repository.EstimateRepository
	logger    *slog.Logger
}

func NewService(estimates repository.EstimateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{estimates: estimates, logger: logger}
}

// ExportEstimateXLSX returns an XLSX workbook (as bytes) with the estimate's
// line items and a summary block.
func (s *Service) ExportEstimateXLSX(ctx context.Context, orgID, estimateID uuid.UUID) ([]byte, error) {
	start := time.Now()

	est, err := s.estimates.GetByID(ctx, orgID, estimateID)
	if err != nil {
		return nil, fmt.Errorf("query estimate: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Estimate"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Description",
		"Category",
		"Qty",
		"Unit",
		"RCV",
		"Labor",
		"Matched",
		"Supplier",
		"SKU",
		"Unit Price",
		"Total Price",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, item := range est.Result.Items {
		write(1, row, truncate(item.Description, 140))
		write(2, row, item.Category)
		write(3, row, item.Quantity)
		write(4, row, item.Unit)
		write(5, row, item.RCV)
		write(6, row, yesNo(item.IsLabor))
		write(7, row, yesNo(item.Matched))
		if item.Supplier != nil {
			write(8, row, *item.Supplier)
		}
		if item.SKU != nil {
			write(9, row, *item.SKU)
		}
		if item.UnitPrice != nil {
			write(10, row, *item.UnitPrice)
		}
		write(11, row, item.TotalPrice)
		row++
	}

	// Summary block, one blank row below the items.
	row++
	summary := []struct {
		label string
		value any
	}{
		{"Total RCV", est.Result.TotalRCV},
		{"Material Cost", est.Result.MaterialCost},
		{"Labor Cost", est.Result.LaborCost},
		{"Profit", est.Result.Profit},
		{"Margin", fmt.Sprintf("%.1f%%", est.Result.Margin*100)},
		{"Primary Supplier", est.Result.PrimarySupplier},
		{"Status", string(est.Status)},
	}
	for _, line := range summary {
		write(1, row, line.label)
		write(2, row, line.value)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // description
	_ = f.SetColWidth(sheet, "B", "B", 18) // category
	_ = f.SetColWidth(sheet, "C", "D", 8)
	_ = f.SetColWidth(sheet, "E", "E", 12)
	_ = f.SetColWidth(sheet, "H", "I", 16)
	_ = f.SetColWidth(sheet, "J", "K", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"estimate_id", estimateID.String(),
		"rows", len(est.Result.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
