package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricescout/internal"
)

var historyHeader = []string{
	"ID", "Title", "Listed price", "Search query", "Product type",
	"Market avg", "Market min", "Market max", "Data points",
	"Deal score", "Deal rating", "Recommendation", "Analyzed at",
}

// HistoryToXLSX writes the analysis history to an xlsx workbook, newest
// rows first, and returns the written path.
func HistoryToXLSX(rows []internal.AnalysisRow, outPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "History"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range historyHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return "", err
		}
	}

	for i, row := range rows {
		values := []any{
			row.ID, row.Title, row.Price, row.Query, row.ProductType,
			row.MarketAvg, row.MarketMin, row.MarketMax, row.DataPoints,
			row.DealScore, row.DealRating, row.Recommendation, row.CreatedAt,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", err
			}
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return outPath, nil
}
