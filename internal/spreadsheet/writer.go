package spreadsheet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

const (
	REPORT_SHEET     = "Sheet1"
	COLUMN_REVIEW    = "Review"
	COLUMN_SENTIMENT = "Sentiment"
	REPORT_FILE_MODE = 0o644
)

// WriteReport replaces the workbook at path with the report rows under a
// Review/Sentiment header. The file is written next to path and renamed over
// it, so readers never see a partial workbook.
func WriteReport(path string, table models.ReportTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(REPORT_SHEET, "A1", &[]any{COLUMN_REVIEW, COLUMN_SENTIMENT}); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address report row %d: %w", i, err)
		}
		values := []any{truncateCell(row.ReviewText), truncateCell(row.SentimentLabel)}
		if err := f.SetSheetRow(REPORT_SHEET, cell, &values); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i, err)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Chmod(REPORT_FILE_MODE); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}

	slog.Info("[Spreadsheet] Report written",
		slog.String("path", path),
		slog.Int("rows", len(table)))
	return nil
}

// truncateCell keeps a value within the per-cell character limit of the format.
func truncateCell(s string) string {
	runes := []rune(s)
	if len(runes) <= excelize.TotalCellChars {
		return s
	}
	return string(runes[:excelize.TotalCellChars])
}
