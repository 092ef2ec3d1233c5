package spreadsheet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

func rawValues(items []models.ReviewItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.RawValue)
	}
	return out
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Review"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Great"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "ignored"))
	require.NoError(t, f.SetCellInt("Sheet1", "A3", 42))
	require.NoError(t, f.SetCellValue("Sheet1", "B4", "no first column"))
	require.NoError(t, f.SetCellValue("Sheet1", "A5", "   "))
	require.NoError(t, f.SetCellValue("Sheet1", "A6", "Bad"))
	require.NoError(t, f.SaveAs(path))
}

func TestReadFileExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.xlsx")
	writeWorkbook(t, path)

	items, err := ReadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"Great", "42", "   ", "Bad"}, rawValues(items))
	for _, item := range items {
		assert.Equal(t, models.SourceSpreadsheet, item.SourceKind)
	}
}

func TestReadFileExcelWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.xlsx")
	writeWorkbook(t, path)

	items, err := ReadFile(path, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Review", "Great", "42", "   ", "Bad"}, rawValues(items))
}

func TestReadFileExcelUsesCanonicalCellText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	f := excelize.NewFile()

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	thousandsCode := "#,##0.00"
	thousands, err := f.NewStyle(&excelize.Style{CustomNumFmt: &thousandsCode})
	require.NoError(t, err)
	isoCode := "yyyy-mm-dd"
	isoDate, err := f.NewStyle(&excelize.Style{CustomNumFmt: &isoCode})
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue("Sheet1", "A1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellFloat("Sheet1", "A2", 0.25, -1, 64))
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A2", percent))
	require.NoError(t, f.SetCellBool("Sheet1", "A3", true))
	require.NoError(t, f.SetCellStr("Sheet1", "A4", "007"))
	require.NoError(t, f.SetCellFloat("Sheet1", "A5", 1234.5, -1, 64))
	require.NoError(t, f.SetCellStyle("Sheet1", "A5", "A5", thousands))
	require.NoError(t, f.SetCellInt("Sheet1", "A6", 45352))
	require.NoError(t, f.SetCellStyle("Sheet1", "A6", "A6", isoDate))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	items, err := ReadFile(path, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-03-01 00:00:00",
		"0.25",
		"True",
		"007",
		"1234.5",
		"2024-03-01 00:00:00",
	}, rawValues(items))
}

func TestIsDateFormatCode(t *testing.T) {
	assert.True(t, isDateFormatCode("yyyy-mm-dd"))
	assert.True(t, isDateFormatCode("[$-409]h:mm AM/PM"))
	assert.False(t, isDateFormatCode("#,##0.00"))
	assert.False(t, isDateFormatCode(`0.0 "days"`))
	assert.False(t, isDateFormatCode("[Red]0.00%"))
}

func TestReadCSVAndTSV(t *testing.T) {
	csvInput := "Review,Score\nnice,1\n\"multi, comma\",2\n,3\n"
	items, err := Read("upload.CSV", strings.NewReader(csvInput), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"nice", "multi, comma"}, rawValues(items))

	tsvInput := "Review\tScore\nfirst\t1\nsecond\t2\n"
	items, err = Read("upload.tsv", strings.NewReader(tsvInput), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, rawValues(items))
}

func TestReadRejectsUnknownType(t *testing.T) {
	_, err := Read("legacy.xls", strings.NewReader(""), true)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestReadCorruptWorkbook(t *testing.T) {
	_, err := Read("broken.xlsx", strings.NewReader("not a zip"), true)
	assert.Error(t, err)
}

func TestWriteReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review_sentiments.xlsx")
	table := models.ReportTable{
		{ReviewText: "Great product", SentimentLabel: "POSITIVE"},
		{ReviewText: "   ", SentimentLabel: models.LabelInvalid},
		{ReviewText: "Bad service", SentimentLabel: "Error: boom"},
	}

	require.NoError(t, WriteReport(path, table))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(REPORT_SHEET)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{COLUMN_REVIEW, COLUMN_SENTIMENT},
		{"Great product", "POSITIVE"},
		{"   ", models.LabelInvalid},
		{"Bad service", "Error: boom"},
	}, rows)

	items, err := ReadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Great product", "   ", "Bad service"}, rawValues(items))
}

func TestWriteReportOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review_sentiments.xlsx")

	require.NoError(t, WriteReport(path, models.ReportTable{
		{ReviewText: "one", SentimentLabel: "POSITIVE"},
		{ReviewText: "two", SentimentLabel: "NEGATIVE"},
	}))
	require.NoError(t, WriteReport(path, models.ReportTable{
		{ReviewText: "three", SentimentLabel: "NEGATIVE"},
	}))

	items, err := ReadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"three"}, rawValues(items))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteReportIsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review_sentiments.xlsx")
	require.NoError(t, WriteReport(path, models.ReportTable{{ReviewText: "ok", SentimentLabel: "POSITIVE"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(REPORT_FILE_MODE), info.Mode().Perm())
}

func TestWriteReportMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "review_sentiments.xlsx")
	assert.Error(t, WriteReport(path, models.NoInputReport()))
}

func TestTruncateCell(t *testing.T) {
	long := strings.Repeat("é", excelize.TotalCellChars+10)
	assert.Len(t, []rune(truncateCell(long)), excelize.TotalCellChars)
	assert.Equal(t, "short", truncateCell("short"))
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{name: "nil", input: nil, want: "", ok: false},
		{name: "string", input: "  spaced ", want: "  spaced ", ok: true},
		{name: "integral float", input: float64(5), want: "5", ok: true},
		{name: "fraction", input: 4.25, want: "4.25", ok: true},
		{name: "int", input: 12, want: "12", ok: true},
		{name: "bool", input: true, want: "True", ok: true},
		{name: "json number", input: json.Number("7.0"), want: "7.0", ok: true},
		{name: "time", input: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), want: "2024-03-01 09:30:00", ok: true},
		{name: "zero time", input: time.Time{}, want: "", ok: false},
		{name: "object", input: map[string]any{"a": 1.0}, want: `{"a":1}`, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CellString(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
