package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

// ReadFile loads the first column of the first sheet of an .xlsx/.xlsm file
// or of a .csv/.tsv file. Empty cells are skipped; everything else is kept
// as text in sheet order.
func ReadFile(path string, hasHeader bool) ([]models.ReviewItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f, hasHeader)
}

// Read routes on the file name suffix, like an upload would.
func Read(name string, r io.Reader, hasHeader bool) ([]models.ReviewItem, error) {
	lower := strings.ToLower(name)

	var column []string
	var err error
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		column, err = readExcelColumn(r)
	case strings.HasSuffix(lower, ".csv"):
		column, err = readDelimitedColumn(r, ',')
	case strings.HasSuffix(lower, ".tsv"):
		column, err = readDelimitedColumn(r, '\t')
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if err != nil {
		return nil, err
	}

	if hasHeader && len(column) > 0 {
		column = column[1:]
	}

	items := make([]models.ReviewItem, 0, len(column))
	for _, cell := range column {
		if cell == "" {
			continue
		}
		items = append(items, models.NewReviewItem(cell, models.SourceSpreadsheet))
	}

	slog.Debug("[Spreadsheet] Read reviews from file",
		slog.String("file", name),
		slog.Int("reviews", len(items)))

	return items, nil
}

// readExcelColumn returns the first column of the first sheet, one entry per
// row (missing cells come back as ""). Cells are read raw and rendered by
// excelCellString, so the sheet's number formats do not leak into reviews.
func readExcelColumn(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in Excel file")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	column := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || row[0] == "" {
			column = append(column, "")
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address Excel row %d: %w", i+1, err)
		}
		column = append(column, excelCellString(f, sheet, axis, row[0], date1904))
	}
	return column, nil
}

// excelCellString maps a raw cell value to the same canonical text CellString
// produces: booleans as True/False, numbers without formatting, date-styled
// numbers as timestamps. Text cells are returned unchanged.
func excelCellString(f *excelize.File, sheet, axis, raw string, date1904 bool) string {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeBool:
		s, _ := CellString(raw == "1" || strings.EqualFold(raw, "true"))
		return s
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
	default:
		return raw
	}

	number, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}

	if isDateStyled(f, sheet, axis) {
		if t, err := excelize.ExcelDateToTime(number, date1904); err == nil {
			if s, ok := CellString(t); ok {
				return s
			}
		}
	}

	s, _ := CellString(number)
	return s
}

// Built-in number format ids that render a date or time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func isDateStyled(f *excelize.File, sheet, axis string) bool {
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormats[style.NumFmt]
}

// isDateFormatCode reports whether a custom format code contains date or time
// tokens outside quoted literals and [..] sections.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}

func readDelimitedColumn(r io.Reader, comma rune) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var column []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if len(record) == 0 {
			column = append(column, "")
			continue
		}
		column = append(column, record[0])
	}
	return column, nil
}
