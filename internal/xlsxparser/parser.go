// =============================================================================
// Vision Connector - XLSX Expense Parser
// =============================================================================
//
// This module reads expense lines from an Excel workbook. Some departments
// keep their expense sheets in Excel instead of exporting "*.expense" files;
// the workbook carries the same columns as the delimited format:
//
//   | Employee | TransDate  | Description | WBS1       | WBS2 | WBS3 | Account | Amount | Billable | Period | Company |
//   |----------|------------|-------------|------------|------|------|---------|--------|----------|--------|---------|
//   | 00001    | 2024-03-04 | Hotel       | 1998001.00 | 1PD  |      | 521.00  | 100.00 | X        | 202403 |         |
//
// The first row is a header. Columns are matched by header name, in any
// order and case; a sheet whose header names no known column is read by
// position. Sheets whose name starts with "_" are skipped, and the first
// remaining sheet is read.
//
// =============================================================================

package xlsxparser

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/vision-connector/internal/csvparser"
	"github.com/ginjaninja78/vision-connector/internal/types"
)

var logger = loggo.GetLogger("vision.xlsxparser")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the expense sheet of a workbook.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//
// RETURNS:
//   - The parsed records and row errors, in the same shape as the
//     delimited parser returns them.
//   - An error if the workbook cannot be opened or has no expense sheet.
func Parse(path string) (*csvparser.Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening workbook")
	}
	defer f.Close()

	result, err := ParseFile(f)
	if err != nil {
		return nil, errors.Annotatef(err, "parsing %s", path)
	}
	result.SourceFile = path
	logger.Debugf("parsed %s: %d records, %d rejected rows", path, len(result.Records), len(result.Errors))
	return result, nil
}

// ParseFile reads the expense sheet of an open workbook.
func ParseFile(f *excelize.File) (*csvparser.Result, error) {
	sheet := expenseSheet(f)
	if sheet == "" {
		return nil, errors.NotFoundf("expense sheet")
	}

	// Raw values keep dates as serial numbers instead of whatever display
	// format the sheet uses.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Annotatef(err, "reading sheet %q", sheet)
	}
	if len(rows) == 0 {
		return &csvparser.Result{}, nil
	}

	cols := columnIndex(rows[0])
	result := &csvparser.Result{}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}
		fields := make([]string, len(types.Columns))
		for pos, col := range cols {
			if col >= 0 && col < len(row) {
				fields[pos] = row[col]
			}
		}
		fields[1] = excelDate(fields[1])
		record, err := csvparser.RecordFromFields(fields, i+1)
		if err != nil {
			result.Errors = append(result.Errors, csvparser.RowError{Row: i + 1, Err: err})
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

// expenseSheet returns the first sheet not prefixed with "_".
func expenseSheet(f *excelize.File) string {
	for _, name := range f.GetSheetList() {
		if !strings.HasPrefix(name, "_") {
			return name
		}
	}
	return ""
}

// columnIndex returns, for each entry of types.Columns, the sheet column
// holding it or -1.
func columnIndex(header []string) []int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(types.Columns))
	matched := 0
	for pos, name := range types.Columns {
		col, ok := byName[strings.ToLower(name)]
		if !ok {
			col = -1
		} else {
			matched++
		}
		cols[pos] = col
	}
	if matched == 0 {
		// No recognisable header: read by position.
		for pos := range cols {
			cols[pos] = pos
		}
	}
	return cols
}

// excelDate converts a date serial to the canonical layout. Text dates are
// returned unchanged.
func excelDate(raw string) string {
	raw = strings.TrimSpace(raw)
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Format(types.DateLayout)
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
