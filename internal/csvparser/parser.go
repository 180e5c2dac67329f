// =============================================================================
// Vision Connector - Expense File Parser
// =============================================================================
//
// This module parses the delimited expense exports dropped into the ingest
// directory. The default layout is the "*.expense" format: pipe delimited,
// one header row, then one expense line per row with the columns
//
//   Employee|TransDate|Description|WBS1|WBS2|WBS3|Account|Amount|Billable|Period|Company
//
// Billable is "X" for billable lines. Company may be omitted for databases
// without multi company.
//
// Rows that cannot be converted are collected as RowErrors instead of
// aborting the file, so that one report lists every problem.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/types"
	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

var logger = loggo.GetLogger("vision.csvparser")

// minFields is the number of columns a row needs; Company is optional.
const minFields = 10

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of parsing one file.
type Result struct {
	// Records holds the rows that converted cleanly, in file order.
	Records []types.ExpenseRecord

	// Errors holds one entry per rejected row.
	Errors []RowError

	// SourceFile is the path of the parsed file, empty for readers.
	SourceFile string
}

// RowError describes a row that could not be converted.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// HasErrors reports whether any row was rejected.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an expense file.
//
// PARAMETERS:
//   - filePath: The path to the export file.
//   - settings: The delimiter and header settings from the configuration.
//
// RETURNS:
//   - The parsed records and row errors.
//   - An error if the file cannot be opened or is not valid delimited text.
func Parse(filePath string, settings config.CSVSettings) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "opening expense file")
	}
	defer file.Close()

	result, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, errors.Annotatef(err, "parsing %s", filePath)
	}
	result.SourceFile = filePath
	logger.Debugf("parsed %s: %d records, %d rejected rows", filePath, len(result.Records), len(result.Errors))
	return result, nil
}

// ParseReader parses expense rows from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*Result, error) {
	reader := csv.NewReader(r)
	configureReader(reader, settings)

	result := &Result{}
	row := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Annotatef(err, "reading row %d", row+1)
		}
		row++

		// Skip header rows.
		if row <= settings.HeaderRows {
			continue
		}
		if isRowEmpty(fields) {
			continue
		}
		// Blank lines are not returned by the reader, so report the
		// line the row started on.
		line, _ := reader.FieldPos(0)
		record, err := RecordFromFields(fields, line)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: line, Err: err})
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = settings.DelimiterRune()

	// Rows are checked for their column count in RecordFromFields.
	reader.FieldsPerRecord = -1

	// Export tools do not quote descriptions consistently.
	reader.LazyQuotes = true

	// Leading space trimming would swallow empty tab separated columns.
	reader.TrimLeadingSpace = !unicode.IsSpace(reader.Comma)
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

// RecordFromFields converts one row of expense columns, in file order, into
// a record. Empty date, amount and period columns are left zero for
// validation to report; malformed ones are an error.
func RecordFromFields(fields []string, row int) (types.ExpenseRecord, error) {
	if len(fields) < minFields {
		return types.ExpenseRecord{}, errors.NotValidf("row with %d columns (want %d)", len(fields), len(types.Columns))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	col := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	record := types.ExpenseRecord{
		Employee:    col(0),
		Description: col(2),
		WBS1:        col(3),
		WBS2:        col(4),
		WBS3:        col(5),
		Account:     col(6),
		Billable:    strings.EqualFold(col(8), "X"),
		Company:     col(10),
		SourceRow:   row,
	}

	if s := col(1); s != "" {
		date := xmlvalue.DecodeDate(s, time.Time{})
		if date.IsZero() {
			return types.ExpenseRecord{}, errors.NotValidf("%s %q", types.ColTransDate, s)
		}
		record.TransDate = date
	}
	if s := col(7); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return types.ExpenseRecord{}, errors.NotValidf("%s %q", types.ColAmount, s)
		}
		record.Amount = amount
	}
	if s := col(9); s != "" {
		period, err := strconv.Atoi(s)
		if err != nil {
			return types.ExpenseRecord{}, errors.NotValidf("%s %q", types.ColPeriod, s)
		}
		record.Period = period
	}
	return record, nil
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
