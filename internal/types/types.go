// =============================================================================
// Vision Connector - Shared Types
// =============================================================================
//
// This package contains the types shared by the ingestion modules so that
// they do not import each other. Types defined here are used by:
//   - csvparser and xlsxparser (producers)
//   - validation
//   - converter
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXPENSE RECORDS
// =============================================================================

// ExpenseRecord is one expense line read from an export file.
type ExpenseRecord struct {
	// Employee is the Vision employee number. Records are grouped into one
	// expense report per employee.
	Employee string

	// TransDate is the date the expense was incurred.
	TransDate time.Time

	Description string

	// WBS1, WBS2 and WBS3 identify the project, phase and task.
	WBS1 string
	WBS2 string
	WBS3 string

	Account string

	Amount decimal.Decimal

	// Billable is set when the export marks the line with "X".
	Billable bool

	// Period is the accounting period, for example 202403.
	Period int

	// Company is empty for databases without multi company.
	Company string

	// SourceRow is the 1-based line or row number in the input file.
	// Useful for error reporting.
	SourceRow int
}

// Fields returns the record as a field map keyed by column name. The map is
// what transformation rules and validation conditions operate on.
func (r ExpenseRecord) Fields() map[string]string {
	billable := ""
	if r.Billable {
		billable = "X"
	}
	date := ""
	if !r.TransDate.IsZero() {
		date = r.TransDate.Format(DateLayout)
	}
	return map[string]string{
		ColEmployee:    r.Employee,
		ColTransDate:   date,
		ColDescription: r.Description,
		ColWBS1:        r.WBS1,
		ColWBS2:        r.WBS2,
		ColWBS3:        r.WBS3,
		ColAccount:     r.Account,
		ColAmount:      r.Amount.String(),
		ColBillable:    billable,
		ColPeriod:      itoa(r.Period),
		ColCompany:     r.Company,
	}
}

// =============================================================================
// COLUMN LAYOUT
// =============================================================================

// Column names of an expense export, in file order.
const (
	ColEmployee    = "Employee"
	ColTransDate   = "TransDate"
	ColDescription = "Description"
	ColWBS1        = "WBS1"
	ColWBS2        = "WBS2"
	ColWBS3        = "WBS3"
	ColAccount     = "Account"
	ColAmount      = "Amount"
	ColBillable    = "Billable"
	ColPeriod      = "Period"
	ColCompany     = "Company"
)

// Columns lists the expense columns in the order they appear in a file.
var Columns = []string{
	ColEmployee,
	ColTransDate,
	ColDescription,
	ColWBS1,
	ColWBS2,
	ColWBS3,
	ColAccount,
	ColAmount,
	ColBillable,
	ColPeriod,
	ColCompany,
}

// DateLayout is the canonical date layout used when a record is rendered
// as text.
const DateLayout = "2006-01-02"

func itoa(i int) string {
	if i == 0 {
		return ""
	}
	return decimal.NewFromInt(int64(i)).String()
}
