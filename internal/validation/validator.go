// =============================================================================
// Vision Connector - Expense Validation
// =============================================================================
//
// This module checks parsed expense records before they are sent to Vision.
// Vision rejects a whole transaction batch when one line is wrong, so every
// problem is collected up front and reported together.
//
// VALIDATION STRATEGY:
//   1. Field-level: required columns, Vision column sizes, period format
//   2. Batch-level: one period and one company per file, because the batch
//      control row carries a single value for each
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the source row, field and value
//   - Warnings are reported but do not stop the upload unless
//     TreatWarningsAsErrors is set
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequired  = "required"
	RuleMaxLength = "max_length"
	RulePeriod    = "period"
	RuleAmount    = "amount"
	RuleSameBatch = "same_batch"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the expense column that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the row in the source file.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors, including warnings.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	RecordsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// MaxLengths are the Vision column sizes of the expense tables.
var MaxLengths = map[string]int{
	types.ColEmployee:    20,
	types.ColDescription: 255,
	types.ColWBS1:        30,
	types.ColWBS2:        7,
	types.ColWBS3:        7,
	types.ColAccount:     13,
	types.ColCompany:     14,
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings fatal.
	TreatWarningsAsErrors bool
}

// Validator validates expense records.
type Validator struct {
	options ValidationOptions
}

// NewValidator returns a Validator with the given options.
func NewValidator(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Validate checks records with default options and returns the problems
// found.
func Validate(records []types.ExpenseRecord) []*ValidationError {
	return NewValidator(ValidationOptions{}).ValidateAll(records).Errors
}

// ValidateAll validates every record and the batch as a whole.
func (v *Validator) ValidateAll(records []types.ExpenseRecord) *ValidationResult {
	result := &ValidationResult{}
	add := func(errs []*ValidationError) bool {
		for _, e := range errs {
			if v.options.TreatWarningsAsErrors {
				e.Severity = SeverityError
			}
			result.Errors = append(result.Errors, e)
			if e.Severity == SeverityError {
				result.ErrorCount++
			} else {
				result.WarningCount++
			}
		}
		return v.options.StopOnFirstError && result.ErrorCount > 0
	}

	for i := range records {
		result.RecordsValidated++
		if add(v.ValidateRecord(&records[i])) {
			break
		}
	}
	if !v.options.StopOnFirstError || result.ErrorCount == 0 {
		add(validateBatch(records))
	}
	result.IsValid = result.ErrorCount == 0
	return result
}

// ValidateRecord validates the fields of one record.
func (v *Validator) ValidateRecord(r *types.ExpenseRecord) []*ValidationError {
	var errs []*ValidationError
	fail := func(severity, field, value, rule, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   fmt.Sprintf(format, args...),
			RowNumber: r.SourceRow,
		})
	}

	required := []struct{ field, value string }{
		{types.ColEmployee, r.Employee},
		{types.ColWBS1, r.WBS1},
		{types.ColAccount, r.Account},
	}
	for _, req := range required {
		if req.value == "" {
			fail(SeverityError, req.field, "", RuleRequired, "field is required")
		}
	}
	if r.TransDate.IsZero() {
		fail(SeverityError, types.ColTransDate, "", RuleRequired, "field is required")
	}

	fields := r.Fields()
	for _, col := range types.Columns {
		limit, ok := MaxLengths[col]
		if !ok {
			continue
		}
		if value := fields[col]; len([]rune(value)) > limit {
			fail(SeverityError, col, value, RuleMaxLength, "exceeds maximum length of %d characters", limit)
		}
	}

	if msg := validatePeriod(r.Period); msg != "" {
		fail(SeverityError, types.ColPeriod, fields[types.ColPeriod], RulePeriod, "%s", msg)
	}
	if r.Amount.IsZero() {
		fail(SeverityWarning, types.ColAmount, r.Amount.String(), RuleAmount, "amount is zero")
	} else if !r.Amount.Equal(r.Amount.Round(2)) {
		fail(SeverityWarning, types.ColAmount, r.Amount.String(), RuleAmount, "amount has more than 2 decimal places and will be rounded")
	}
	return errs
}

// validatePeriod checks a YYYYMM accounting period.
func validatePeriod(period int) string {
	if period == 0 {
		return "field is required"
	}
	s := strconv.Itoa(period)
	if len(s) != 6 {
		return "period must be in YYYYMM format"
	}
	month := period % 100
	if month < 1 || month > 12 {
		return fmt.Sprintf("period month %d is not between 1 and 12", month)
	}
	return ""
}

// validateBatch checks that all records share one period and one company.
func validateBatch(records []types.ExpenseRecord) []*ValidationError {
	if len(records) == 0 {
		return nil
	}
	var errs []*ValidationError
	first := records[0]
	for _, r := range records[1:] {
		if r.Period != first.Period {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				Field:     types.ColPeriod,
				Value:     strconv.Itoa(r.Period),
				Rule:      RuleSameBatch,
				Message:   fmt.Sprintf("period differs from %d on row %d", first.Period, first.SourceRow),
				RowNumber: r.SourceRow,
			})
		}
		if r.Company != first.Company {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				Field:     types.ColCompany,
				Value:     r.Company,
				Rule:      RuleSameBatch,
				Message:   fmt.Sprintf("company differs from %q on row %d", first.Company, first.SourceRow),
				RowNumber: r.SourceRow,
			})
		}
	}
	return errs
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// WriteErrorLog writes validation errors to filePath.
func WriteErrorLog(errs []*ValidationError, filePath string) error {
	err := os.WriteFile(filePath, []byte(FormatErrors(errs)), 0644)
	return errors.Annotatef(err, "writing error log %s", filePath)
}
