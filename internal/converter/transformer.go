// =============================================================================
// Vision Connector - Field Transformations
// =============================================================================
//
// Expense exports rarely use Vision's own key formats. Employee numbers lose
// their leading zeros in spreadsheets, project codes come without the ".00"
// suffix and accounts are exported with a ledger prefix. Transformation rules
// in the configuration rewrite those columns before the records are
// validated:
//
//   transformation_rules:
//     - field: Employee
//       actions:
//         - type: pad_zeros_to_length
//           value: "5"
//     - field: WBS1
//       actions:
//         - type: regex_replace
//           find: "^(\\d+)$"
//           value: "${1}.00"
//
// Rules operate on the textual column values. After a record has been
// rewritten it is parsed again, so a rule that produces an invalid date or
// amount is reported like a bad input row.
//
// =============================================================================

package converter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/csvparser"
	"github.com/ginjaninja78/vision-connector/internal/types"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the configured rules to expense records.
type Transformer struct {
	rules map[string][]config.TransformationAction
}

// NewTransformer creates a Transformer for rules. Rules naming the same
// field are applied in configuration order.
func NewTransformer(rules []config.TransformationRule) *Transformer {
	t := &Transformer{rules: make(map[string][]config.TransformationAction)}
	for _, rule := range rules {
		t.rules[rule.Field] = append(t.rules[rule.Field], rule.Actions...)
	}
	return t
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// Transform applies the rules for one field.
//
// PARAMETERS:
//   - fieldName: The expense column being transformed.
//   - value: The current value of the column.
//   - allFields: Every column of the record, for if_empty_use_field.
//
// RETURNS:
//   - The transformed value.
//   - An error if an action is unknown or malformed.
func (t *Transformer) Transform(fieldName, value string, allFields map[string]string) (string, error) {
	result := value
	for _, action := range t.rules[fieldName] {
		var err error
		result, err = ApplyTransformation(result, action, allFields)
		if err != nil {
			return "", errors.Annotatef(err, "transformation %q", action.Type)
		}
	}
	return result, nil
}

// TransformRecord rewrites the columns of r that have rules.
func (t *Transformer) TransformRecord(r *types.ExpenseRecord) error {
	if t.Empty() {
		return nil
	}
	fields := r.Fields()
	values := make([]string, len(types.Columns))
	for i, col := range types.Columns {
		value, err := t.Transform(col, fields[col], fields)
		if err != nil {
			return errors.Annotatef(err, "row %d field %s", r.SourceRow, col)
		}
		values[i] = value
	}

	record, err := csvparser.RecordFromFields(values, r.SourceRow)
	if err != nil {
		return errors.Annotatef(err, "row %d after transformation", r.SourceRow)
	}
	*r = record
	return nil
}

// TransformRecords applies TransformRecord to every record and collects the
// failures by row.
func (t *Transformer) TransformRecords(records []types.ExpenseRecord) []csvparser.RowError {
	var errs []csvparser.RowError
	for i := range records {
		if err := t.TransformRecord(&records[i]); err != nil {
			errs = append(errs, csvparser.RowError{Row: records[i].SourceRow, Err: err})
		}
	}
	return errs
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

var (
	digitsRe       = regexp.MustCompile(`\d+`)
	lettersRe      = regexp.MustCompile(`[a-zA-Z]+`)
	specialCharsRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ApplyTransformation applies a single transformation action.
//
// SUPPORTED TRANSFORMATIONS:
//   - prepend_string, append_string, replace, regex_replace, substring
//   - trim, trim_left, trim_right, uppercase, lowercase
//   - pad_zeros_to_length, pad_spaces_to_length, ensure_length,
//     remove_leading_zeros, format_number, format_currency
//   - format_date ("input_layout|output_layout", Go time layouts)
//   - lookup, lookup_with_default
//   - if_empty_use_default, if_empty_use_field
//   - extract_digits, extract_letters, remove_special_chars,
//     normalize_whitespace
func ApplyTransformation(value string, action config.TransformationAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", errors.NotValidf("regex pattern %q", action.Find)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "substring":
		// Value is "start,end", end exclusive.
		parts := strings.Split(action.Value, ",")
		if len(parts) != 2 {
			return "", errors.NotValidf("substring range %q", action.Value)
		}
		start, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		if start < 0 {
			start = 0
		}
		if end > len(value) {
			end = len(value)
		}
		if start >= end {
			return "", nil
		}
		return value[start:end], nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		length, err := positive(action.Value)
		if err != nil {
			return "", err
		}
		return PadLeft(value, length, '0'), nil

	case "pad_spaces_to_length":
		length, err := positive(action.Value)
		if err != nil {
			return "", err
		}
		return PadRight(value, length, ' '), nil

	case "ensure_length":
		length, err := positive(action.Value)
		if err != nil {
			return "", err
		}
		if len(value) > length {
			return value[:length], nil
		}
		return PadLeft(value, length, '0'), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	case "format_number":
		places, err := strconv.Atoi(action.Value)
		if err != nil || places < 0 {
			return "", errors.NotValidf("decimal places %q", action.Value)
		}
		num, err := decimal.NewFromString(value)
		if err != nil {
			return value, nil
		}
		return num.StringFixed(int32(places)), nil

	case "format_currency":
		num, err := decimal.NewFromString(strings.NewReplacer("$", "", ",", "").Replace(value))
		if err != nil {
			return value, nil
		}
		return num.StringFixed(2), nil

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		parts := strings.Split(action.Value, "|")
		if len(parts) != 2 {
			return "", errors.NotValidf("date layouts %q", action.Value)
		}
		t, err := time.Parse(strings.TrimSpace(parts[0]), value)
		if err != nil {
			// Leave it for the record parser to report.
			return value, nil
		}
		return t.Format(strings.TrimSpace(parts[1])), nil

	// =========================================================================
	// LOOKUPS AND DEFAULTS
	// =========================================================================

	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return action.Value, nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if other, ok := allFields[action.Value]; ok {
				return other, nil
			}
		}
		return value, nil

	// =========================================================================
	// CLEANUP
	// =========================================================================

	case "extract_digits":
		return strings.Join(digitsRe.FindAllString(value, -1), ""), nil

	case "extract_letters":
		return strings.Join(lettersRe.FindAllString(value, -1), ""), nil

	case "remove_special_chars":
		return specialCharsRe.ReplaceAllString(value, ""), nil

	case "normalize_whitespace":
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " ")), nil

	default:
		return "", errors.NotSupportedf("transformation type %q", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.NotValidf("length %q", s)
	}
	return n, nil
}

// PadLeft pads s with padChar on the left to length.
func PadLeft(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}

// PadRight pads s with padChar on the right to length.
func PadRight(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(string(padChar), length-len(s))
}
