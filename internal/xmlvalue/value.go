// =============================================================================
// Vision Connector - XML Value Codec
// =============================================================================
//
// This file converts typed scalar values (text, dates, decimals, integers
// and booleans) to and from the text used in Vision XML payloads.
//
// =============================================================================

// Package xmlvalue converts typed scalar values to and from the text
// representation used inside Vision XML payloads.
//
// Decoding never fails: malformed input resolves to the supplied default, or
// to a documented sentinel when no default is given.
package xmlvalue

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the case held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindDecimal
	KindInteger
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindDecimal:
		return "decimal"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	}
	return "unknown"
}

// DecimalPlaces is the precision decimals are rounded to on decode.
const DecimalPlaces = 4

// DateLayout is the wire layout for dates.
const DateLayout = "2006-01-02"

// MinDate is returned by DecodeDate when the input cannot be parsed and no
// default was supplied.
var MinDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order once any time-of-day suffix is removed.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"20060102",
}

// Value is a scalar field value. The zero Value is an empty text value.
type Value struct {
	kind    Kind
	text    string
	date    time.Time
	decimal decimal.Decimal
	integer int64
	boolean bool
}

// Text returns a text value. Text is written verbatim; escaping happens when
// the enclosing document is serialized.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date returns a date value. Only the UTC calendar date is kept.
func Date(t time.Time) Value { return Value{kind: KindDate, date: truncateDate(t)} }

// Decimal returns a decimal value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, decimal: d} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }

// Boolean returns a boolean value, encoded as "true" or "false".
func Boolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// Flag returns the Y/N text used by business record flags such as Posted or
// SuppressBill.
func Flag(b bool) Value {
	if b {
		return Text("Y")
	}
	return Text("N")
}

// Kind reports which case v holds.
func (v Value) Kind() Kind { return v.kind }

// Time returns the date held by v, or MinDate for other kinds.
func (v Value) Time() time.Time {
	if v.kind != KindDate {
		return MinDate
	}
	return v.date
}

// Dec returns the decimal held by v, or zero for other kinds.
func (v Value) Dec() decimal.Decimal {
	if v.kind != KindDecimal {
		return decimal.Zero
	}
	return v.decimal
}

// Int returns the integer held by v, or zero for other kinds.
func (v Value) Int() int64 {
	if v.kind != KindInteger {
		return 0
	}
	return v.integer
}

// Bool returns the boolean held by v, or false for other kinds.
func (v Value) Bool() bool {
	return v.kind == KindBoolean && v.boolean
}

// String returns the wire encoding of v.
func (v Value) String() string { return Encode(v) }

// Equal reports whether two values hold the same case and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindDate:
		return v.date.Equal(other.date)
	case KindDecimal:
		return v.decimal.Equal(other.decimal)
	case KindInteger:
		return v.integer == other.integer
	case KindBoolean:
		return v.boolean == other.boolean
	}
	return v.text == other.text
}

// Encode returns the wire text for v.
func Encode(v Value) string {
	switch v.kind {
	case KindDate:
		return v.date.Format(DateLayout)
	case KindDecimal:
		return v.decimal.String()
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	}
	return v.text
}

// Decode converts s to the requested kind. When s cannot be converted, def
// is returned; if def holds a different kind its zero-equivalent is used.
func Decode(s string, kind Kind, def Value) Value {
	switch kind {
	case KindDate:
		if def.kind == KindDate {
			return Date(DecodeDate(s, def.date))
		}
		return Date(DecodeDate(s))
	case KindDecimal:
		return Decimal(DecodeDecimal(s, def.Dec()))
	case KindInteger:
		return Integer(DecodeInt(s, def.Int()))
	case KindBoolean:
		return Boolean(DecodeBool(s, def.Bool()))
	}
	return Text(s)
}

// DecodeDate parses the calendar date in s, ignoring anything from a "T"
// separator onwards. On failure it returns def[0] when given, else MinDate.
func DecodeDate(s string, def ...time.Time) time.Time {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDate(t)
		}
	}
	if len(def) > 0 {
		return def[0]
	}
	return MinDate
}

// DecodeDecimal parses s and rounds it to DecimalPlaces. On failure def is
// returned, also rounded.
func DecodeDecimal(s string, def decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return def.Round(DecimalPlaces)
	}
	return d.Round(DecimalPlaces)
}

// DecodeInt parses s as a base 10 integer, returning def on failure.
func DecodeInt(s string, def int64) int64 {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return i
}

// DecodeBool accepts true/1/y and false/0/n in any case, returning def for
// anything else.
func DecodeBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "y", "yes":
		return true
	case "false", "0", "n", "no":
		return false
	}
	return def
}

// YesNo normalizes a record flag to "Y" or "N". A blank s is treated as
// absent and yields def, or "N" when def is empty.
func YesNo(s string, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		if def == "" {
			return "N"
		}
		return def
	}
	switch strings.ToLower(s) {
	case "true", "1", "y":
		return "Y"
	}
	return "N"
}

func truncateDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
