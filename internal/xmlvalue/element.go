// =============================================================================
// Vision Connector - Element Readers
// =============================================================================
//
// This file reads typed values from the children of a record element.
//
// =============================================================================

package xmlvalue

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// childText returns the text of the named child of el and whether the child
// exists.
func childText(el *etree.Element, name string) (string, bool) {
	if el == nil {
		return "", false
	}
	child := el.SelectElement(name)
	if child == nil {
		return "", false
	}
	return child.Text(), true
}

// ElementString returns the text of the named child, or def when absent.
func ElementString(el *etree.Element, name, def string) string {
	if s, ok := childText(el, name); ok {
		return s
	}
	return def
}

// ElementDate decodes the named child as a date.
func ElementDate(el *etree.Element, name string, def ...time.Time) time.Time {
	s, _ := childText(el, name)
	return DecodeDate(s, def...)
}

// ElementDecimal decodes the named child as a decimal.
func ElementDecimal(el *etree.Element, name string, def decimal.Decimal) decimal.Decimal {
	s, _ := childText(el, name)
	return DecodeDecimal(s, def)
}

// ElementInt decodes the named child as an integer.
func ElementInt(el *etree.Element, name string, def int64) int64 {
	s, _ := childText(el, name)
	return DecodeInt(s, def)
}

// ElementBool decodes the named child as a boolean.
func ElementBool(el *etree.Element, name string, def bool) bool {
	s, _ := childText(el, name)
	return DecodeBool(s, def)
}

// ElementYesNo reads the named child as a Y/N flag. A missing child yields
// def.
func ElementYesNo(el *etree.Element, name, def string) string {
	s, ok := childText(el, name)
	if !ok {
		return YesNo("", def)
	}
	if strings.TrimSpace(s) == "" {
		return "N"
	}
	return YesNo(s, def)
}
