package converter_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/converter"
	"github.com/ginjaninja78/vision-connector/internal/types"
)

type transformerSuite struct{}

var _ = gc.Suite(&transformerSuite{})

func (s *transformerSuite) TestApplyTransformation(c *gc.C) {
	fields := map[string]string{types.ColWBS2: "1PD"}
	tests := []struct {
		action config.TransformationAction
		in     string
		out    string
	}{
		{config.TransformationAction{Type: "prepend_string", Value: "E"}, "123", "E123"},
		{config.TransformationAction{Type: "append_string", Value: ".00"}, "1998001", "1998001.00"},
		{config.TransformationAction{Type: "trim"}, "  x ", "x"},
		{config.TransformationAction{Type: "trim_left", Value: "0"}, "00120", "120"},
		{config.TransformationAction{Type: "trim_right"}, "x  ", "x"},
		{config.TransformationAction{Type: "uppercase"}, "abc", "ABC"},
		{config.TransformationAction{Type: "lowercase"}, "ABC", "abc"},
		{config.TransformationAction{Type: "replace", Find: "-", Value: "."}, "521-00", "521.00"},
		{config.TransformationAction{Type: "regex_replace", Find: `^(\d+)$`, Value: "${1}.00"}, "1998001", "1998001.00"},
		{config.TransformationAction{Type: "substring", Value: "2,5"}, "ABCDEFGH", "CDE"},
		{config.TransformationAction{Type: "substring", Value: "6,9"}, "ABC", ""},
		{config.TransformationAction{Type: "pad_zeros_to_length", Value: "5"}, "7", "00007"},
		{config.TransformationAction{Type: "pad_spaces_to_length", Value: "3"}, "a", "a  "},
		{config.TransformationAction{Type: "ensure_length", Value: "4"}, "123456", "1234"},
		{config.TransformationAction{Type: "ensure_length", Value: "4"}, "12", "0012"},
		{config.TransformationAction{Type: "remove_leading_zeros"}, "000", "0"},
		{config.TransformationAction{Type: "remove_leading_zeros"}, "", ""},
		{config.TransformationAction{Type: "format_number", Value: "2"}, "1234.5", "1234.50"},
		{config.TransformationAction{Type: "format_number", Value: "2"}, "n/a", "n/a"},
		{config.TransformationAction{Type: "format_currency"}, "$1,234.5", "1234.50"},
		{config.TransformationAction{Type: "format_date", Value: "01/02/2006|2006-01-02"}, "03/04/2024", "2024-03-04"},
		{config.TransformationAction{Type: "format_date", Value: "01/02/2006|2006-01-02"}, "2024-03-04", "2024-03-04"},
		{config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"TRV": "521.00"}}, "TRV", "521.00"},
		{config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"TRV": "521.00"}}, "OTH", "OTH"},
		{config.TransformationAction{Type: "lookup_with_default", Value: "599.00"}, "OTH", "599.00"},
		{config.TransformationAction{Type: "if_empty_use_default", Value: "X"}, " ", "X"},
		{config.TransformationAction{Type: "if_empty_use_field", Value: types.ColWBS2}, "", "1PD"},
		{config.TransformationAction{Type: "if_empty_use_field", Value: types.ColWBS2}, "2PD", "2PD"},
		{config.TransformationAction{Type: "extract_digits"}, "E-001-2", "0012"},
		{config.TransformationAction{Type: "extract_letters"}, "E-001-X", "EX"},
		{config.TransformationAction{Type: "remove_special_chars"}, "a.b-c", "abc"},
		{config.TransformationAction{Type: "normalize_whitespace"}, " a   b ", "a b"},
	}
	for i, test := range tests {
		c.Logf("test %d: %s %q", i, test.action.Type, test.in)
		out, err := converter.ApplyTransformation(test.in, test.action, fields)
		c.Check(err, jc.ErrorIsNil)
		c.Check(out, gc.Equals, test.out)
	}
}

func (s *transformerSuite) TestApplyTransformationErrors(c *gc.C) {
	_, err := converter.ApplyTransformation("x", config.TransformationAction{Type: "explode"}, nil)
	c.Assert(err, gc.ErrorMatches, `transformation type "explode" not supported`)
	c.Assert(errors.Is(err, errors.NotSupported), jc.IsTrue)

	_, err = converter.ApplyTransformation("x", config.TransformationAction{Type: "regex_replace", Find: "("}, nil)
	c.Assert(err, gc.ErrorMatches, `regex pattern "\(" not valid`)

	_, err = converter.ApplyTransformation("x", config.TransformationAction{Type: "pad_zeros_to_length", Value: "five"}, nil)
	c.Assert(err, gc.ErrorMatches, `length "five" not valid`)
}

func (s *transformerSuite) TestTransformRecord(c *gc.C) {
	t := converter.NewTransformer([]config.TransformationRule{{
		Field:   types.ColEmployee,
		Actions: []config.TransformationAction{{Type: "pad_zeros_to_length", Value: "5"}},
	}, {
		Field: types.ColAccount,
		Actions: []config.TransformationAction{{
			Type:        "lookup",
			LookupTable: map[string]string{"TRAVEL": "521.00"},
		}},
	}, {
		Field:   types.ColEmployee,
		Actions: []config.TransformationAction{{Type: "prepend_string", Value: "E"}},
	}})
	c.Assert(t.Empty(), jc.IsFalse)

	r := expense("7", 4, "12.5", true)
	r.Account = "TRAVEL"
	r.SourceRow = 3
	c.Assert(t.TransformRecord(&r), jc.ErrorIsNil)
	c.Assert(r.Employee, gc.Equals, "E00007")
	c.Assert(r.Account, gc.Equals, "521.00")
	c.Assert(r.TransDate, gc.Equals, day(4))
	c.Assert(r.Amount.String(), gc.Equals, "12.5")
	c.Assert(r.Billable, jc.IsTrue)
	c.Assert(r.Period, gc.Equals, 202403)
	c.Assert(r.SourceRow, gc.Equals, 3)
}

func (s *transformerSuite) TestTransformRecordsCollectsErrors(c *gc.C) {
	t := converter.NewTransformer([]config.TransformationRule{{
		Field:   types.ColAmount,
		Actions: []config.TransformationAction{{Type: "append_string", Value: "EUR"}},
	}})
	records := []types.ExpenseRecord{expense("00001", 4, "10", false)}
	records[0].SourceRow = 2

	errs := t.TransformRecords(records)
	c.Assert(errs, gc.HasLen, 1)
	c.Assert(errs[0].Error(), gc.Equals, `row 2: row 2 after transformation: Amount "10EUR" not valid`)
}

func (s *transformerSuite) TestNoRules(c *gc.C) {
	t := converter.NewTransformer(nil)
	c.Assert(t.Empty(), jc.IsTrue)
	r := expense("00001", 4, "10", false)
	c.Assert(t.TransformRecord(&r), jc.ErrorIsNil)
	c.Assert(r.Employee, gc.Equals, "00001")
}
