package converter_test

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	jc "github.com/juju/testing/checkers"
	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"github.com/ginjaninja78/vision-connector/internal/converter"
	"github.com/ginjaninja78/vision-connector/internal/types"
)

type payloadSuite struct{}

var _ = gc.Suite(&payloadSuite{})

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func expense(emp string, d int, amount string, billable bool) types.ExpenseRecord {
	return types.ExpenseRecord{
		Employee:    emp,
		TransDate:   day(d),
		Description: fmt.Sprintf("expense of %s", emp),
		WBS1:        "1998001.00",
		Account:     "521.00",
		Amount:      decimal.RequireFromString(amount),
		Billable:    billable,
		Period:      202403,
	}
}

// pkeys returns a generator of predictable detail keys.
func pkeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pk%d", n)
	}
}

func text(c *gc.C, row *etree.Element, name string) string {
	el := row.SelectElement(name)
	c.Assert(el, gc.NotNil, gc.Commentf("row has no %s", name))
	return el.Text()
}

func (s *payloadSuite) TestBatchID(c *gc.C) {
	c.Assert(converter.BatchID(time.Date(2024, 3, 4, 10, 15, 0, 0, time.UTC)), gc.Equals, "EX_20240304101500")
	c.Assert(converter.NewPKey(), gc.Matches, "[0-9a-f]{32}")
}

func (s *payloadSuite) TestEmpty(c *gc.C) {
	p, err := converter.BuildPayload(nil, "EX_1", nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(p, gc.IsNil)
}

func (s *payloadSuite) TestMissingBatchID(c *gc.C) {
	_, err := converter.BuildPayload([]types.ExpenseRecord{expense("00001", 4, "1", false)}, "", nil)
	c.Assert(err, gc.ErrorMatches, "empty batch id not valid")
}

func (s *payloadSuite) TestTotalsAndEndDate(c *gc.C) {
	p, err := converter.BuildPayload([]types.ExpenseRecord{
		expense("00001", 5, "100.00", true),
		expense("00001", 4, "50.50", false),
	}, "EX_20240304101500", pkeys())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(p.Total.StringFixed(2), gc.Equals, "150.50")
	c.Assert(p.EndDate, gc.Equals, day(4))
	c.Assert(p.Reports, gc.Equals, 1)
	c.Assert(p.Lines, gc.Equals, 2)

	control := p.Recs.FindElement("REC/exControl/ROW")
	c.Assert(control, gc.NotNil)
	c.Assert(text(c, control, "Total"), gc.Equals, "150.50")
	c.Assert(text(c, control, "EndDate"), gc.Equals, "2024-03-04")
}

func (s *payloadSuite) TestStructure(c *gc.C) {
	records := []types.ExpenseRecord{
		expense("00002", 6, "25", false),
		expense("00001", 5, "100.00", true),
		expense("00001", 4, "50.5", false),
	}
	p, err := converter.BuildPayload(records, "EX_20240304101500", pkeys())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(records[0].Employee, gc.Equals, "00002")

	c.Assert(p.Recs.Tag, gc.Equals, "RECS")
	recs := p.Recs.SelectElements("REC")
	c.Assert(recs, gc.HasLen, 1)
	var tables []string
	for _, t := range recs[0].ChildElements() {
		tables = append(tables, t.Tag+" "+t.SelectAttrValue("keys", ""))
	}
	c.Assert(tables, jc.DeepEquals, []string{
		"exControl Batch",
		"exMaster Batch,Employee",
		"exDetail Batch,MasterPKey,PKey",
	})

	masters := p.Recs.FindElements("REC/exMaster/ROW")
	c.Assert(masters, gc.HasLen, 2)
	c.Assert(masters[0].SelectAttrValue("tranType", ""), gc.Equals, "INSERT")
	c.Assert(text(c, masters[0], "MasterPKey"), gc.Equals, "EX_2024030410150001")
	c.Assert(text(c, masters[0], "Employee"), gc.Equals, "00001")
	c.Assert(text(c, masters[0], "ReportDate"), gc.Equals, "2024-03-04")
	c.Assert(text(c, masters[0], "ReportName"), gc.Equals, "Expenses 00001 for 03/04/2024")
	c.Assert(text(c, masters[0], "Seq"), gc.Equals, "1")
	c.Assert(text(c, masters[0], "DefaultCurrencyCode"), gc.Equals, " ")
	c.Assert(text(c, masters[1], "MasterPKey"), gc.Equals, "EX_2024030410150002")
	c.Assert(text(c, masters[1], "Seq"), gc.Equals, "2")

	details := p.Recs.FindElements("REC/exDetail/ROW")
	c.Assert(details, gc.HasLen, 3)
	expected := []struct {
		master, pkey, seq, date, amount, suppress string
	}{
		{"EX_2024030410150001", "pk1", "1", "2024-03-04", "50.50", "Y"},
		{"EX_2024030410150001", "pk2", "2", "2024-03-05", "100.00", "N"},
		{"EX_2024030410150002", "pk3", "1", "2024-03-06", "25.00", "Y"},
	}
	for i, want := range expected {
		row := details[i]
		c.Check(text(c, row, "Batch"), gc.Equals, "EX_20240304101500")
		c.Check(text(c, row, "MasterPKey"), gc.Equals, want.master)
		c.Check(text(c, row, "PKey"), gc.Equals, want.pkey)
		c.Check(text(c, row, "Seq"), gc.Equals, want.seq)
		c.Check(text(c, row, "TransDate"), gc.Equals, want.date)
		c.Check(text(c, row, "Amount"), gc.Equals, want.amount)
		c.Check(text(c, row, "NetAmount"), gc.Equals, want.amount)
		c.Check(text(c, row, "PaymentAmount"), gc.Equals, want.amount)
		c.Check(text(c, row, "SuppressBill"), gc.Equals, want.suppress)
		c.Check(text(c, row, "PaymentExchangeRate"), gc.Equals, "1.00")
		c.Check(text(c, row, "CurrencyCode"), gc.Equals, " ")
	}

	control := p.Recs.FindElement("REC/exControl/ROW")
	c.Assert(text(c, control, "Creator"), gc.Equals, converter.Creator)
	c.Assert(text(c, control, "Period"), gc.Equals, "202403")
	c.Assert(text(c, control, "Total"), gc.Equals, "175.50")
	c.Assert(text(c, control, "Company"), gc.Equals, " ")
	c.Assert(text(c, control, "Recurring"), gc.Equals, "N")
}

func (s *payloadSuite) TestCompanyFromRecords(c *gc.C) {
	r := expense("00001", 4, "10", false)
	r.Company = "01"
	p, err := converter.BuildPayload([]types.ExpenseRecord{r}, "EX_1", pkeys())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(p.Company, gc.Equals, "01")
	c.Assert(text(c, p.Recs.FindElement("REC/exControl/ROW"), "Company"), gc.Equals, "01")
}
