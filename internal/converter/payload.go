// =============================================================================
// Vision Connector - Expense Transaction Payload
// =============================================================================
//
// This module turns expense records into the RECS document accepted by
// AddTransaction for the employee expense (EX) transaction type:
//
//   <RECS>
//     <REC>
//       <exControl name="exControl" alias="exControl" keys="Batch">
//         <ROW tranType="INSERT">...batch totals...</ROW>
//       </exControl>
//       <exMaster name="exMaster" alias="exMaster" keys="Batch,Employee">
//         <ROW tranType="INSERT">...one report per employee...</ROW>
//       </exMaster>
//       <exDetail name="exDetail" alias="exDetail" keys="Batch,MasterPKey,PKey">
//         <ROW tranType="INSERT">...one line per record...</ROW>
//       </exDetail>
//     </REC>
//   </RECS>
//
// Records are ordered by employee and date. Every change of employee starts
// a new expense report whose key is the batch id followed by a two digit
// sequence number.
//
// =============================================================================

package converter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/types"
	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

// Creator is written to the batch control row.
const Creator = "DELTEKAPI"

// batchLayout formats the timestamp part of a batch id.
const batchLayout = "20060102150405"

// BatchID returns the expense batch id for a batch created at t.
func BatchID(t time.Time) string {
	return "EX_" + t.Format(batchLayout)
}

// NewPKey returns a dashless UUID for an expense detail row.
func NewPKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// =============================================================================
// PAYLOAD
// =============================================================================

// Payload is a built expense batch.
type Payload struct {
	// Recs is the RECS document, without a namespace.
	Recs *etree.Element

	BatchID string

	// Period and Company are taken from the last record.
	Period  int
	Company string

	// Total is the sum of the detail amounts.
	Total decimal.Decimal

	// EndDate is the earliest transaction date of the batch.
	EndDate time.Time

	Reports int
	Lines   int
}

// BuildPayload builds the expense batch for records.
//
// PARAMETERS:
//   - records: The validated expense records. The slice is not modified.
//   - batchID: The batch id, see BatchID.
//   - newPKey: Generates detail row keys; NewPKey when nil.
//
// RETURNS:
//   - The payload, or nil when there are no records.
//   - An error if the record structure cannot be built.
func BuildPayload(records []types.ExpenseRecord, batchID string, newPKey func() string) (*Payload, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if batchID == "" {
		return nil, errors.NotValidf("empty batch id")
	}
	if newPKey == nil {
		newPKey = NewPKey
	}

	sorted := append([]types.ExpenseRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Employee != sorted[j].Employee {
			return sorted[i].Employee < sorted[j].Employee
		}
		return sorted[i].TransDate.Before(sorted[j].TransDate)
	})

	var structure envelope.RecordStructure
	control := structure.AddTable("exControl", "exControl", "exControl", "Batch")
	master := control.AddChild("exMaster", "exMaster", "exMaster", "Batch,Employee")
	detail := control.AddChild("exDetail", "exDetail", "exDetail", "Batch,MasterPKey,PKey")

	p := &Payload{BatchID: batchID, Total: decimal.Zero}
	var (
		lastEmployee string
		masterPKey   string
		masterSeq    int
		detailSeq    int
	)
	for i, r := range sorted {
		if i == 0 || r.Employee != lastEmployee {
			masterSeq++
			detailSeq = 0
			masterPKey = fmt.Sprintf("%s%02d", batchID, masterSeq)
			master.Inserts.Add(
				envelope.T("Batch", batchID),
				envelope.T("MasterPKey", masterPKey),
				envelope.T("Employee", r.Employee),
				envelope.F("ReportDate", xmlvalue.Date(r.TransDate)),
				envelope.T("ReportName", fmt.Sprintf("Expenses %s for %s", r.Employee, r.TransDate.Format("01/02/2006"))),
				envelope.T("Posted", "N"),
				envelope.F("Seq", xmlvalue.Integer(int64(masterSeq))),
				envelope.F("AdvanceAmount", xmlvalue.Integer(0)),
				envelope.T("BarCode", ""),
				envelope.T("DefaultCurrencyCode", " "),
			)
		}
		detailSeq++
		lastEmployee = r.Employee

		amount := r.Amount.StringFixed(2)
		suppressBill := "Y"
		if r.Billable {
			suppressBill = "N"
		}
		detail.Inserts.Add(
			envelope.T("Batch", batchID),
			envelope.T("MasterPKey", masterPKey),
			envelope.T("PKey", newPKey()),
			envelope.F("Seq", xmlvalue.Integer(int64(detailSeq))),
			envelope.F("TransDate", xmlvalue.Date(r.TransDate)),
			envelope.T("WBS1", r.WBS1),
			envelope.T("WBS2", r.WBS2),
			envelope.T("WBS3", r.WBS3),
			envelope.T("Account", r.Account),
			envelope.T("Amount", amount),
			envelope.T("Description", r.Description),
			envelope.T("SuppressBill", suppressBill),
			envelope.T("NetAmount", amount),
			envelope.T("PaymentExchangeRate", "1.00"),
			envelope.T("PaymentAmount", amount),
			envelope.F("PaymentExchangeInfo", xmlvalue.Integer(0)),
			envelope.F("CurrencyExchangeOverrideRate", xmlvalue.Integer(0)),
			envelope.T("CurrencyCode", " "),
			envelope.T("OriginatingVendor", ""),
		)

		p.Total = p.Total.Add(r.Amount.Round(2))
		if p.EndDate.IsZero() || r.TransDate.Before(p.EndDate) {
			p.EndDate = r.TransDate
		}
		p.Period = r.Period
		p.Company = r.Company
	}
	p.Reports = masterSeq
	p.Lines = len(sorted)

	// Databases without multi company expect a single space.
	company := p.Company
	if company == "" {
		company = " "
	}
	control.Inserts.Add(
		envelope.T("Batch", batchID),
		envelope.T("Recurring", "N"),
		envelope.T("Posted", "N"),
		envelope.T("Creator", Creator),
		envelope.F("Period", xmlvalue.Integer(int64(p.Period))),
		envelope.F("EndDate", xmlvalue.Date(p.EndDate)),
		envelope.T("Total", p.Total.StringFixed(2)),
		envelope.F("AdvanceAmount", xmlvalue.Integer(0)),
		envelope.T("Company", company),
		envelope.T("DefaultCurrencyCode", " "),
	)

	recs, err := structure.Build()
	if err != nil {
		return nil, errors.Annotate(err, "building expense batch")
	}
	p.Recs = recs
	return p, nil
}
