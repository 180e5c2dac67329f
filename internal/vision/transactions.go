package vision

import (
	"context"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
)

// TransactionKind is one of the fixed transaction types Vision accepts. The
// set is closed: the only valid values are the package level variables
// below, and the zero value is rejected by every operation.
type TransactionKind struct {
	code  string
	addOp string
}

// Transaction kinds and the remote operation that adds each of them.
var (
	APVouchers       = TransactionKind{"AP", "AddAPVouchersTransaction"}
	CashDisbursement = TransactionKind{"CD", "AddCashDisbTransaction"}
	CashReceipts     = TransactionKind{"CR", "AddCashReceiptsTransaction"}
	APDisbursements  = TransactionKind{"CV", "AddAPDisbursementsTransaction"}
	EmpRepayment     = TransactionKind{"ER", "AddEmpRepaymentTransaction"}
	EmpExpense       = TransactionKind{"EX", "AddEmpExpenseTransaction"}
	Invoice          = TransactionKind{"IN", "AddInvoiceTransaction"}
	JournalEntry     = TransactionKind{"JE", "AddJournalEntryTransaction"}
	LaborAdjust      = TransactionKind{"LA", "AddLaborAdjustTransaction"}
	Miscellaneous    = TransactionKind{"MI", "AddMiscTransaction"}
	PrintsRepro      = TransactionKind{"PR", "AddPrintsReproTransaction"}
	Timesheet        = TransactionKind{"TS", "AddTimesheetTransaction"}
	Units            = TransactionKind{"UN", "AddUnitTransaction"}
	UnitsByProject   = TransactionKind{"UP", "AddUnitByProjectTransaction"}
)

// TransactionKinds lists every kind in code order.
var TransactionKinds = []TransactionKind{
	APVouchers, CashDisbursement, CashReceipts, APDisbursements, EmpRepayment,
	EmpExpense, Invoice, JournalEntry, LaborAdjust, Miscellaneous,
	PrintsRepro, Timesheet, Units, UnitsByProject,
}

// ParseTransactionKind returns the kind with the given two letter code.
func ParseTransactionKind(code string) (TransactionKind, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, k := range TransactionKinds {
		if k.code == code {
			return k, nil
		}
	}
	return TransactionKind{}, errors.NotValidf("transaction kind %q", code)
}

// Code returns the two letter code sent as the transaction type.
func (k TransactionKind) Code() string { return k.code }

// AddOperation returns the remote operation that adds transactions of this
// kind.
func (k TransactionKind) AddOperation() string { return k.addOp }

// IsZero reports whether k is the invalid zero value.
func (k TransactionKind) IsZero() bool { return k.code == "" }

func (k TransactionKind) String() string { return k.code }

// PostingSuccessful is the description given to a post whose response
// carried no markup.
const PostingSuccessful = "Posting Successful"

// AddTransaction sends the transactional payload data to the add operation
// of kind.
func (c *Client) AddTransaction(ctx context.Context, kind TransactionKind, data *etree.Element) (*message.Message, error) {
	if kind.IsZero() {
		return message.FromError(errors.NotValidf("empty transaction kind")), nil
	}
	m, err := c.single(ctx, kind.addOp, func(conn string) []Param {
		return []Param{connParam(conn), {Name: ParamData, Value: c.payload(data)}}
	})
	if m != nil && m.Failed() {
		logger.Errorf("AddTransaction() failed for transaction type %s: %s", kind, m.ReturnDesc)
	}
	return m, err
}

// PostTransaction posts the comma separated batches in batchList for the
// accounting period. Vision answers a successful post with plain text, which
// becomes the detail of a success message.
func (c *Client) PostTransaction(ctx context.Context, kind TransactionKind, batchList string, period int) (*message.Message, error) {
	if kind.IsZero() {
		return message.FromError(errors.NotValidf("empty transaction kind")), nil
	}
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.invoke(ctx, OpPostTransaction, []Param{
		connParam(conn),
		{Name: ParamTransType, Value: kind.code},
		{Name: ParamBatchList, Value: batchList},
		{Name: ParamPeriod, Value: strconv.Itoa(period)},
	})
	if err != nil {
		logger.Errorf("PostTransaction() failed for transaction type %s: %v", kind, err)
		return message.FromError(err), nil
	}
	if !strings.Contains(raw, "<") {
		return message.New(message.CodeSuccess, PostingSuccessful, raw), nil
	}
	return message.Parse(raw), nil
}

// GetTransactionsByKey pages through the transactions of kind matching keys.
// Like the user defined info center reads, it follows the session id the
// server returns rather than a chunk number.
func (c *Client) GetTransactionsByKey(ctx context.Context, kind TransactionKind, keys envelope.KeyList, detail RecordDetail) (*message.Message, error) {
	if kind.IsZero() {
		return message.FromError(errors.NotValidf("empty transaction kind")), nil
	}
	keysXML := envelope.Keys(keys)
	m, err := c.fetchUnchunked(ctx, OpGetTransactionByKey, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamTransType, Value: kind.code},
			{Name: ParamKeys, Value: keysXML},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetTransactionsByKey() with keys [%s] call failed: %s", keysXML, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}

// GetTransactionsByQuery pages through the transactions of kind matching
// query.
func (c *Client) GetTransactionsByQuery(ctx context.Context, kind TransactionKind, query string, detail RecordDetail) (*message.Message, error) {
	if kind.IsZero() {
		return message.FromError(errors.NotValidf("empty transaction kind")), nil
	}
	queryXML := envelope.Queries(query)
	m, err := c.fetchUnchunked(ctx, OpGetTransactionByQuery, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamTransType, Value: kind.code},
			{Name: ParamQuery, Value: queryXML},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetTransactionsByQuery() with query [%s] call failed: %s", query, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}
