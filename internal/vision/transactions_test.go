package vision_test

import (
	"context"

	"github.com/beevik/etree"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

type transactionSuite struct {
	baseSuite
}

var _ = gc.Suite(&transactionSuite{})

func (s *transactionSuite) TestParseTransactionKind(c *gc.C) {
	kind, err := vision.ParseTransactionKind(" ex ")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(kind, gc.Equals, vision.EmpExpense)
	c.Assert(kind.AddOperation(), gc.Equals, "AddEmpExpenseTransaction")

	_, err = vision.ParseTransactionKind("ZZ")
	c.Assert(err, gc.ErrorMatches, `transaction kind "ZZ" not valid`)
	c.Assert(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *transactionSuite) TestKindsAreDistinct(c *gc.C) {
	c.Assert(vision.TransactionKinds, gc.HasLen, 14)
	codes := make(map[string]bool)
	ops := make(map[string]bool)
	for _, k := range vision.TransactionKinds {
		c.Check(k.IsZero(), jc.IsFalse)
		codes[k.Code()] = true
		ops[k.AddOperation()] = true
		parsed, err := vision.ParseTransactionKind(k.Code())
		c.Check(err, jc.ErrorIsNil)
		c.Check(parsed, gc.Equals, k)
	}
	c.Assert(codes, gc.HasLen, 14)
	c.Assert(ops, gc.HasLen, 14)
}

func (s *transactionSuite) TestAddTransactionDispatch(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	ok := `<DLTKVisionMessage><ReturnCode>1</ReturnCode><ReturnDesc>added</ReturnDesc></DLTKVisionMessage>`
	for _, kind := range vision.TransactionKinds {
		s.expect(kind.AddOperation(), ok)
	}
	for _, kind := range vision.TransactionKinds {
		m, err := client.AddTransaction(context.Background(), kind, etree.NewElement("RECS"))
		c.Assert(err, jc.ErrorIsNil)
		c.Check(m.Success(), jc.IsTrue, gc.Commentf("kind %s", kind))
	}
	c.Assert(s.calls, gc.HasLen, len(vision.TransactionKinds))
	c.Assert(s.calls[0].Operation, gc.Equals, "AddAPVouchersTransaction")
	c.Assert(s.calls[7].Operation, gc.Equals, "AddJournalEntryTransaction")
	c.Assert(s.param(c, 0, vision.ParamData), gc.Equals, "<RECS/>")
}

func (s *transactionSuite) TestZeroKindIsRejected(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	var kind vision.TransactionKind
	m, err := client.AddTransaction(context.Background(), kind, etree.NewElement("RECS"))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals, "empty transaction kind not valid")
	c.Assert(s.calls, gc.HasLen, 0)
}

func (s *transactionSuite) TestPostTransactionPlainText(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpPostTransaction, "Batch EX_20240301090000 posted")

	m, err := client.PostTransaction(context.Background(), vision.EmpExpense, "EX_20240301090000", 202403)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeSuccess)
	c.Assert(m.ReturnDesc, gc.Equals, vision.PostingSuccessful)
	c.Assert(m.Detail, gc.Equals, "Batch EX_20240301090000 posted")
	c.Assert(s.param(c, 0, vision.ParamTransType), gc.Equals, "EX")
	c.Assert(s.param(c, 0, vision.ParamBatchList), gc.Equals, "EX_20240301090000")
	c.Assert(s.param(c, 0, vision.ParamPeriod), gc.Equals, "202403")
}

func (s *transactionSuite) TestPostTransactionEnvelope(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpPostTransaction,
		`<DLTKVisionMessage><ReturnCode>-1</ReturnCode><ReturnDesc>period closed</ReturnDesc></DLTKVisionMessage>`)

	m, err := client.PostTransaction(context.Background(), vision.Timesheet, "TS_1", 202312)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Failed(), jc.IsTrue)
	c.Assert(m.ReturnDesc, gc.Equals, "period closed")
}

func (s *transactionSuite) TestGetTransactionsByKey(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetTransactionByKey,
		`<RECS SessionID="srv-9" LastChunk="0"><REC ID="a"/></RECS>`,
		`<RECS SessionID="srv-9" LastChunk="1"><REC ID="b"/></RECS>`,
	)

	m, err := client.GetTransactionsByKey(context.Background(), vision.JournalEntry,
		envelope.KeyList{{"JE_1"}}, vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"a", "b"})
	c.Assert(s.param(c, 0, vision.ParamTransType), gc.Equals, "JE")
	c.Assert(s.param(c, 1, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "srv-9"))
}

func (s *transactionSuite) TestGetTransactionsByQuery(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetTransactionByQuery, `<RECS><REC ID="x"/></RECS>`)

	m, err := client.GetTransactionsByQuery(context.Background(), vision.Invoice, "Batch = 'IN_1'", vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"x"})
	c.Assert(s.param(c, 0, vision.ParamQuery), gc.Equals, `<Queries><Query ID="1">Batch = &apos;IN_1&apos;</Query></Queries>`)
}

func (s *transactionSuite) TestGetTransactionsStopsWithoutSessionID(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetTransactionByQuery, `<RECS LastChunk="0"><REC ID="x"/><REC ID="y"/></RECS>`)

	m, err := client.GetTransactionsByQuery(context.Background(), vision.EmpExpense, "Batch = 'EX_1'", vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"x", "y"})
	c.Assert(s.calls, gc.HasLen, 1)
}
