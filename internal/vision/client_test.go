package vision_test

import (
	"context"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/session"
	"github.com/ginjaninja78/vision-connector/internal/vision"
	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

// baseSuite holds the mock endpoint and the requests it received.
type baseSuite struct {
	clock    *testclock.Clock
	endpoint *MockEndpoint
	calls    []vision.Request
}

func (s *baseSuite) SetUpTest(c *gc.C) {
	s.clock = testclock.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s.calls = nil
}

var creds = session.Credentials{Database: "VISION", Username: "ADMIN", Password: "secret"}

func (s *baseSuite) newClient(c *gc.C, useSession bool, opts vision.Options) (*gomock.Controller, *vision.Client) {
	ctrl := gomock.NewController(c)
	s.endpoint = NewMockEndpoint(ctrl)
	mgr, err := session.NewManager(session.Config{
		Credentials: creds,
		UseSession:  useSession,
		Login:       vision.LoginFunc(s.endpoint),
		Clock:       s.clock,
	})
	c.Assert(err, jc.ErrorIsNil)
	client, err := vision.NewClient(s.endpoint, mgr, opts)
	c.Assert(err, jc.ErrorIsNil)
	return ctrl, client
}

// opMatcher matches requests for one remote operation.
type opMatcher string

func (m opMatcher) Matches(x any) bool {
	req, ok := x.(vision.Request)
	return ok && req.Operation == string(m)
}

func (m opMatcher) String() string {
	return "request for " + string(m)
}

// expect queues one reply per element of replies for op, in order.
func (s *baseSuite) expect(op string, replies ...string) {
	for _, reply := range replies {
		reply := reply
		s.endpoint.EXPECT().Call(gomock.Any(), opMatcher(op)).DoAndReturn(
			func(_ context.Context, req vision.Request) (string, error) {
				s.calls = append(s.calls, req)
				return reply, nil
			})
	}
}

func (s *baseSuite) expectError(op string, err error) {
	s.endpoint.EXPECT().Call(gomock.Any(), opMatcher(op)).DoAndReturn(
		func(_ context.Context, req vision.Request) (string, error) {
			s.calls = append(s.calls, req)
			return "", err
		})
}

func (s *baseSuite) param(c *gc.C, i int, name string) string {
	c.Assert(len(s.calls) > i, jc.IsTrue)
	v, ok := s.calls[i].Get(name)
	c.Assert(ok, jc.IsTrue, gc.Commentf("%s has no %s", s.calls[i].Operation, name))
	return v
}

type clientSuite struct {
	baseSuite
}

var _ = gc.Suite(&clientSuite{})

func recordIDs(m *message.Message) []string {
	var ids []string
	for _, rec := range m.Records() {
		ids = append(ids, rec.SelectAttrValue("ID", rec.Tag))
	}
	return ids
}

// =============================================================================
// PAGINATION
// =============================================================================

func (s *clientSuite) TestFetchThreePages(c *gc.C) {
	ctrl, client := s.newClient(c, true, vision.Options{ChunkSize: 2})
	defer ctrl.Finish()

	s.expect(vision.OpValidateLogin, "token-1")
	s.expect(vision.OpGetRecordsByKey,
		`<RECS SessionID="srv-1" LastChunk="0"><REC ID="1"/><REC ID="2"/></RECS>`,
		`<RECS SessionID="srv-2" LastChunk="0"><REC ID="3"/><REC ID="4"/></RECS>`,
		`<RECS SessionID="srv-2" LastChunk="1"><REC ID="5"/></RECS>`,
	)

	keys := envelope.KeyList{envelope.ParseKey("2003005.00,1PD,COD")}
	m, err := client.GetRecordsByKey(context.Background(), vision.Projects, keys, vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeSuccess)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1", "2", "3", "4", "5"})

	c.Assert(s.calls, gc.HasLen, 4)
	for i, chunk := range []string{"1", "2", "3"} {
		ic := s.param(c, i+1, vision.ParamInfoCenter)
		c.Check(ic, gc.Equals, `<InfoCenters><InfoCenter ID="1" Name="Projects" RowAccess="0" PartialAccess="1" Chunk="`+
			chunk+`" ChunkSize="2"/></InfoCenters>`)
		c.Check(s.param(c, i+1, vision.ParamRecordDetail), gc.Equals, "All")
		c.Check(s.param(c, i+1, vision.ParamKeys), gc.Equals, envelope.Keys(keys))
	}
	c.Check(s.param(c, 1, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "token-1"))
	c.Check(s.param(c, 2, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "srv-1"))
	c.Check(s.param(c, 3, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "srv-2"))
}

func (s *clientSuite) TestFetchWithoutMarkerIsSinglePage(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetRecordsByQuery, `<RECS SessionID="srv-1"><REC ID="1"/></RECS>`)

	m, err := client.GetRecordsByQuery(context.Background(), vision.Employees, "EM.Status = 'A'", vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1"})
	c.Assert(s.calls, gc.HasLen, 1)
	c.Check(s.param(c, 0, vision.ParamQuery), gc.Equals, `<Queries><Query ID="1">EM.Status = &apos;A&apos;</Query></Queries>`)
	c.Check(s.param(c, 0, vision.ParamRecordDetail), gc.Equals, "")
	c.Check(s.param(c, 0, vision.ParamConnInfo), gc.Equals, envelope.LoginConnInfo("VISION", "ADMIN", "secret"))
}

func (s *clientSuite) TestFetchStopsOnFailedPage(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetRecordsByKey,
		`<RECS SessionID="srv-1" LastChunk="0"><REC ID="1"/></RECS>`,
		`<DLTKVisionMessage><ReturnCode>-1</ReturnCode><ReturnDesc>chunk expired</ReturnDesc>`+
			`<Detail>server trace</Detail></DLTKVisionMessage>`,
	)

	m, err := client.GetRecordsByKey(context.Background(), vision.Clients, envelope.KeyList{{"C1"}}, vision.DetailPrimary)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.calls, gc.HasLen, 2)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals, "Successful, chunk expired")
	c.Assert(m.Detail, gc.Equals, "\nserver trace")
	// Records read before the failure stay attached.
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1"})
}

func (s *clientSuite) TestFetchFirstPageFailure(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetRecordsByKey,
		`<DLTKVisionMessage><ReturnCode>ErrLoginVal</ReturnCode><ReturnDesc>Invalid login</ReturnDesc></DLTKVisionMessage>`)

	m, err := client.GetRecordsByKey(context.Background(), vision.Clients, envelope.KeyList{{"C1"}}, vision.DetailPrimary)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeInvalidLogin)
	c.Assert(m.ReturnDesc, gc.Equals, "Invalid login")
}

func (s *clientSuite) TestFetchPageLimit(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{MaxPages: 3})
	defer ctrl.Finish()

	s.expect(vision.OpGetUDICByQuery,
		`<RECS LastChunk="0"><REC ID="1"/></RECS>`,
		`<RECS LastChunk="0"><REC ID="2"/></RECS>`,
		`<RECS LastChunk="0"><REC ID="3"/></RECS>`,
	)

	m, err := client.GetUDICByQuery(context.Background(), "UDIC_Vehicle", "Make = 'Volvo'", vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.calls, gc.HasLen, 3)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals,
		"Successful, GetUDICByQuery returned more than 3 pages without a last chunk")
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1", "2", "3"})
	c.Assert(s.param(c, 0, vision.ParamUDICName), gc.Equals, "UDIC_Vehicle")
}

func (s *clientSuite) TestFetchTransportFault(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetRecordsByKey, `<RECS LastChunk="0"><REC ID="1"/></RECS>`)
	s.expectError(vision.OpGetRecordsByKey, errors.New("connection reset by peer"))

	m, err := client.GetRecordsByKey(context.Background(), vision.Vendors, envelope.KeyList{{"V1"}}, vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals, "chunk 2: calling GetRecordsByKey: connection reset by peer")
	c.Assert(strings.Split(m.Detail, "\n"), jc.DeepEquals, []string{
		"chunk 2: calling GetRecordsByKey: connection reset by peer",
		"calling GetRecordsByKey: connection reset by peer",
		"connection reset by peer",
	})
}

func (s *clientSuite) TestFetchMalformedPage(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetUDICByKey, "Object reference not set to an instance of an object.")

	m, err := client.GetUDICByKey(context.Background(), "UDIC_Vehicle", "42", vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals, "GetUDICByKey chunk 1: response without a root element not valid")
	c.Assert(s.param(c, 0, vision.ParamKey), gc.Equals, "42")
}

func (s *clientSuite) TestFetchUnexpectedRoot(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetRecordsByQuery, `<html><body>Service Unavailable</body></html>`)

	m, err := client.GetRecordsByQuery(context.Background(), vision.Leads, "1=1", vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnDesc, gc.Equals, `GetRecordsByQuery chunk 1: response root "html" not valid`)
}

func (s *clientSuite) TestFetchCancelled(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := client.GetRecordsByQuery(ctx, vision.Leads, "1=1", vision.DetailEmpty)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnDesc, gc.Equals, "GetRecordsByQuery chunk 1: context canceled")
	c.Assert(s.calls, gc.HasLen, 0)
}

// =============================================================================
// SESSIONS
// =============================================================================

func (s *clientSuite) TestSessionReusedAcrossOperations(c *gc.C) {
	ctrl, client := s.newClient(c, true, vision.Options{})
	defer ctrl.Finish()

	ok := `<DLTKVisionMessage><ReturnCode>1</ReturnCode><ReturnDesc>saved</ReturnDesc></DLTKVisionMessage>`
	data := etree.NewElement("RECS")

	s.expect(vision.OpValidateLogin, "token-1")
	s.expect(vision.OpSendData, ok, ok)
	for i := 0; i < 2; i++ {
		m, err := client.SendData(context.Background(), vision.Projects, data)
		c.Assert(err, jc.ErrorIsNil)
		c.Assert(m.Success(), jc.IsTrue)
		s.clock.Advance(4 * time.Minute)
	}

	s.clock.Advance(3 * time.Minute)
	s.expect(vision.OpValidateLogin, "token-2")
	s.expect(vision.OpSendData, ok)
	_, err := client.SendData(context.Background(), vision.Projects, data)
	c.Assert(err, jc.ErrorIsNil)

	var ops []string
	for _, call := range s.calls {
		ops = append(ops, call.Operation)
	}
	c.Assert(ops, jc.DeepEquals, []string{
		vision.OpValidateLogin, vision.OpSendData, vision.OpSendData,
		vision.OpValidateLogin, vision.OpSendData,
	})
	c.Assert(s.param(c, 4, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "token-2"))
	c.Assert(s.param(c, 4, vision.ParamInfoCenterName), gc.Equals, "Projects")
}

func (s *clientSuite) TestSessionFailureIsReturned(c *gc.C) {
	ctrl, client := s.newClient(c, true, vision.Options{})
	defer ctrl.Finish()

	s.expectError(vision.OpValidateLogin, errors.New("dial tcp: connection refused"))

	m, err := client.GetRecordsByKey(context.Background(), vision.Projects, envelope.KeyList{{"P1"}}, vision.DetailEmpty)
	c.Assert(m, gc.IsNil)
	c.Assert(err, gc.ErrorMatches,
		`connection failed with database "VISION" and user "ADMIN": validating login: dial tcp: connection refused`)
	c.Assert(s.calls, gc.HasLen, 1)
}

// =============================================================================
// SINGLE CALL OPERATIONS
// =============================================================================

func (s *clientSuite) TestEmbeddedErrorsEscalate(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpSendDataWithReturn, `<DLTKVisionMessage><ReturnCode>1</ReturnCode><ReturnDesc>ok</ReturnDesc>`+
		`<ReturnSelect><RECS><REC/><Error><ErrorCode>PR001</ErrorCode><Message>WBS1 is required</Message></Error></RECS></ReturnSelect>`+
		`</DLTKVisionMessage>`)

	m, err := client.SendDataWithReturn(context.Background(), vision.Projects, etree.NewElement("RECS"))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.Errors, jc.DeepEquals, []message.ItemError{{Code: "PR001", Message: "WBS1 is required"}})
	c.Assert(s.param(c, 0, vision.ParamReturnMessage), gc.Equals, "1")
}

func (s *clientSuite) TestPayloadNamespace(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{Namespace: envelope.DefaultNamespace})
	defer ctrl.Finish()

	s.expect(vision.OpAddUDIC, `<DLTKVisionMessage><ReturnCode>1</ReturnCode></DLTKVisionMessage>`)

	var rs envelope.RecordStructure
	rs.AddTable("UDIC_Vehicle", "UDIC_Vehicle", "UDIC_Vehicle", "UDIC_UID").
		Inserts.Add(envelope.T("UDIC_UID", "42"), envelope.T("Make", "Volvo"))
	data, err := rs.Build()
	c.Assert(err, jc.ErrorIsNil)

	_, err = client.AddUDIC(context.Background(), "UDIC_Vehicle", data)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.param(c, 0, vision.ParamData), gc.Equals,
		`<RECS xmlns="http://deltek.vision.com/XMLSchema"><REC><UDIC_Vehicle name="UDIC_Vehicle" alias="UDIC_Vehicle" keys="UDIC_UID">`+
			`<ROW tranType="INSERT"><UDIC_UID>42</UDIC_UID><Make>Volvo</Make></ROW></UDIC_Vehicle></REC></RECS>`)
	// The caller's tree is left alone.
	c.Assert(data.SelectAttr("xmlns"), gc.IsNil)
}

func (s *clientSuite) TestUDICWrites(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	ok := `<DLTKVisionMessage><ReturnCode>1</ReturnCode></DLTKVisionMessage>`
	s.expect(vision.OpUpdateUDIC, ok)
	s.expect(vision.OpDeleteUDIC, ok)
	s.expect(vision.OpDeleteRecords, ok)

	data := etree.NewElement("RECS")
	_, err := client.UpdateUDIC(context.Background(), "UDIC_Vehicle", data)
	c.Assert(err, jc.ErrorIsNil)
	_, err = client.DeleteUDIC(context.Background(), "UDIC_Vehicle", data)
	c.Assert(err, jc.ErrorIsNil)
	m, err := client.DeleteRecords(context.Background(), data)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(s.param(c, 1, vision.ParamUDICName), gc.Equals, "UDIC_Vehicle")
	c.Assert(s.param(c, 2, vision.ParamData), gc.Equals, "<RECS/>")
}

func (s *clientSuite) TestUDICReadFollowsSessionID(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetUDICByQuery,
		`<RECS SessionID="srv-4" LastChunk="0"><REC ID="1"/></RECS>`,
		`<RECS SessionID="srv-4" LastChunk="1"><REC ID="2"/></RECS>`,
	)

	m, err := client.GetUDICByQuery(context.Background(), "UDIC_Equipment", "Status = 'A'", vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1", "2"})
	c.Assert(s.calls, gc.HasLen, 2)
	c.Check(s.param(c, 1, vision.ParamConnInfo), gc.Equals, envelope.FullConnInfo("VISION", "ADMIN", "secret", "srv-4"))
}

func (s *clientSuite) TestUDICReadWithoutSessionIDIsOnePage(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetUDICByKey, `<RECS LastChunk="0"><REC ID="1"/><REC ID="2"/></RECS>`)

	m, err := client.GetUDICByKey(context.Background(), "UDIC_Equipment", "4b1c", vision.DetailAll)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(recordIDs(m), jc.DeepEquals, []string{"1", "2"})
	c.Assert(s.calls, gc.HasLen, 1)
}

func (s *clientSuite) TestCallFaultIsNormalized(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expectError(vision.OpDeleteRecords, errors.New("timeout"))
	m, err := client.DeleteRecords(context.Background(), etree.NewElement("RECS"))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.ReturnCode, gc.Equals, message.CodeFailure)
	c.Assert(m.ReturnDesc, gc.Equals, "calling DeleteRecords: timeout")
}

func (s *clientSuite) TestGetPickList(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetPickList,
		`<RECS><REC><Code>A</Code><Description>Active</Description></REC></RECS>`,
		`<DLTKVisionMessage><ReturnCode>-1</ReturnCode><ReturnDesc>unknown pick list</ReturnDesc></DLTKVisionMessage>`,
	)

	m, err := client.GetPickList(context.Background(), vision.CFGProjectStatus, false)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(m.Records(), gc.HasLen, 1)
	c.Assert(s.param(c, 0, vision.ParamPickList), gc.Equals,
		`<PickListRequest><PickList Type="CFGProjectStatus" Hierarchical="0"/></PickListRequest>`)

	m, err = client.GetPickList(context.Background(), "CFGNoSuchList", true)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Failed(), jc.IsTrue)
	c.Assert(m.ReturnDesc, gc.Equals, "unknown pick list")
	c.Assert(m.DataString(), gc.Equals, "<RECS/>")
}

func (s *clientSuite) TestExecuteStoredProcedure(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpExecuteStoredProcedure, `<NewDataSet><Table><WBS1>2003005.00</WBS1></Table></NewDataSet>`)

	m, err := client.ExecuteStoredProcedure(context.Background(), "spGetOpenProjects",
		envelope.Param{Name: "Org", Value: xmlvalue.Text("01:01")})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(m.Root().Tag, gc.Equals, "NewDataSet")
	c.Assert(s.param(c, 0, vision.ParamStoredProc), gc.Equals, "spGetOpenProjects")
	c.Assert(s.param(c, 0, vision.ParamParameters), gc.Equals, `<data><param name="Org">01:01</param></data>`)
}

func (s *clientSuite) TestSystemInfo(c *gc.C) {
	ctrl, client := s.newClient(c, false, vision.Options{})
	defer ctrl.Finish()

	s.expect(vision.OpGetSystemInfo, `<SystemInfo><Version>7.6</Version></SystemInfo>`)
	s.expect(vision.OpGetCurrentUserInfo, `<UserInfo><Username>ADMIN</Username></UserInfo>`)

	m, err := client.SystemInfo(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.Success(), jc.IsTrue)
	c.Assert(m.Root().Tag, gc.Equals, "SystemInfo")

	m, err = client.CurrentUserInfo(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(m.DataString(), gc.Equals, `<UserInfo><Username>ADMIN</Username></UserInfo>`)
}

func (s *clientSuite) TestNewClientValidation(c *gc.C) {
	_, err := vision.NewClient(nil, nil, vision.Options{})
	c.Assert(err, gc.ErrorMatches, "nil endpoint not valid")
}
