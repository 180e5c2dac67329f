package vision

import (
	"context"

	"github.com/beevik/etree"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/logging"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/session"
)

var logger = loggo.GetLogger("vision.client")

// =============================================================================
// CLIENT
// =============================================================================

// Options tune a Client.
type Options struct {
	// ChunkSize is the page size requested from paginated operations.
	// Defaults to envelope.DefaultChunkSize.
	ChunkSize int

	// MaxPages bounds the pages fetched by one operation. Defaults to
	// DefaultMaxPages.
	MaxPages int

	// RowAccess asks the server to apply row level security to retrievals.
	RowAccess bool

	// Namespace, when set, is applied to every outgoing payload.
	Namespace string

	// TableInfo restricts the tables and columns returned by info center
	// retrievals.
	TableInfo *etree.Element
}

// Client runs Vision operations against an Endpoint.
//
// Every operation returns a *message.Message describing the outcome, including
// transport faults and malformed responses. The error result is only set
// when a session could not be established, in which case no call was made.
type Client struct {
	endpoint Endpoint
	session  *session.Manager
	opts     Options
}

// NewClient returns a Client issuing calls through endpoint with connection
// info from sess.
func NewClient(endpoint Endpoint, sess *session.Manager, opts Options) (*Client, error) {
	if endpoint == nil {
		return nil, errors.NotValidf("nil endpoint")
	}
	if sess == nil {
		return nil, errors.NotValidf("nil session manager")
	}
	if opts.ChunkSize < 0 || opts.MaxPages < 0 {
		return nil, errors.NotValidf("negative chunk size or page limit")
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = envelope.DefaultChunkSize
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Client{endpoint: endpoint, session: sess, opts: opts}, nil
}

// LoginFunc returns a session.LoginFunc that validates credentials through
// endpoint.
func LoginFunc(endpoint Endpoint) session.LoginFunc {
	return func(ctx context.Context, connInfo string) (string, error) {
		raw, err := endpoint.Call(ctx, Request{
			Operation: OpValidateLogin,
			Params:    []Param{connParam(connInfo)},
		})
		return raw, errors.Annotate(err, "validating login")
	}
}

// connect returns the connection info for the next operation.
func (c *Client) connect(ctx context.Context) (string, error) {
	conn, err := c.session.ConnectionEnvelope(ctx)
	return conn, errors.Trace(err)
}

// invoke issues one remote operation.
func (c *Client) invoke(ctx context.Context, op string, params []Param) (string, error) {
	if logger.IsTraceEnabled() {
		for _, p := range params {
			logger.Tracef("%s %s: %s", op, p.Name, logging.Mask(p.Value))
		}
	}
	raw, err := c.endpoint.Call(ctx, Request{Operation: op, Params: params})
	return raw, errors.Annotatef(err, "calling %s", op)
}

// single runs a one round trip operation and parses its response.
func (c *Client) single(ctx context.Context, op string, params func(conn string) []Param) (*message.Message, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.invoke(ctx, op, params(conn))
	if err != nil {
		logger.Errorf("%s() failed: %v", op, err)
		return message.FromError(err), nil
	}
	return message.Parse(raw), nil
}

// payload serializes an outgoing data document, moving it into the
// configured namespace first.
func (c *Client) payload(data *etree.Element) string {
	if data == nil {
		return ""
	}
	if c.opts.Namespace == "" {
		return envelope.String(data)
	}
	return envelope.String(envelope.ApplyNamespace(data.Copy(), c.opts.Namespace))
}

func (c *Client) selector(chunk int) envelope.Selector {
	return envelope.Selector{
		RowAccess: c.opts.RowAccess,
		Chunk:     chunk,
		ChunkSize: c.opts.ChunkSize,
		TableInfo: c.opts.TableInfo,
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// GetRecordsByKey pages through the records of the info center matching
// keys.
func (c *Client) GetRecordsByKey(ctx context.Context, ic InfoCenter, keys envelope.KeyList, detail RecordDetail) (*message.Message, error) {
	keysXML := envelope.Keys(keys)
	m, err := c.fetch(ctx, OpGetRecordsByKey, func(conn string, chunk int) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamInfoCenter, Value: envelope.InfoCenter(string(ic), c.selector(chunk))},
			{Name: ParamKeys, Value: keysXML},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetRecordsByKey() with keys [%s] call failed: %s", keysXML, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}

// GetRecordsByQuery pages through the records of the info center matching
// query.
func (c *Client) GetRecordsByQuery(ctx context.Context, ic InfoCenter, query string, detail RecordDetail) (*message.Message, error) {
	queryXML := envelope.Queries(query)
	m, err := c.fetch(ctx, OpGetRecordsByQuery, func(conn string, chunk int) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamInfoCenter, Value: envelope.InfoCenter(string(ic), c.selector(chunk))},
			{Name: ParamQuery, Value: queryXML},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetRecordsByQuery() with query [%s] call failed: %s", query, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}

// SendData inserts, updates or deletes the records in data.
func (c *Client) SendData(ctx context.Context, ic InfoCenter, data *etree.Element) (*message.Message, error) {
	return c.single(ctx, OpSendData, func(conn string) []Param {
		return []Param{
			{Name: ParamInfoCenterName, Value: string(ic)},
			connParam(conn),
			{Name: ParamData, Value: c.payload(data)},
		}
	})
}

// SendDataWithReturn is SendData asking the server to return the stored
// records.
func (c *Client) SendDataWithReturn(ctx context.Context, ic InfoCenter, data *etree.Element) (*message.Message, error) {
	return c.single(ctx, OpSendDataWithReturn, func(conn string) []Param {
		return []Param{
			{Name: ParamInfoCenterName, Value: string(ic)},
			connParam(conn),
			{Name: ParamData, Value: c.payload(data)},
			{Name: ParamReturnMessage, Value: "1"},
		}
	})
}

// DeleteRecords deletes the records in data.
func (c *Client) DeleteRecords(ctx context.Context, data *etree.Element) (*message.Message, error) {
	return c.single(ctx, OpDeleteRecords, func(conn string) []Param {
		return []Param{connParam(conn), {Name: ParamData, Value: c.payload(data)}}
	})
}

// =============================================================================
// USER DEFINED INFO CENTERS
// =============================================================================

// GetUDICByKey pages through the records of a user defined info center with
// the given id. The request carries no chunk number, so later pages are only
// read while the server returns a session id.
func (c *Client) GetUDICByKey(ctx context.Context, udic, id string, detail RecordDetail) (*message.Message, error) {
	m, err := c.fetchUnchunked(ctx, OpGetUDICByKey, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamUDICName, Value: udic},
			{Name: ParamKey, Value: id},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetUDICByKey() for %s with key [%s] call failed: %s", udic, id, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}

// GetUDICByQuery pages through the records of a user defined info center
// matching query.
func (c *Client) GetUDICByQuery(ctx context.Context, udic, query string, detail RecordDetail) (*message.Message, error) {
	queryXML := envelope.Queries(query)
	m, err := c.fetchUnchunked(ctx, OpGetUDICByQuery, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamUDICName, Value: udic},
			{Name: ParamQuery, Value: queryXML},
			{Name: ParamRecordDetail, Value: detail.String()},
		}
	})
	if m != nil && m.Failed() {
		logger.Errorf("GetUDICByQuery() for %s with query [%s] call failed: %s", udic, query, m.ReturnDesc)
	}
	return m, errors.Trace(err)
}

// AddUDIC inserts the records in data into a user defined info center.
func (c *Client) AddUDIC(ctx context.Context, udic string, data *etree.Element) (*message.Message, error) {
	return c.udicWrite(ctx, OpAddUDIC, udic, data)
}

// UpdateUDIC updates the records in data.
func (c *Client) UpdateUDIC(ctx context.Context, udic string, data *etree.Element) (*message.Message, error) {
	return c.udicWrite(ctx, OpUpdateUDIC, udic, data)
}

// DeleteUDIC deletes the records in data.
func (c *Client) DeleteUDIC(ctx context.Context, udic string, data *etree.Element) (*message.Message, error) {
	return c.udicWrite(ctx, OpDeleteUDIC, udic, data)
}

func (c *Client) udicWrite(ctx context.Context, op, udic string, data *etree.Element) (*message.Message, error) {
	return c.single(ctx, op, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamUDICName, Value: udic},
			{Name: ParamData, Value: c.payload(data)},
		}
	})
}

// =============================================================================
// LOOKUPS AND SYSTEM
// =============================================================================

// GetPickList returns the entries of a pick list as the message data. A
// failed lookup still carries an empty RECS document as data.
func (c *Client) GetPickList(ctx context.Context, pl PickList, hierarchical bool) (*message.Message, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	m := c.pickList(ctx, conn, pl, hierarchical)
	if m.Failed() {
		logger.Errorf("GetPickList() for [%s] failed: %s", pl, m.ReturnDesc)
		m.Data = etree.NewDocument()
		m.Data.CreateElement("RECS")
	}
	return m, nil
}

func (c *Client) pickList(ctx context.Context, conn string, pl PickList, hierarchical bool) *message.Message {
	raw, err := c.invoke(ctx, OpGetPickList, []Param{
		connParam(conn),
		{Name: ParamPickList, Value: envelope.PickList(string(pl), hierarchical)},
	})
	if err != nil {
		return message.FromError(err)
	}
	doc, err := message.ReadDocument(raw)
	if err != nil {
		return message.FromError(err)
	}
	if m := message.ParseDocument(doc); m.Failed() {
		return m
	}
	m := message.New(message.CodeSuccess, "", "")
	m.Data = doc
	return m
}

// ExecuteStoredProcedure runs a stored procedure. Returned rows come back as
// a NewDataSet document.
func (c *Client) ExecuteStoredProcedure(ctx context.Context, name string, params ...envelope.Param) (*message.Message, error) {
	return c.single(ctx, OpExecuteStoredProcedure, func(conn string) []Param {
		return []Param{
			connParam(conn),
			{Name: ParamStoredProc, Value: name},
			{Name: ParamParameters, Value: envelope.Parameters(params...)},
		}
	})
}

// SystemInfo returns the server's system information as message data.
func (c *Client) SystemInfo(ctx context.Context) (*message.Message, error) {
	return c.info(ctx, OpGetSystemInfo)
}

// CurrentUserInfo returns information about the logged in user as message
// data.
func (c *Client) CurrentUserInfo(ctx context.Context) (*message.Message, error) {
	return c.info(ctx, OpGetCurrentUserInfo)
}

func (c *Client) info(ctx context.Context, op string) (*message.Message, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.invoke(ctx, op, []Param{connParam(conn)})
	if err != nil {
		logger.Errorf("error requesting %s from Vision API: %v", op, err)
		return message.FromError(err), nil
	}
	return message.FromRaw(raw), nil
}
