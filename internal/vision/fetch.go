package vision

import (
	"context"

	"github.com/beevik/etree"
	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/message"
)

// DefaultMaxPages bounds paginated operations whose server never reports the
// last chunk.
const DefaultMaxPages = 1000

// Attributes of the RECS root of a paginated response.
const (
	attrSessionID = "SessionID"
	attrLastChunk = "LastChunk"
	recsTag       = "RECS"
)

// pageState is the state carried from one page of a paginated operation to
// the next.
type pageState struct {
	cursor    int
	acc       *message.Message
	sessionID string
}

// fetchUnchunked runs op for operations whose parameters carry no chunk
// number. The server can only move past the first page through the session
// id it returns, so a page marked as not last without one ends the loop
// instead of re-requesting the same records.
func (c *Client) fetchUnchunked(ctx context.Context, op string, params func(conn string) []Param) (*message.Message, error) {
	return c.fetchPages(ctx, op, false, func(conn string, _ int) []Param {
		return params(conn)
	})
}

// fetch runs op page by page until the server marks the last chunk, a page
// fails or the page limit is reached. params builds the arguments for the
// given connection info and 1-based chunk number.
//
// Pages that succeed have their records appended to the result in order. A
// failing page ends the loop and is merged into the result, so records from
// earlier pages stay attached to the failure. Transport faults and malformed
// pages abort with a failure message of their own.
func (c *Client) fetch(ctx context.Context, op string, params func(conn string, chunk int) []Param) (*message.Message, error) {
	return c.fetchPages(ctx, op, true, params)
}

func (c *Client) fetchPages(ctx context.Context, op string, chunked bool, params func(conn string, chunk int) []Param) (*message.Message, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	st := pageState{cursor: 1, acc: message.Empty()}
	for {
		if st.cursor > c.opts.MaxPages {
			st.acc.Append(message.FromError(errors.Errorf(
				"%s returned more than %d pages without a last chunk", op, c.opts.MaxPages)))
			return st.acc, nil
		}
		if err := ctx.Err(); err != nil {
			return message.FromError(errors.Annotatef(err, "%s chunk %d", op, st.cursor)), nil
		}
		if st.sessionID != "" {
			conn = c.session.WithSession(st.sessionID)
		}
		raw, err := c.invoke(ctx, op, params(conn, st.cursor))
		if err != nil {
			return message.FromError(errors.Annotatef(err, "chunk %d", st.cursor)), nil
		}
		last, err := st.read(raw)
		if err != nil {
			return message.FromError(errors.Annotatef(err, "%s chunk %d", op, st.cursor)), nil
		}
		logger.Debugf("%s chunk %d read, last chunk %t", op, st.cursor, last)
		if last {
			return st.acc, nil
		}
		if !chunked && st.sessionID == "" {
			logger.Warningf("%s chunk %d is not the last but no session id was returned, stopping", op, st.cursor)
			return st.acc, nil
		}
		st.cursor++
	}
}

// read folds one raw page into the accumulator and reports whether it was
// the last one.
func (st *pageState) read(raw string) (bool, error) {
	doc, err := message.ReadDocument(raw)
	if err != nil {
		return false, errors.Trace(err)
	}
	page := message.ParseDocument(doc)
	if page.Failed() {
		st.acc.Append(page)
		return true, nil
	}

	var recs *etree.Element
	switch root := doc.Root(); {
	case root.Tag == recsTag:
		recs = root
	case page.ReturnCode != "":
		// A success envelope wrapping its dataset.
		recs = page.Root()
	default:
		return false, errors.NotValidf("response root %q", root.Tag)
	}

	last := true
	if recs != nil {
		if sid := recs.SelectAttrValue(attrSessionID, ""); sid != "" {
			st.sessionID = sid
		}
		// Without a LastChunk marker the response is a single page.
		if marker := recs.SelectAttr(attrLastChunk); marker != nil {
			last = marker.Value == "1"
		}
		st.acc.AppendRecords(recs)
	}
	st.acc.ReturnCode = message.CodeSuccess
	st.acc.ReturnDesc = "Successful"
	return last, nil
}
