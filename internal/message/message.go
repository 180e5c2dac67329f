// =============================================================================
// Vision Connector - Response Messages
// =============================================================================
//
// This file defines Message, the normalized result of every remote
// operation, and the helpers that combine and inspect messages.
//
// =============================================================================

// Package message normalizes Vision web service responses.
//
// Every remote operation resolves to a *Message: a return code, a
// description, free text detail, the datasets the server returned and any
// per-row errors embedded in them. Per-row errors force the failure code even
// when the server reported success.
package message

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
)

// Return codes with a documented meaning.
const (
	CodeSuccess      = "1"
	CodeFailure      = "-1"
	CodeNoData       = "0"
	CodeInvalidLogin = "ErrLoginVal"
)

// Element names of the standard response envelope.
const (
	envelopeTag     = "DLTKVisionMessage"
	returnCodeTag   = "ReturnCode"
	returnDescTag   = "ReturnDesc"
	detailTag       = "Detail"
	returnSelectTag = "ReturnSelect"
	multiRecsTag    = "MULTIRECS"
	recsTag         = "RECS"
	errorTag        = "Error"
	errorCodeTag    = "ErrorCode"
	errorMessageTag = "Message"
	storedProcTag   = "NewDataSet"
)

// ItemError is one error reported against a row of a returned dataset.
type ItemError struct {
	Code    string
	Message string
}

// Message is the normalized result of a remote operation.
type Message struct {
	ReturnCode string
	ReturnDesc string
	Detail     string

	// Data holds the datasets returned by the server. Its root is a RECS
	// element for record and transaction responses, a MULTIRECS element
	// when several datasets were returned, or NewDataSet for stored
	// procedures. Data is never nil but may have no root.
	Data *etree.Document

	// Errors lists embedded row errors in the order they were reported.
	// Entries with the same code are kept separately.
	Errors []ItemError
}

// New returns a message with the given code, description and detail.
func New(code, desc, detail string) *Message {
	return &Message{
		ReturnCode: code,
		ReturnDesc: desc,
		Detail:     detail,
		Data:       etree.NewDocument(),
	}
}

// Empty returns a message with no code set. Appending to it adopts the
// first appended message wholesale.
func Empty() *Message {
	return New("", "", "")
}

// FromError converts err into a failure message. The description is the
// error text and the detail lists the error and each wrapped cause, one per
// line.
func FromError(err error) *Message {
	if err == nil {
		return Empty()
	}
	var lines []string
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		// Location and trace wrappers repeat the text they wrap.
		if text := e.Error(); len(lines) == 0 || lines[len(lines)-1] != text {
			lines = append(lines, text)
		}
	}
	return New(CodeFailure, err.Error(), strings.Join(lines, "\n"))
}

// Success reports whether the message carries the success code.
func (m *Message) Success() bool {
	return m.ReturnCode == CodeSuccess
}

// Failed reports whether a code is set and it is not the success code.
func (m *Message) Failed() bool {
	return m.ReturnCode != "" && m.ReturnCode != CodeSuccess
}

// Root returns the root element of the returned data, or nil.
func (m *Message) Root() *etree.Element {
	if m.Data == nil {
		return nil
	}
	return m.Data.Root()
}

// Records returns the child elements of the returned data root, typically
// the REC elements of a RECS dataset.
func (m *Message) Records() []*etree.Element {
	root := m.Root()
	if root == nil {
		return nil
	}
	return root.ChildElements()
}

// DataString serializes the returned data, or returns "" when there is none.
func (m *Message) DataString() string {
	return envelope.String(m.Root())
}

// Append folds in into m.
//
// When m has no code yet it becomes a copy of in. Otherwise only a failing
// in is merged: its code replaces m's, descriptions are joined with ", ",
// details with a newline, its dataset is added under m's data root and its
// errors are appended. A successful in is ignored.
func (m *Message) Append(in *Message) {
	if in == nil {
		return
	}
	if m.ReturnCode == "" {
		m.ReturnCode = in.ReturnCode
		m.ReturnDesc = in.ReturnDesc
		m.Detail = in.Detail
		m.Data = copyDocument(in.Data)
		m.Errors = append([]ItemError(nil), in.Errors...)
		return
	}
	if in.ReturnCode == CodeSuccess {
		return
	}
	m.ReturnCode = in.ReturnCode
	m.ReturnDesc = m.ReturnDesc + ", " + in.ReturnDesc
	m.Detail = m.Detail + "\n" + in.Detail
	if root := in.Root(); root != nil {
		m.addUnderRoot(root.Copy())
	}
	m.Errors = append(m.Errors, in.Errors...)
}

// AppendRecords adds the children of recs to the RECS root of m's data,
// adopting a copy of recs as the root when m has none.
func (m *Message) AppendRecords(recs *etree.Element) {
	if recs == nil {
		return
	}
	if m.Data == nil {
		m.Data = etree.NewDocument()
	}
	root := m.Data.Root()
	if root == nil || root.Tag != recsTag {
		m.Data.SetRoot(recs.Copy())
		return
	}
	for _, child := range recs.ChildElements() {
		root.AddChild(child.Copy())
	}
}

func (m *Message) addUnderRoot(el *etree.Element) {
	if m.Data == nil {
		m.Data = etree.NewDocument()
	}
	if root := m.Data.Root(); root != nil {
		root.AddChild(el)
		return
	}
	m.Data.SetRoot(el)
}

// GetErrors renders the embedded errors as numbered text blocks.
func (m *Message) GetErrors() string {
	var b strings.Builder
	for i, e := range m.Errors {
		fmt.Fprintf(&b, "Error %d: %s\n%s\n\n", i+1, e.Code, e.Message)
	}
	return b.String()
}

// String renders m as a DLTKVisionMessage envelope without data.
func (m *Message) String() string {
	root := etree.NewElement(envelopeTag)
	root.CreateElement(returnCodeTag).SetText(m.ReturnCode)
	root.CreateElement(returnDescTag).SetText(m.ReturnDesc)
	root.CreateElement(detailTag).SetText(m.Detail)
	return envelope.String(root)
}

func copyDocument(doc *etree.Document) *etree.Document {
	if doc == nil {
		return etree.NewDocument()
	}
	return doc.Copy()
}
