// =============================================================================
// Vision Connector - Response Parser
// =============================================================================
//
// This file turns the raw text of a response into a Message.
//
// RESPONSE SHAPES:
//   - DLTKVisionMessage envelopes: return code, description, detail and
//     the datasets under ReturnSelect
//   - NewDataSet documents returned by stored procedures
//   - Other payloads (system and user info, plain text) through FromRaw
//
// =============================================================================

package message

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/juju/errors"
)

// ReadDocument parses raw as XML. Unlike Parse it reports malformed input,
// including text without any root element.
func ReadDocument(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, errors.Annotate(err, "reading response")
	}
	if doc.Root() == nil {
		return nil, errors.NotValidf("response without a root element")
	}
	return doc, nil
}

// Parse normalizes a raw response.
//
// PARAMETERS:
//   - raw: The text returned by the remote operation
//
// RETURNS:
//   - The message. Input that is not XML yields an empty message with no
//     return code, which is how plain tokens are told apart from envelopes.
func Parse(raw string) *Message {
	doc, err := ReadDocument(raw)
	if err != nil {
		return Empty()
	}
	return ParseDocument(doc)
}

// ParseDocument normalizes an already parsed response.
func ParseDocument(doc *etree.Document) *Message {
	m := Empty()
	root := doc.Root()
	if root == nil {
		return m
	}
	switch root.Tag {
	case envelopeTag:
		parseEnvelope(m, root)
	case storedProcTag:
		m.ReturnCode = CodeSuccess
		m.ReturnDesc = "stored procedure returned data"
		m.Data.SetRoot(root.Copy())
	}
	return m
}

func parseEnvelope(m *Message, root *etree.Element) {
	m.ReturnCode = childText(root, returnCodeTag)
	m.ReturnDesc = childText(root, returnDescTag)
	m.Detail = childText(root, detailTag)

	selects := root.SelectElements(returnSelectTag)
	if len(selects) == 0 {
		return
	}
	var datasets []*etree.Element
	for _, sel := range selects {
		if multi := sel.SelectElement(multiRecsTag); multi != nil {
			datasets = append(datasets, multi.SelectElements(recsTag)...)
		} else {
			datasets = append(datasets, sel.SelectElements(recsTag)...)
		}
	}
	switch len(datasets) {
	case 0:
	case 1:
		m.Data.SetRoot(datasets[0].Copy())
	default:
		multi := etree.NewElement(multiRecsTag)
		for _, ds := range datasets {
			multi.AddChild(ds.Copy())
		}
		m.Data.SetRoot(multi)
	}

	for _, ds := range datasets {
		for _, e := range ds.SelectElements(errorTag) {
			m.Errors = append(m.Errors, ItemError{
				Code:    childText(e, errorCodeTag),
				Message: childText(e, errorMessageTag),
			})
		}
	}
	if len(m.Errors) > 0 {
		m.ReturnCode = CodeFailure
		m.ReturnDesc = m.DataString()
	}
}

// FromRaw wraps a payload that is not a response envelope, such as system
// or user info, as a successful message carrying the payload as data. Raw
// envelopes are parsed normally and text without markup becomes the detail.
func FromRaw(raw string) *Message {
	if !strings.Contains(raw, "<") {
		return New(CodeSuccess, "", raw)
	}
	doc, err := ReadDocument(raw)
	if err != nil {
		return FromError(err)
	}
	if m := ParseDocument(doc); m.ReturnCode != "" {
		return m
	}
	m := New(CodeSuccess, "", "")
	m.Data = doc
	return m
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}
