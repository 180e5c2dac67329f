// =============================================================================
// Vision Connector - Request Builder
// =============================================================================
//
// This file holds the shared helpers of the request builder: fragment
// serialization and text element construction.
//
// =============================================================================

// Package envelope builds the XML request fragments sent to the Vision
// web service: connection info, info center selectors, key and query lists,
// pick list requests, stored procedure parameters and transactional RECS
// payloads.
//
// Every builder is pure. Fragments are returned as *etree.Element so callers
// can compose or rewrite them before serializing with String.
package envelope

import (
	"github.com/beevik/etree"
)

// DefaultNamespace is the schema namespace Vision expects on transactional
// payloads.
const DefaultNamespace = "http://deltek.vision.com/XMLSchema"

// String serializes el without indentation or an XML declaration.
func String(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		// Writing to an in-memory buffer does not fail.
		return ""
	}
	return s
}

func textElement(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}
