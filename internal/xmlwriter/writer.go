// =============================================================================
// Vision Connector - XML Writer Module
// =============================================================================
//
// This module writes XML documents to files: payloads sent to Vision and the
// datasets returned by record and transaction queries. Files are written as
// standalone documents:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <RECS xmlns="http://deltek.vision.com/XMLSchema">
//     <REC>
//       <EM name="EM" alias="EM" keys="Employee">
//         <ROW tranType="INSERT">
//           <Employee>00001</Employee>
//         </ROW>
//       </EM>
//     </REC>
//   </RECS>
//
// The element written is a copy; callers may keep using theirs.
//
// =============================================================================

package xmlwriter

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/beevik/etree"
	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/message"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the number of spaces per level. Zero writes the document
	// on one line.
	// Default: 2
	Indent int

	// IncludeXMLDeclaration writes the <?xml ...?> declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RootAttributes are set on the root element, replacing attributes of
	// the same name.
	// Example: {"xmlns": "http://deltek.vision.com/XMLSchema"}
	RootAttributes map[string]string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                2,
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders el as a document with the default options.
func Generate(el *etree.Element) ([]byte, error) {
	return GenerateWithOptions(el, DefaultGenerateOptions())
}

// GenerateWithOptions renders el as a document.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if el is nil or cannot be serialized.
func GenerateWithOptions(el *etree.Element, options GenerateOptions) ([]byte, error) {
	if el == nil {
		return nil, errors.NotValidf("nil element")
	}
	doc := etree.NewDocument()
	if options.IncludeXMLDeclaration {
		version, encoding := options.XMLVersion, options.Encoding
		if version == "" {
			version = "1.0"
		}
		if encoding == "" {
			encoding = "UTF-8"
		}
		doc.CreateProcInst("xml", `version="`+version+`" encoding="`+encoding+`"`)
	}

	root := el.Copy()
	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		root.CreateAttr(key, options.RootAttributes[key])
	}
	doc.SetRoot(root)

	if options.Indent > 0 {
		doc.Indent(options.Indent)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Annotate(err, "serializing XML")
	}
	return data, nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile writes el to path, creating the parent directory.
func WriteFile(path string, el *etree.Element, options GenerateOptions) error {
	data, err := GenerateWithOptions(el, options)
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Annotatef(err, "creating directory for %s", path)
	}
	return errors.Annotatef(os.WriteFile(path, data, 0644), "writing %s", path)
}

// WriteDataset writes the datasets of msg to path.
//
// RETURNS:
//   - An error satisfying errors.Is(err, errors.NotFound) when msg carries
//     no data, or if the file cannot be written.
func WriteDataset(path string, msg *message.Message, options GenerateOptions) error {
	root := msg.Root()
	if root == nil {
		return errors.NotFoundf("dataset in %q response", msg.ReturnDesc)
	}
	return errors.Trace(WriteFile(path, root, options))
}
