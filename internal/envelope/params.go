// =============================================================================
// Vision Connector - Stored Procedure Parameters
// =============================================================================
//
// This file builds the data/param document of ExecuteStoredProcedure. Each
// value is encoded with the XML value codec.
//
// =============================================================================

package envelope

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

// Param is one named stored procedure argument.
type Param struct {
	Name  string
	Value xmlvalue.Value
}

// Parameters builds the data/param document passed to
// ExecuteStoredProcedure. An empty list yields an empty data element.
func Parameters(params ...Param) string {
	root := etree.NewElement("data")
	for _, p := range params {
		el := textElement(root, "param", xmlvalue.Encode(p.Value))
		el.CreateAttr("name", p.Name)
	}
	return String(root)
}
