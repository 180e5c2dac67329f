// =============================================================================
// Vision Connector - Payload Namespace
// =============================================================================
//
// This file stamps the configured XML namespace onto outgoing payloads.
//
// =============================================================================

package envelope

import "github.com/beevik/etree"

// ApplyNamespace moves el and all of its descendants into the default
// namespace ns. Prefixes and nested default namespace declarations are
// dropped so that every element inherits ns from el. Applying it again with
// the same ns leaves the tree unchanged.
func ApplyNamespace(el *etree.Element, ns string) *etree.Element {
	if el == nil {
		return nil
	}
	clearNamespace(el)
	if ns != "" {
		el.CreateAttr("xmlns", ns)
	}
	return el
}

func clearNamespace(el *etree.Element) {
	el.Space = ""
	el.RemoveAttr("xmlns")
	for _, child := range el.ChildElements() {
		clearNamespace(child)
	}
}
