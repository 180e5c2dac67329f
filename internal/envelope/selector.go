// =============================================================================
// Vision Connector - Info Center Selectors
// =============================================================================
//
// This file builds the read selectors: the InfoCenters element with the
// chunk number and chunk size used for paging, key lists, query lists and
// the pick list request.
//
// =============================================================================

package envelope

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// DefaultChunkSize is the page size requested when a Selector asks for
// pagination without naming one.
const DefaultChunkSize = 100

// Selector controls the InfoCenter attributes of a retrieval request.
type Selector struct {
	// RowAccess asks the server to apply row level security.
	RowAccess bool

	// Chunk is the 1-based page to fetch. Zero or less disables
	// pagination and omits the Chunk attributes entirely.
	Chunk int

	// ChunkSize is the number of records per page. Defaults to
	// DefaultChunkSize.
	ChunkSize int

	// TableInfo, when set, is copied under the InfoCenter element to
	// restrict the returned tables and columns.
	TableInfo *etree.Element
}

// InfoCenter builds the InfoCenters selector for the named info center.
//
// PARAMETERS:
//   - name: The info center, for example Projects
//   - sel: Paging and row access settings
//
// RETURNS:
//   - The serialized InfoCenters element
func InfoCenter(name string, sel Selector) string {
	root := etree.NewElement("InfoCenters")
	ic := root.CreateElement("InfoCenter")
	ic.CreateAttr("ID", "1")
	ic.CreateAttr("Name", name)
	rowAccess := "0"
	if sel.RowAccess {
		rowAccess = "1"
	}
	ic.CreateAttr("RowAccess", rowAccess)
	ic.CreateAttr("PartialAccess", "1")
	if sel.Chunk > 0 {
		size := sel.ChunkSize
		if size <= 0 {
			size = DefaultChunkSize
		}
		ic.CreateAttr("Chunk", strconv.Itoa(sel.Chunk))
		ic.CreateAttr("ChunkSize", strconv.Itoa(size))
	}
	if sel.TableInfo != nil {
		ic.AddChild(sel.TableInfo.Copy())
	}
	return String(root)
}

// Key is one record key made of ordered sub-key components, for example
// the WBS1, WBS2 and WBS3 segments of a project.
type Key []string

// ParseKey splits a comma separated key such as "2003005.00,1PD,COD".
func ParseKey(s string) Key {
	parts := strings.Split(s, ",")
	key := make(Key, 0, len(parts))
	for _, p := range parts {
		key = append(key, strings.TrimSpace(p))
	}
	return key
}

// KeyList is an ordered list of keys.
type KeyList []Key

// Keys builds the KeyValues fragment, numbering each key from 1.
func Keys(keys KeyList) string {
	root := etree.NewElement("KeyValues")
	for i, key := range keys {
		k := root.CreateElement("Keys")
		k.CreateAttr("ID", strconv.Itoa(i+1))
		fields := k.CreateElement("Key")
		for _, sub := range key {
			textElement(fields, "Fld", sub)
		}
	}
	return String(root)
}

// SingleKeys builds a KeyValues fragment holding one single-component key per
// value.
func SingleKeys(values ...string) string {
	keys := make(KeyList, 0, len(values))
	for _, v := range values {
		keys = append(keys, Key{v})
	}
	return Keys(keys)
}

// Queries builds the Queries fragment, numbering each query from 1.
func Queries(queries ...string) string {
	root := etree.NewElement("Queries")
	for i, q := range queries {
		el := textElement(root, "Query", q)
		el.CreateAttr("ID", strconv.Itoa(i+1))
	}
	return String(root)
}

// PickList builds a PickListRequest for the named pick list.
func PickList(name string, hierarchical bool) string {
	root := etree.NewElement("PickListRequest")
	pl := root.CreateElement("PickList")
	pl.CreateAttr("Type", name)
	h := "0"
	if hierarchical {
		h = "1"
	}
	pl.CreateAttr("Hierarchical", h)
	return String(root)
}
