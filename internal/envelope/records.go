// =============================================================================
// Vision Connector - Record Payloads
// =============================================================================
//
// This file builds the RECS payloads of the write operations from a
// RecordStructure: a tree of tables, each holding its rows.
//
// =============================================================================

package envelope

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

// Row transaction types.
const (
	TranInsert = "INSERT"
	TranUpdate = "UPDATE"
	TranDelete = "DELETE"
)

// Field is one column of a row.
type Field struct {
	Name  string
	Value xmlvalue.Value
}

// F is shorthand for a Field.
func F(name string, value xmlvalue.Value) Field {
	return Field{Name: name, Value: value}
}

// T is shorthand for a text Field.
func T(name, value string) Field {
	return Field{Name: name, Value: xmlvalue.Text(value)}
}

// Row is an ordered set of fields. Fields are written in the order they
// were added.
type Row struct {
	fields []Field
}

// NewRow returns a row holding fields in order.
func NewRow(fields ...Field) Row {
	return Row{fields: append([]Field(nil), fields...)}
}

// Fields returns the fields of the row in order.
func (r Row) Fields() []Field {
	return r.fields
}

// Get returns the value of the named field.
func (r Row) Get(name string) (xmlvalue.Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return xmlvalue.Value{}, false
}

// Set replaces the named field or appends it.
func (r *Row) Set(name string, value xmlvalue.Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// RowSet is an ordered list of rows sharing one transaction type.
type RowSet []Row

// Add appends a row built from fields.
func (rs *RowSet) Add(fields ...Field) {
	*rs = append(*rs, NewRow(fields...))
}

// AddColumns appends a row pairing column names with values.
func (rs *RowSet) AddColumns(columns []string, values []xmlvalue.Value) error {
	if len(columns) != len(values) {
		return errors.NotValidf("row with %d columns and %d values", len(columns), len(values))
	}
	row := Row{fields: make([]Field, 0, len(columns))}
	for i, name := range columns {
		if name == "" {
			return errors.NotValidf("empty column name at position %d", i+1)
		}
		row.fields = append(row.fields, Field{Name: name, Value: values[i]})
	}
	*rs = append(*rs, row)
	return nil
}

// AddList appends a row from comma separated column and value lists. All
// values are text.
func (rs *RowSet) AddList(columns, values string) error {
	vals := strings.Split(values, ",")
	texts := make([]xmlvalue.Value, len(vals))
	for i, v := range vals {
		texts[i] = xmlvalue.Text(v)
	}
	return rs.AddColumns(splitList(columns), texts)
}

// TableStructure describes one table of a transactional payload together with
// its rows and any child tables that belong to the same record.
type TableStructure struct {
	Table string
	Name  string
	Alias string
	Keys  []string

	Inserts RowSet
	Updates RowSet
	Deletes RowSet

	Children []*TableStructure
}

// AddChild appends a child table and returns it.
func (t *TableStructure) AddChild(table, name, alias, keys string) *TableStructure {
	child := newTable(table, name, alias, keys)
	t.Children = append(t.Children, child)
	return child
}

// RecordStructure is the root of a transactional payload. Each top-level
// table becomes one REC element.
type RecordStructure struct {
	Tables []*TableStructure
}

// AddTable appends a top-level table and returns it. keys is a comma
// separated list of key field names.
func (r *RecordStructure) AddTable(table, name, alias, keys string) *TableStructure {
	t := newTable(table, name, alias, keys)
	r.Tables = append(r.Tables, t)
	return t
}

// AddProjectTable adds the PR table keyed by WBS1, WBS2 and WBS3.
func (r *RecordStructure) AddProjectTable() *TableStructure {
	return r.AddTable("PR", "PR", "PR", "WBS1,WBS2,WBS3")
}

// AddClientTable adds the CL table keyed by ClientId.
func (r *RecordStructure) AddClientTable() *TableStructure {
	return r.AddTable("CL", "CL", "CL", "ClientId")
}

// AddEmployeeTable adds the EM table keyed by Employee.
func (r *RecordStructure) AddEmployeeTable() *TableStructure {
	return r.AddTable("EM", "EM", "EM", "Employee")
}

// AddContactTable adds the Contacts table keyed by ContactId.
func (r *RecordStructure) AddContactTable() *TableStructure {
	return r.AddTable("Contacts", "Contacts", "Contacts", "ContactId")
}

// Validate checks that every row carries the key fields its table declares.
func (r *RecordStructure) Validate() error {
	for _, t := range r.Tables {
		if err := t.validate(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (t *TableStructure) validate() error {
	if t.Table == "" {
		return errors.NotValidf("table with empty name")
	}
	sets := []struct {
		tranType string
		rows     RowSet
	}{
		{TranInsert, t.Inserts},
		{TranUpdate, t.Updates},
		{TranDelete, t.Deletes},
	}
	for _, set := range sets {
		for i, row := range set.rows {
			for _, key := range t.Keys {
				if _, ok := row.Get(key); !ok {
					return errors.NotValidf("%s row %d of table %s without key field %q",
						set.tranType, i+1, t.Table, key)
				}
			}
		}
	}
	for _, child := range t.Children {
		if err := child.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Build validates r and renders it as a RECS element. Tables are written
// depth first, each before its children, and within a table inserts come
// before updates which come before deletes.
func (r *RecordStructure) Build() (*etree.Element, error) {
	if err := r.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	recs := etree.NewElement("RECS")
	for _, t := range r.Tables {
		rec := recs.CreateElement("REC")
		t.render(rec)
	}
	return recs, nil
}

func (t *TableStructure) render(rec *etree.Element) {
	table := rec.CreateElement(t.Table)
	table.CreateAttr("name", t.Name)
	table.CreateAttr("alias", t.Alias)
	table.CreateAttr("keys", strings.Join(t.Keys, ","))
	renderRows(table, t.Inserts, TranInsert)
	renderRows(table, t.Updates, TranUpdate)
	renderRows(table, t.Deletes, TranDelete)
	for _, child := range t.Children {
		child.render(rec)
	}
}

func renderRows(table *etree.Element, rows RowSet, tranType string) {
	for _, row := range rows {
		el := table.CreateElement("ROW")
		el.CreateAttr("tranType", tranType)
		for _, f := range row.fields {
			textElement(el, f.Name, xmlvalue.Encode(f.Value))
		}
	}
}

func newTable(table, name, alias, keys string) *TableStructure {
	return &TableStructure{
		Table: table,
		Name:  name,
		Alias: alias,
		Keys:  splitList(keys),
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
