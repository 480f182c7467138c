package dataset

import (
	"fmt"
)

// Row is one record aligned with a Schema by position.
type Row struct {
	Index   int
	Values  []string
	Deleted bool
	schema  *Schema
}

func NewRow(schema *Schema, index int, values []string) *Row {
	return &Row{
		Index:  index,
		Values: values,
		schema: schema,
	}
}

func (r *Row) Schema() *Schema {
	return r.schema
}

func (r *Row) Len() int {
	return len(r.Values)
}

// Get returns the value of a column looked up by id or display name.
// Unknown columns read as empty.
func (r *Row) Get(column string) string {
	if r.schema == nil {
		return ""
	}
	i := r.schema.Lookup(column)
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

func (r *Row) Set(column string, value string) error {
	if r.schema == nil {
		return fmt.Errorf("row %d is not bound to a schema", r.Index)
	}
	i := r.schema.Lookup(column)
	if i < 0 || i >= len(r.Values) {
		return fmt.Errorf("row %d has no column '%s'", r.Index, column)
	}
	r.Values[i] = value
	return nil
}

// GetByID returns the value of the column with the given id, ignoring
// display names. The second result is false when the column is unknown.
func (r *Row) GetByID(id string) (string, bool) {
	if r.schema == nil {
		return "", false
	}
	i := r.schema.IndexOf(id)
	if i < 0 || i >= len(r.Values) {
		return "", false
	}
	return r.Values[i], true
}

func (r *Row) SetByID(id string, value string) error {
	if r.schema == nil {
		return fmt.Errorf("row %d is not bound to a schema", r.Index)
	}
	i := r.schema.IndexOf(id)
	if i < 0 || i >= len(r.Values) {
		return fmt.Errorf("row %d has no column with id '%s'", r.Index, id)
	}
	r.Values[i] = value
	return nil
}

// Mapped returns the row values keyed by column display name. When names
// repeat, the first column wins, as with Get.
func (r *Row) Mapped() map[string]string {
	result := make(map[string]string, len(r.Values))
	if r.schema == nil {
		return result
	}
	for i := 0; i < r.schema.Len() && i < len(r.Values); i++ {
		name := r.schema.Column(i).Name
		if _, seen := result[name]; !seen {
			result[name] = r.Values[i]
		}
	}
	return result
}

// MappedByID returns the row values keyed by column id.
func (r *Row) MappedByID() map[string]string {
	result := make(map[string]string, len(r.Values))
	if r.schema == nil {
		return result
	}
	for i := 0; i < r.schema.Len() && i < len(r.Values); i++ {
		result[r.schema.Column(i).ID] = r.Values[i]
	}
	return result
}

func (r *Row) Clone() *Row {
	return &Row{
		Index:   r.Index,
		Values:  append([]string(nil), r.Values...),
		Deleted: r.Deleted,
		schema:  r.schema,
	}
}
