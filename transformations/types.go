package transformations

import (
	"github.com/duffpl/go-dtp/dataset"
)

// SchemaMutator changes the schema in place. It runs once per run, before
// any row is read.
type SchemaMutator func(schema *dataset.Schema) error

// RowMutator changes one row in place. It may rewrite values and the
// deletion flag but must keep the number of cells.
type RowMutator func(row *dataset.Row) error

// Action pairs the schema and row side of one transformation step. Either
// side may be nil.
type Action struct {
	Name   string
	Schema SchemaMutator
	Row    RowMutator
}

// Identity leaves both schema and rows untouched.
var Identity = Action{
	Name:   "identity",
	Schema: func(*dataset.Schema) error { return nil },
	Row:    func(*dataset.Row) error { return nil },
}

// RowData is what action templates are rendered with. Row is keyed by
// display name, Columns by column id.
type RowData struct {
	Value     string
	Row       map[string]string
	Columns   map[string]string
	Index     int
	Deleted   bool
	Variables map[string]string
}

func newRowData(row *dataset.Row, value string, variables map[string]string) RowData {
	return RowData{
		Value:     value,
		Row:       row.Mapped(),
		Columns:   row.MappedByID(),
		Index:     row.Index,
		Deleted:   row.Deleted,
		Variables: variables,
	}
}
