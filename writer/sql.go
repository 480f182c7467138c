package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duffpl/go-dtp/dataset"
	"github.com/pingcap/parser/format"
)

// DeletedColumn is the extra column carrying the deletion flag in SQL output.
const DeletedColumn = "_deleted"

// errWriter remembers the first write error; the restore context drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// SQLWriter emits a MySQL dump: one CREATE TABLE, then one INSERT per row.
// It has no representation for previews.
type SQLWriter struct {
	out    *bufio.Writer
	sink   *errWriter
	ctx    *format.RestoreCtx
	table  string
	schema *dataset.Schema
	state  writerState
}

func NewSQLWriter(output io.Writer, table string) *SQLWriter {
	sink := &errWriter{w: output}
	out := bufio.NewWriter(sink)
	return &SQLWriter{
		out:   out,
		sink:  sink,
		ctx:   format.NewRestoreCtx(format.DefaultRestoreFlags, out),
		table: table,
	}
}

func sqlType(columnType dataset.Type) string {
	switch columnType {
	case dataset.TypeInteger:
		return "BIGINT"
	case dataset.TypeNumeric, dataset.TypeDouble, dataset.TypeFloat:
		return "DOUBLE"
	case dataset.TypeBoolean:
		return "BOOLEAN"
	case dataset.TypeDate:
		return "DATE"
	}
	return "TEXT"
}

// checkColumnNames rejects names MySQL would refuse in one table; column
// names are case-insensitive there.
func checkColumnNames(schema *dataset.Schema) error {
	seen := map[string]string{strings.ToLower(DeletedColumn): DeletedColumn}
	for i := 0; i < schema.Len(); i++ {
		name := schema.Column(i).Name
		if previous, ok := seen[strings.ToLower(name)]; ok {
			return fmt.Errorf("column name '%s' clashes with '%s'", name, previous)
		}
		seen[strings.ToLower(name)] = name
	}
	return nil
}

func (s *SQLWriter) WriteSchema(schema *dataset.Schema) error {
	if s.state != stateEmpty {
		return errors.New("schema already written")
	}
	if err := checkColumnNames(schema); err != nil {
		return err
	}
	s.schema = schema
	s.ctx.WriteKeyWord("CREATE TABLE ")
	s.ctx.WriteName(s.table)
	s.ctx.WritePlain(" (")
	for i := 0; i < schema.Len(); i++ {
		column := schema.Column(i)
		s.ctx.WriteName(column.Name)
		s.ctx.WritePlain(" ")
		s.ctx.WriteKeyWord(sqlType(column.Type))
		s.ctx.WritePlain(", ")
	}
	s.ctx.WriteName(DeletedColumn)
	s.ctx.WritePlain(" ")
	s.ctx.WriteKeyWord("BOOLEAN")
	s.ctx.WritePlain(");\n")
	s.state = stateRecords
	return s.sink.err
}

func (s *SQLWriter) WriteRow(row *dataset.Row) error {
	if s.state != stateRecords {
		return errors.New("schema must be written before rows")
	}
	width := s.schema.Len()
	if len(row.Values) < width {
		width = len(row.Values)
	}
	// booleans are checked up front so a bad cell never leaves half a statement
	flags := make(map[int]bool)
	for i := 0; i < width; i++ {
		column := s.schema.Column(i)
		if sqlType(column.Type) != "BOOLEAN" || row.Values[i] == "" {
			continue
		}
		flag, err := strconv.ParseBool(row.Values[i])
		if err != nil {
			return fmt.Errorf("row %d: column '%s': invalid boolean '%s'", row.Index, column.Name, row.Values[i])
		}
		flags[i] = flag
	}
	s.ctx.WriteKeyWord("INSERT INTO ")
	s.ctx.WriteName(s.table)
	s.ctx.WriteKeyWord(" VALUES ")
	s.ctx.WritePlain("(")
	for i := 0; i < width; i++ {
		value := row.Values[i]
		flag, isFlag := flags[i]
		switch {
		case isFlag:
			s.ctx.WritePlain(boolLiteral(flag))
		case sqlType(s.schema.Column(i).Type) == "TEXT":
			s.ctx.WriteString(value)
		case value == "":
			s.ctx.WriteKeyWord("NULL")
		default:
			s.ctx.WriteString(value)
		}
		s.ctx.WritePlain(",")
	}
	s.ctx.WritePlain(boolLiteral(row.Deleted))
	s.ctx.WritePlain(");\n")
	return s.sink.err
}

func boolLiteral(flag bool) string {
	if flag {
		return "1"
	}
	return "0"
}

func (s *SQLWriter) WriteRowDiff(_, _ *dataset.Row) error {
	return errors.New("sql output does not support previews")
}

func (s *SQLWriter) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	return s.out.Flush()
}
