// Package writer serializes a transformed dataset: the schema once, then rows
// (full mode) or before/after row pairs (preview mode).
package writer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/document"
)

type writerState int

const (
	stateEmpty writerState = iota
	stateRecords
	stateClosed
)

// JSONWriter emits the same columns/records layout the document reader
// accepts. Preview entries are {"index", "original", "transformed",
// "changed", "_deleted"}.
type JSONWriter struct {
	w     *bufio.Writer
	state writerState
	rows  int
}

func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(output)}
}

func (j *JSONWriter) WriteSchema(schema *dataset.Schema) error {
	if j.state != stateEmpty {
		return errors.New("schema already written")
	}
	columns, err := json.Marshal(schema.Columns())
	if err != nil {
		return fmt.Errorf("cannot encode columns: %w", err)
	}
	j.w.WriteString(`{"` + document.ColumnsKey + `":`)
	j.w.Write(columns)
	_, err = j.w.WriteString(`,"` + document.RecordsKey + `":[`)
	j.state = stateRecords
	return err
}

func (j *JSONWriter) WriteRow(row *dataset.Row) error {
	if err := j.beginRecord(); err != nil {
		return err
	}
	if err := j.writeValues(row, row.Deleted); err != nil {
		return err
	}
	return nil
}

func (j *JSONWriter) WriteRowDiff(original, transformed *dataset.Row) error {
	if err := j.beginRecord(); err != nil {
		return err
	}
	fmt.Fprintf(j.w, `{"index":%d,"original":`, transformed.Index)
	if err := j.writeValues(original, false); err != nil {
		return err
	}
	j.w.WriteString(`,"transformed":`)
	if err := j.writeValues(transformed, false); err != nil {
		return err
	}
	changed, err := json.Marshal(changedColumns(original, transformed))
	if err != nil {
		return fmt.Errorf("cannot encode changed columns: %w", err)
	}
	j.w.WriteString(`,"changed":`)
	j.w.Write(changed)
	if transformed.Deleted {
		j.w.WriteString(`,"` + document.DeletedKey + `":true`)
	}
	return j.w.WriteByte('}')
}

// Close terminates the records array and the root object, then flushes.
// Nothing is written if the schema never was.
func (j *JSONWriter) Close() error {
	if j.state == stateClosed {
		return nil
	}
	if j.state == stateRecords {
		j.w.WriteString("]}")
	}
	j.state = stateClosed
	return j.w.Flush()
}

func (j *JSONWriter) beginRecord() error {
	if j.state != stateRecords {
		return errors.New("schema must be written before rows")
	}
	if j.rows > 0 {
		if err := j.w.WriteByte(','); err != nil {
			return err
		}
	}
	j.rows++
	return nil
}

func (j *JSONWriter) writeValues(row *dataset.Row, deleted bool) error {
	schema := row.Schema()
	j.w.WriteByte('{')
	for i := 0; i < schema.Len() && i < len(row.Values); i++ {
		if i > 0 {
			j.w.WriteByte(',')
		}
		if err := j.writeString(schema.Column(i).ID); err != nil {
			return err
		}
		j.w.WriteByte(':')
		if err := j.writeString(row.Values[i]); err != nil {
			return err
		}
	}
	if deleted {
		if len(row.Values) > 0 {
			j.w.WriteByte(',')
		}
		j.w.WriteString(`"` + document.DeletedKey + `":true`)
	}
	return j.w.WriteByte('}')
}

func (j *JSONWriter) writeString(value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = j.w.Write(encoded)
	return err
}

func changedColumns(original, transformed *dataset.Row) []string {
	schema := transformed.Schema()
	changed := []string{}
	for i := 0; i < schema.Len() && i < len(transformed.Values); i++ {
		if i >= len(original.Values) || original.Values[i] != transformed.Values[i] {
			changed = append(changed, schema.Column(i).ID)
		}
	}
	return changed
}
