// Package document reads the columns-then-records dataset document
// incrementally. The schema is handed out once; records are streamed one at
// a time and never buffered.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/duffpl/go-dtp/dataset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const (
	ColumnsKey = "columns"
	RecordsKey = "records"
	// DeletedKey is the reserved record key carrying the deletion flag.
	DeletedKey = "_deleted"
)

type readerState int

const (
	stateStart readerState = iota
	stateRecords
	stateExhausted
	stateFailed
)

type options struct {
	encoding string
}

type Option func(*options)

// WithEncoding decodes the input from the given WHATWG encoding label
// (e.g. "windows-1250", "iso-8859-2") before parsing.
func WithEncoding(label string) Option {
	return func(o *options) {
		o.encoding = label
	}
}

type Reader struct {
	dec       *json.Decoder
	state     readerState
	inputIDs  []string
	inputPos  map[string]int
	schema    *dataset.Schema
	positions []int
	next      int
}

func NewReader(input io.Reader, opts ...Option) (*Reader, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.encoding != "" {
		enc, err := htmlindex.Get(o.encoding)
		if err != nil {
			return nil, fmt.Errorf("unknown input encoding '%s': %w", o.encoding, err)
		}
		input = transform.NewReader(input, enc.NewDecoder())
	}
	dec := json.NewDecoder(input)
	dec.UseNumber()
	return &Reader{dec: dec}, nil
}

// ReadSchema parses the columns section and positions the reader at the first
// record. It fails unless both sections are present, columns first.
func (r *Reader) ReadSchema() (*dataset.Schema, error) {
	if r.state != stateStart {
		return nil, errors.New("schema already read")
	}
	schema, err := r.readSchema()
	if err != nil {
		r.state = stateFailed
		return nil, err
	}
	r.state = stateRecords
	r.schema = schema
	return schema, nil
}

func (r *Reader) readSchema() (*dataset.Schema, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return nil, r.fail(dataset.StageDocument, dataset.NoIndex, err)
	}
	if tok != json.Delim('{') {
		return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("document root must be an object"))
	}
	var schema *dataset.Schema
	for r.dec.More() {
		key, err := r.readKey(dataset.StageDocument, dataset.NoIndex)
		if err != nil {
			return nil, err
		}
		switch key {
		case ColumnsKey:
			if schema != nil {
				return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("columns section appears twice"))
			}
			schema, err = r.readColumns()
			if err != nil {
				return nil, err
			}
		case RecordsKey:
			if schema == nil {
				return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("records section found before columns section"))
			}
			tok, err := r.dec.Token()
			if err != nil {
				return nil, r.fail(dataset.StageDocument, dataset.NoIndex, err)
			}
			if tok != json.Delim('[') {
				return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("records section must be an array"))
			}
			return schema, nil
		default:
			if err := r.skipValue(dataset.StageDocument, dataset.NoIndex); err != nil {
				return nil, err
			}
		}
	}
	// More() also reports false on read errors, Token surfaces them.
	if _, err := r.dec.Token(); err != nil {
		return nil, r.fail(dataset.StageDocument, dataset.NoIndex, err)
	}
	if schema == nil {
		return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("missing columns section"))
	}
	return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("missing records section"))
}

type columnEntry struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Statistics *dataset.Statistics `json:"statistics"`
}

func (r *Reader) readColumns() (*dataset.Schema, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return nil, r.fail(dataset.StageDocument, dataset.NoIndex, err)
	}
	if tok != json.Delim('[') {
		return nil, dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("columns section must be an array"))
	}
	schema, _ := dataset.NewSchema()
	for i := 0; r.dec.More(); i++ {
		var entry columnEntry
		if err := r.dec.Decode(&entry); err != nil {
			return nil, r.fail(dataset.StageColumn, i, err)
		}
		columnType, err := dataset.ParseType(entry.Type)
		if err != nil {
			return nil, dataset.Malformed(dataset.StageColumn, i, err)
		}
		if entry.Name == "" {
			entry.Name = entry.ID
		}
		err = schema.Add(dataset.ColumnDescriptor{
			ID:         entry.ID,
			Name:       entry.Name,
			Type:       columnType,
			Statistics: entry.Statistics,
		})
		if err != nil {
			return nil, dataset.Malformed(dataset.StageColumn, i, err)
		}
	}
	if _, err := r.dec.Token(); err != nil {
		return nil, r.fail(dataset.StageDocument, dataset.NoIndex, err)
	}
	r.inputIDs = schema.IDs()
	r.inputPos = make(map[string]int, len(r.inputIDs))
	for i, id := range r.inputIDs {
		r.inputPos[id] = i
	}
	return schema, nil
}

// Bind aligns the following records with schema instead of the schema
// returned by ReadSchema. Record keys are matched by column id: columns the
// input does not know start empty, input columns missing from schema are
// dropped.
func (r *Reader) Bind(schema *dataset.Schema) {
	r.schema = schema
	r.positions = nil
}

func (r *Reader) bound() {
	if r.positions != nil {
		return
	}
	r.positions = make([]int, len(r.inputIDs))
	for i, id := range r.inputIDs {
		r.positions[i] = r.schema.IndexOf(id)
	}
}

// Next returns the next record, or io.EOF once the records section is done.
func (r *Reader) Next() (*dataset.Row, error) {
	more, err := r.hasNext()
	if err != nil || !more {
		return nil, err
	}
	index := r.next
	r.next++
	values := make([]string, r.schema.Len())
	deleted, err := r.readRecord(index, func(pos int, value string) {
		values[pos] = value
	})
	if err != nil {
		r.state = stateFailed
		return nil, err
	}
	row := dataset.NewRow(r.schema, index, values)
	row.Deleted = deleted
	return row, nil
}

// Skip consumes and validates the next record without building a row.
func (r *Reader) Skip() error {
	more, err := r.hasNext()
	if err != nil {
		return err
	}
	if !more {
		return io.EOF
	}
	index := r.next
	r.next++
	if _, err := r.readRecord(index, nil); err != nil {
		r.state = stateFailed
		return err
	}
	return nil
}

// Position is the index the next record will get.
func (r *Reader) Position() int {
	return r.next
}

func (r *Reader) hasNext() (bool, error) {
	switch r.state {
	case stateStart:
		return false, errors.New("records requested before schema")
	case stateFailed:
		return false, errors.New("reader already failed")
	case stateExhausted:
		return false, io.EOF
	}
	r.bound()
	if r.dec.More() {
		return true, nil
	}
	tok, err := r.dec.Token()
	if err != nil {
		r.state = stateFailed
		return false, r.fail(dataset.StageRecord, r.next, err)
	}
	if tok != json.Delim(']') {
		r.state = stateFailed
		return false, dataset.Malformed(dataset.StageRecord, r.next, fmt.Errorf("unexpected token %v", tok))
	}
	r.state = stateExhausted
	return false, io.EOF
}

func (r *Reader) readRecord(index int, set func(pos int, value string)) (bool, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return false, r.fail(dataset.StageRecord, index, err)
	}
	deleted := false
	switch tok {
	case json.Delim('{'):
		for r.dec.More() {
			key, err := r.readKey(dataset.StageRecord, index)
			if err != nil {
				return false, err
			}
			valueTok, err := r.dec.Token()
			if err != nil {
				return false, r.fail(dataset.StageRecord, index, err)
			}
			if key == DeletedKey {
				flag, ok := valueTok.(bool)
				if !ok {
					return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("'%s' must be a boolean", DeletedKey))
				}
				deleted = flag
				continue
			}
			value, err := scalar(valueTok)
			if err != nil {
				return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("column '%s': %w", key, err))
			}
			pos, known := r.inputPos[key]
			if !known {
				return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("unknown column '%s'", key))
			}
			if target := r.positions[pos]; target >= 0 && set != nil {
				set(target, value)
			}
		}
	case json.Delim('['):
		count := 0
		for r.dec.More() {
			valueTok, err := r.dec.Token()
			if err != nil {
				return false, r.fail(dataset.StageRecord, index, err)
			}
			value, err := scalar(valueTok)
			if err != nil {
				return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("value %d: %w", count, err))
			}
			if count >= len(r.inputIDs) {
				return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("record has more than %d values", len(r.inputIDs)))
			}
			if target := r.positions[count]; target >= 0 && set != nil {
				set(target, value)
			}
			count++
		}
		if count != len(r.inputIDs) {
			return false, dataset.Malformed(dataset.StageRecord, index, fmt.Errorf("record has %d values, expected %d", count, len(r.inputIDs)))
		}
	default:
		return false, dataset.Malformed(dataset.StageRecord, index, errors.New("record must be an object or an array"))
	}
	// closing delimiter of the record
	if _, err := r.dec.Token(); err != nil {
		return false, r.fail(dataset.StageRecord, index, err)
	}
	return deleted, nil
}

// Finish consumes the rest of the document after the records section and
// checks that nothing but the closing of the root object follows.
func (r *Reader) Finish() error {
	if r.state != stateExhausted {
		return errors.New("records section not fully read")
	}
	for r.dec.More() {
		if _, err := r.readKey(dataset.StageDocument, dataset.NoIndex); err != nil {
			return err
		}
		if err := r.skipValue(dataset.StageDocument, dataset.NoIndex); err != nil {
			return err
		}
	}
	if _, err := r.dec.Token(); err != nil {
		return r.fail(dataset.StageDocument, dataset.NoIndex, err)
	}
	if _, err := r.dec.Token(); err != io.EOF {
		if err != nil {
			return r.fail(dataset.StageDocument, dataset.NoIndex, err)
		}
		return dataset.Malformed(dataset.StageDocument, dataset.NoIndex, errors.New("trailing data after document"))
	}
	return nil
}

func (r *Reader) readKey(stage dataset.Stage, index int) (string, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return "", r.fail(stage, index, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", dataset.Malformed(stage, index, fmt.Errorf("expected object key, got %v", tok))
	}
	return key, nil
}

func (r *Reader) skipValue(stage dataset.Stage, index int) error {
	depth := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return r.fail(stage, index, err)
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}

// fail maps decoder errors: broken or truncated JSON is malformed data,
// anything else comes from the underlying stream.
func (r *Reader) fail(stage dataset.Stage, index int, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return dataset.Malformed(stage, index, fmt.Errorf("unexpected end of document: %w", err))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return dataset.Malformed(stage, index, err)
	}
	return dataset.Transport(fmt.Errorf("cannot read document: %w", err))
}

func scalar(tok json.Token) (string, error) {
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	}
	return "", errors.New("nested values are not allowed")
}
