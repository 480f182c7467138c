package processor

import (
	"errors"
	"io"

	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/transformations"
)

// Writer receives the transformed dataset. Close is always called exactly
// once per run, whatever the outcome.
type Writer interface {
	WriteSchema(schema *dataset.Schema) error
	WriteRow(row *dataset.Row) error
	WriteRowDiff(original, transformed *dataset.Row) error
	Close() error
}

type Mode int

const (
	ModeFull Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "full"
}

type State int

const (
	StateInit State = iota
	StateSchemaReady
	StateStreaming
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:        "init",
	StateSchemaReady: "schema-ready",
	StateStreaming:   "streaming",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	return stateNames[s]
}

// Configuration describes one run. Indexes must be non-nil in preview mode;
// an empty set is valid and yields a schema-only output.
type Configuration struct {
	Input    io.Reader
	Output   Writer
	Pipeline *transformations.Pipeline
	Mode     Mode
	Indexes  []int
	Encoding string
}

func (c Configuration) Validate() error {
	if c.Input == nil {
		return errors.New("input is required")
	}
	if c.Output == nil {
		return errors.New("output is required")
	}
	if c.Mode == ModePreview && c.Indexes == nil {
		return errors.New("preview requires an index set")
	}
	return nil
}

type Result struct {
	State       State
	RowsRead    int
	RowsWritten int
}
