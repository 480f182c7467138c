package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrPipelineFailure   = errors.New("pipeline failure")
	ErrTransportFailure  = errors.New("transport failure")
)

// Stage tells at which nesting level of the document a parse failure happened.
type Stage string

const (
	StageDocument Stage = "document"
	StageColumn   Stage = "column"
	StageRecord   Stage = "record"
)

// NoIndex marks errors that are not tied to a column or row position.
const NoIndex = -1

type MalformedDocumentError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *MalformedDocumentError) Error() string {
	if e.Index == NoIndex {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedDocument, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s %d: %v", ErrMalformedDocument, e.Stage, e.Index, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func Malformed(stage Stage, index int, err error) error {
	return &MalformedDocumentError{Stage: stage, Index: index, Err: err}
}

// PipelineError reports a failing mutator. Row is NoIndex for schema mutators.
type PipelineError struct {
	Action string
	Row    int
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Row == NoIndex {
		return fmt.Sprintf("%s: action '%s' on schema: %v", ErrPipelineFailure, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: action '%s' on row %d: %v", ErrPipelineFailure, e.Action, e.Row, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	return target == ErrPipelineFailure
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransportFailure, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// Transport wraps err as a TransportError unless it already carries a kind.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransportFailure) || errors.Is(err, ErrMalformedDocument) || errors.Is(err, ErrPipelineFailure) {
		return err
	}
	return &TransportError{Err: err}
}
