// Package processor drives a dataset from a JSON document through a
// transformation pipeline into a Writer.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/document"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

var log logrus.FieldLogger = logrus.New()

func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

// Processor runs a single transformation. Input is consumed, so a Processor
// cannot be reused.
type Processor struct {
	config Configuration
	used   bool
	state  State
	result Result
	logger logrus.FieldLogger
}

func NewProcessor(config Configuration) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if config.Mode == ModePreview {
		config.Indexes = normalizeIndexes(config.Indexes)
	}
	return &Processor{
		config: config,
		logger: log.WithField("mode", config.Mode),
	}, nil
}

// normalizeIndexes sorts and dedups the preview set and drops negatives.
func normalizeIndexes(indexes []int) []int {
	normalized := slices.Clone(indexes)
	slices.Sort(normalized)
	normalized = slices.Compact(normalized)
	first, _ := slices.BinarySearch(normalized, 0)
	return normalized[first:]
}

func (p *Processor) transition(state State) {
	p.logger.WithFields(logrus.Fields{"from": p.state, "to": state}).Debug("state change")
	p.state = state
}

// Process streams the input to the output. The schema is written exactly once
// before any row, and the output is closed on every path. Any failure is
// fatal: rows already handed to the writer stay written.
func (p *Processor) Process(ctx context.Context) (result Result, err error) {
	if p.used {
		return p.result, errors.New("processor already used")
	}
	p.used = true
	p.logger.Info("transformation started")
	defer func() {
		closeErr := p.config.Output.Close()
		if err == nil && closeErr != nil {
			err = dataset.Transport(fmt.Errorf("cannot close output: %w", closeErr))
		}
		if err != nil {
			p.transition(StateFailed)
		} else {
			p.transition(StateDone)
		}
		p.result.State = p.state
		result = p.result
		logger := p.logger.WithFields(logrus.Fields{"read": result.RowsRead, "written": result.RowsWritten})
		if err != nil {
			logger.WithError(err).Error("transformation failed")
		} else {
			logger.Info("transformation done")
		}
	}()
	reader, err := p.prepare()
	if err != nil {
		return Result{}, err
	}
	p.transition(StateStreaming)
	if p.config.Mode == ModePreview {
		return Result{}, p.streamPreview(ctx, reader)
	}
	return Result{}, p.streamFull(ctx, reader)
}

func (p *Processor) prepare() (*document.Reader, error) {
	var opts []document.Option
	if p.config.Encoding != "" {
		opts = append(opts, document.WithEncoding(p.config.Encoding))
	}
	reader, err := document.NewReader(p.config.Input, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create reader: %w", err)
	}
	input, err := reader.ReadSchema()
	if err != nil {
		return nil, err
	}
	schema := input.Clone()
	if err := p.config.Pipeline.ApplySchema(schema); err != nil {
		return nil, err
	}
	reader.Bind(schema)
	if err := p.config.Output.WriteSchema(schema); err != nil {
		return nil, dataset.Transport(fmt.Errorf("cannot write schema: %w", err))
	}
	p.transition(StateSchemaReady)
	p.logger.WithField("columns", schema.Len()).Debug("schema written")
	return reader, nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return dataset.Transport(fmt.Errorf("transformation aborted: %w", err))
	}
	return nil
}

func (p *Processor) streamFull(ctx context.Context, reader *document.Reader) error {
	for {
		if err := checkContext(ctx); err != nil {
			return err
		}
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		p.result.RowsRead++
		if err := p.config.Pipeline.ApplyRow(row); err != nil {
			return err
		}
		if err := p.config.Output.WriteRow(row); err != nil {
			return dataset.Transport(fmt.Errorf("cannot write row %d: %w", row.Index, err))
		}
		p.result.RowsWritten++
	}
	return reader.Finish()
}

// streamPreview emits only selected rows and stops reading after the highest
// selected index; anything past it is never parsed.
func (p *Processor) streamPreview(ctx context.Context, reader *document.Reader) error {
	indexes := p.config.Indexes
	for next := 0; next < len(indexes); {
		if err := checkContext(ctx); err != nil {
			return err
		}
		if reader.Position() != indexes[next] {
			err := reader.Skip()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			p.result.RowsRead++
			continue
		}
		row, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.result.RowsRead++
		next++
		original := row.Clone()
		if err := p.config.Pipeline.ApplyRow(row); err != nil {
			return err
		}
		if err := p.config.Output.WriteRowDiff(original, row); err != nil {
			return dataset.Transport(fmt.Errorf("cannot write row %d: %w", row.Index, err))
		}
		p.result.RowsWritten++
	}
	return nil
}
