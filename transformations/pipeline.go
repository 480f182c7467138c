package transformations

import (
	"fmt"

	"github.com/duffpl/go-dtp/dataset"
)

type namedSchemaMutator struct {
	name string
	fn   SchemaMutator
}

type namedRowMutator struct {
	name string
	fn   RowMutator
}

// Pipeline keeps schema and row mutators in two parallel lists, each in
// registration order. A nil *Pipeline is the identity pipeline.
// Configured actions remember what ApplySchema resolved, so a pipeline built
// from config serves a single run.
type Pipeline struct {
	schemaMutators []namedSchemaMutator
	rowMutators    []namedRowMutator
}

func NewPipeline(actions ...Action) *Pipeline {
	p := &Pipeline{}
	for _, action := range actions {
		p.Add(action)
	}
	return p
}

func (p *Pipeline) Add(action Action) *Pipeline {
	if action.Schema != nil {
		p.AddSchemaMutator(action.Name, action.Schema)
	}
	if action.Row != nil {
		p.AddRowMutator(action.Name, action.Row)
	}
	return p
}

func (p *Pipeline) AddSchemaMutator(name string, fn SchemaMutator) *Pipeline {
	p.schemaMutators = append(p.schemaMutators, namedSchemaMutator{name: name, fn: fn})
	return p
}

func (p *Pipeline) AddRowMutator(name string, fn RowMutator) *Pipeline {
	p.rowMutators = append(p.rowMutators, namedRowMutator{name: name, fn: fn})
	return p
}

func (p *Pipeline) SchemaMutators() int {
	if p == nil {
		return 0
	}
	return len(p.schemaMutators)
}

func (p *Pipeline) RowMutators() int {
	if p == nil {
		return 0
	}
	return len(p.rowMutators)
}

// ApplySchema runs every schema mutator once, in order.
func (p *Pipeline) ApplySchema(schema *dataset.Schema) error {
	if p == nil {
		return nil
	}
	for _, mutator := range p.schemaMutators {
		if err := mutator.fn(schema); err != nil {
			return &dataset.PipelineError{Action: mutator.name, Row: dataset.NoIndex, Err: err}
		}
	}
	return nil
}

// ApplyRow runs every row mutator once, in order; each sees what the
// previous ones did to the row.
func (p *Pipeline) ApplyRow(row *dataset.Row) error {
	if p == nil {
		return nil
	}
	width := row.Len()
	for _, mutator := range p.rowMutators {
		if err := mutator.fn(row); err != nil {
			return &dataset.PipelineError{Action: mutator.name, Row: row.Index, Err: err}
		}
		if row.Len() != width {
			return &dataset.PipelineError{
				Action: mutator.name,
				Row:    row.Index,
				Err:    fmt.Errorf("cell count changed from %d to %d", width, row.Len()),
			}
		}
	}
	return nil
}
