package transformations

import (
	"errors"
	"fmt"

	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/templates"
)

func updateColumn(schema *dataset.Schema, column string, fn func(c *dataset.ColumnDescriptor)) error {
	i := schema.Lookup(column)
	if i < 0 {
		return fmt.Errorf("column '%s' not found", column)
	}
	return schema.Update(schema.Column(i).ID, fn)
}

func newRenameAction(name string, cfg config.ActionConfig, _ *templates.Environment, _ map[string]string) (Action, error) {
	if cfg.Column == "" || cfg.Name == "" {
		return Action{}, errors.New("column and name are required")
	}
	return Action{
		Name: name,
		Schema: func(schema *dataset.Schema) error {
			return updateColumn(schema, cfg.Column, func(c *dataset.ColumnDescriptor) {
				c.Name = cfg.Name
			})
		},
	}, nil
}

func newRetypeAction(name string, cfg config.ActionConfig, _ *templates.Environment, _ map[string]string) (Action, error) {
	if cfg.Column == "" {
		return Action{}, errors.New("column is required")
	}
	columnType, err := dataset.ParseType(cfg.Type)
	if err != nil {
		return Action{}, err
	}
	return Action{
		Name: name,
		Schema: func(schema *dataset.Schema) error {
			return updateColumn(schema, cfg.Column, func(c *dataset.ColumnDescriptor) {
				c.Type = columnType
				// statistics were computed for the old type
				c.Statistics = nil
			})
		},
	}, nil
}

// newColumnAction appends a column to the schema and fills it per row from
// the template.
func newColumnAction(name string, cfg config.ActionConfig, env *templates.Environment, variables map[string]string) (Action, error) {
	if cfg.ID == "" {
		return Action{}, errors.New("id is required")
	}
	columnType, err := dataset.ParseType(cfg.Type)
	if err != nil {
		return Action{}, err
	}
	tmpl, err := env.GetCompiledTemplate(string(cfg.Template), name)
	if err != nil {
		return Action{}, err
	}
	columnName := cfg.Name
	if columnName == "" {
		columnName = cfg.ID
	}
	return Action{
		Name: name,
		Schema: func(schema *dataset.Schema) error {
			return schema.Add(dataset.ColumnDescriptor{ID: cfg.ID, Name: columnName, Type: columnType})
		},
		Row: func(row *dataset.Row) error {
			value, err := templates.Render(tmpl, newRowData(row, "", variables))
			if err != nil {
				return err
			}
			return row.SetByID(cfg.ID, value)
		},
	}, nil
}

// newDropAction removes a column from the schema; rows follow since they are
// aligned to the finalized schema.
func newDropAction(name string, cfg config.ActionConfig, _ *templates.Environment, _ map[string]string) (Action, error) {
	if cfg.Column == "" {
		return Action{}, errors.New("column is required")
	}
	return Action{
		Name: name,
		Schema: func(schema *dataset.Schema) error {
			i := schema.Lookup(cfg.Column)
			if i < 0 {
				return fmt.Errorf("column '%s' not found", cfg.Column)
			}
			return schema.Remove(schema.Column(i).ID)
		},
	}, nil
}
