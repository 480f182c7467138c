package transformations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/templates"
)

// columnRef resolves a configured column (id or display name) to its id
// while the schema is being built, so later renames do not affect rows.
type columnRef struct {
	key string
	id  string
}

func (c *columnRef) resolve(schema *dataset.Schema) error {
	i := schema.Lookup(c.key)
	if i < 0 {
		return fmt.Errorf("column '%s' not found", c.key)
	}
	c.id = schema.Column(i).ID
	return nil
}

// newTemplateAction rewrites one column with the rendered template.
func newTemplateAction(name string, cfg config.ActionConfig, env *templates.Environment, variables map[string]string) (Action, error) {
	if cfg.Column == "" {
		return Action{}, errors.New("column is required")
	}
	tmpl, err := env.GetCompiledTemplate(string(cfg.Template), name)
	if err != nil {
		return Action{}, err
	}
	column := &columnRef{key: cfg.Column}
	return Action{
		Name:   name,
		Schema: column.resolve,
		Row: func(row *dataset.Row) error {
			value, ok := row.GetByID(column.id)
			if !ok {
				// dropped by a later action, nothing would be written
				return nil
			}
			transformedValue, err := templates.Render(tmpl, newRowData(row, value, variables))
			if err != nil {
				return err
			}
			return row.SetByID(column.id, transformedValue)
		},
	}, nil
}

// newDeleteAction marks the row deleted when the template renders true.
// It never clears a flag set earlier.
func newDeleteAction(name string, cfg config.ActionConfig, env *templates.Environment, variables map[string]string) (Action, error) {
	if cfg.Template == "" {
		return Action{}, errors.New("template is required")
	}
	tmpl, err := env.GetCompiledTemplate(string(cfg.Template), name)
	if err != nil {
		return Action{}, err
	}
	var schemaMutator SchemaMutator
	column := &columnRef{}
	if cfg.Column != "" {
		column.key = cfg.Column
		schemaMutator = column.resolve
	}
	return Action{
		Name:   name,
		Schema: schemaMutator,
		Row: func(row *dataset.Row) error {
			value, _ := row.GetByID(column.id)
			output, err := templates.Render(tmpl, newRowData(row, value, variables))
			if err != nil {
				return err
			}
			output = strings.TrimSpace(output)
			if output == "" {
				return nil
			}
			matched, err := strconv.ParseBool(output)
			if err != nil {
				return fmt.Errorf("condition rendered '%s', expected true or false", output)
			}
			if matched {
				row.Deleted = true
			}
			return nil
		},
	}, nil
}
