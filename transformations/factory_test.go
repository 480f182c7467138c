package transformations

import (
	"testing"

	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/dataset"
	"github.com/duffpl/go-dtp/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *templates.Environment {
	t.Helper()
	env, err := templates.NewEnvironment("en")
	require.NoError(t, err)
	return env
}

func TestNewPipelineFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Variables = map[string]config.Template{
		"suffix": "!",
	}
	cfg.Actions = []config.ActionConfig{
		{Kind: config.ActionTemplate, Column: "lastname", Template: "{{ upper .Value }}"},
		{Kind: config.ActionTemplate, Column: "0001", Template: "{{ upper .Value }}"},
		{Kind: config.ActionTemplate, Column: "city", Template: "{{ .Value }}{{ .Variables.suffix }}", Disabled: true},
		// row templates see the finalized schema, where city is already renamed
		{Kind: config.ActionDelete, Template: `{{ eq .Row.town "Columbia" }}`},
		{Kind: config.ActionColumn, ID: "0003", Name: "full", Template: "{{ .Row.firstname }} {{ .Row.lastname }}{{ .Variables.suffix }}"},
		{Kind: config.ActionRename, Column: "city", Name: "town"},
		{Kind: config.ActionRetype, Column: "0002", Type: "char"},
	}
	p, err := NewPipelineFromConfig(cfg, newEnv(t))
	require.NoError(t, err)

	schema := peopleSchema()
	require.NoError(t, p.ApplySchema(schema))
	require.Equal(t, 4, schema.Len())
	assert.Equal(t, "town", schema.Column(2).Name)
	assert.Equal(t, dataset.TypeChar, schema.Column(2).Type)
	assert.Equal(t, "full", schema.Column(3).Name)

	rows := []*dataset.Row{
		dataset.NewRow(schema, 0, []string{"Doe", "Jane", "Columbia", ""}),
		dataset.NewRow(schema, 1, []string{"Roe", "Bob", "Reno", ""}),
	}
	for _, row := range rows {
		require.NoError(t, p.ApplyRow(row))
	}
	assert.Equal(t, []string{"DOE", "JANE", "Columbia", "JANE DOE!"}, rows[0].Values)
	assert.True(t, rows[0].Deleted)
	assert.Equal(t, []string{"ROE", "BOB", "Reno", "BOB ROE!"}, rows[1].Values)
	assert.False(t, rows[1].Deleted)
}

func TestRenameAfterColumnActions(t *testing.T) {
	cfg := config.Default()
	cfg.Actions = []config.ActionConfig{
		{Kind: config.ActionTemplate, Column: "city", Template: "{{ upper .Value }}"},
		{Kind: config.ActionDelete, Column: "city", Template: `{{ eq .Value "COLUMBIA" }}`},
		{Kind: config.ActionRename, Column: "city", Name: "town"},
	}
	p, err := NewPipelineFromConfig(cfg, newEnv(t))
	require.NoError(t, err)

	schema := peopleSchema()
	require.NoError(t, p.ApplySchema(schema))
	assert.Equal(t, "town", schema.Column(2).Name)

	row := dataset.NewRow(schema, 0, []string{"Doe", "Jane", "Columbia"})
	require.NoError(t, p.ApplyRow(row))
	assert.Equal(t, []string{"Doe", "Jane", "COLUMBIA"}, row.Values)
	assert.True(t, row.Deleted)
}

func TestDropColumn(t *testing.T) {
	cfg := config.Default()
	cfg.Actions = []config.ActionConfig{
		{Kind: config.ActionTemplate, Column: "city", Template: "{{ upper .Value }}"},
		{Kind: config.ActionDrop, Column: "city"},
		{Kind: config.ActionTemplate, Column: "firstname", Template: "{{ .Value }} {{ .Row.lastname }}"},
	}
	p, err := NewPipelineFromConfig(cfg, newEnv(t))
	require.NoError(t, err)

	schema := peopleSchema()
	require.NoError(t, p.ApplySchema(schema))
	assert.Equal(t, []string{"0000", "0001"}, schema.IDs())

	row := dataset.NewRow(schema, 0, []string{"Doe", "Jane"})
	require.NoError(t, p.ApplyRow(row))
	assert.Equal(t, []string{"Doe", "Jane Doe"}, row.Values)

	p, err = NewPipelineFromConfig(config.Config{Actions: []config.ActionConfig{
		{Kind: config.ActionDrop, Column: "country"},
	}}, newEnv(t))
	require.NoError(t, err)
	assert.ErrorIs(t, p.ApplySchema(peopleSchema()), dataset.ErrPipelineFailure)
}

func TestDuplicateDisplayNames(t *testing.T) {
	schema := dataset.MustSchema(
		dataset.ColumnDescriptor{ID: "a", Name: "x"},
		dataset.ColumnDescriptor{ID: "b", Name: "x"},
	)
	cfg := config.Default()
	cfg.Actions = []config.ActionConfig{
		{Kind: config.ActionTemplate, Column: "x", Template: "{{ .Row.x }}+{{ .Columns.b }}"},
	}
	p, err := NewPipelineFromConfig(cfg, newEnv(t))
	require.NoError(t, err)
	require.NoError(t, p.ApplySchema(schema))

	row := dataset.NewRow(schema, 0, []string{"first", "second"})
	require.NoError(t, p.ApplyRow(row))
	assert.Equal(t, []string{"first+second", "second"}, row.Values)
}

func TestDeleteNeverClearsFlag(t *testing.T) {
	action, err := GetAction("delete", config.ActionConfig{Kind: config.ActionDelete, Template: "false"}, newEnv(t), nil)
	require.NoError(t, err)
	row := dataset.NewRow(peopleSchema(), 0, []string{"a", "b", "c"})
	row.Deleted = true
	require.NoError(t, action.Row(row))
	assert.True(t, row.Deleted)
}

func TestActionConfigErrors(t *testing.T) {
	env := newEnv(t)
	tests := map[string]config.ActionConfig{
		"unknown kind":        {Kind: "explode"},
		"template w/o column": {Kind: config.ActionTemplate, Template: "x"},
		"broken template":     {Kind: config.ActionTemplate, Column: "a", Template: "{{ .Value "},
		"delete w/o template": {Kind: config.ActionDelete},
		"rename w/o name":     {Kind: config.ActionRename, Column: "a"},
		"retype bad type":     {Kind: config.ActionRetype, Column: "a", Type: "blob"},
		"column w/o id":       {Kind: config.ActionColumn, Template: "x"},
		"column bad type":     {Kind: config.ActionColumn, ID: "x", Type: "blob"},
		"drop w/o column":     {Kind: config.ActionDrop},
	}
	for name, actionConfig := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := GetAction(name, actionConfig, env, nil)
			assert.Error(t, err)
		})
	}

	cfg := config.Default()
	cfg.Variables = map[string]config.Template{"a": "{{ .Variables.a }}"}
	_, err := NewPipelineFromConfig(cfg, env)
	assert.Error(t, err)
}

func TestActionRuntimeErrors(t *testing.T) {
	env := newEnv(t)
	schema := peopleSchema()

	p, err := NewPipelineFromConfig(config.Config{Actions: []config.ActionConfig{
		{Kind: config.ActionTemplate, Column: "country", Template: "x"},
	}}, env)
	require.NoError(t, err)
	assert.ErrorIs(t, p.ApplySchema(schema), dataset.ErrPipelineFailure)

	p, err = NewPipelineFromConfig(config.Config{Actions: []config.ActionConfig{
		{Kind: config.ActionDelete, Template: "{{ .Row.city }}"},
	}}, env)
	require.NoError(t, err)
	err = p.ApplyRow(dataset.NewRow(schema, 3, []string{"a", "b", "Columbia"}))
	var pipelineErr *dataset.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, 3, pipelineErr.Row)
	assert.Equal(t, "0:delete()", pipelineErr.Action)

	p, err = NewPipelineFromConfig(config.Config{Actions: []config.ActionConfig{
		{Kind: config.ActionColumn, ID: "0000", Template: "x"},
	}}, env)
	require.NoError(t, err)
	assert.ErrorIs(t, p.ApplySchema(schema), dataset.ErrPipelineFailure, "duplicate column id")
}
