package transformations

import (
	"fmt"

	"github.com/bobg/go-generics/v2/slices"
	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/templates"
)

type actionFactory func(name string, cfg config.ActionConfig, env *templates.Environment, variables map[string]string) (Action, error)

var factories = make(map[config.ActionKind]actionFactory)

func init() {
	factories[config.ActionTemplate] = newTemplateAction
	factories[config.ActionDelete] = newDeleteAction
	factories[config.ActionRename] = newRenameAction
	factories[config.ActionRetype] = newRetypeAction
	factories[config.ActionColumn] = newColumnAction
	factories[config.ActionDrop] = newDropAction
}

func GetAction(name string, cfg config.ActionConfig, env *templates.Environment, variables map[string]string) (Action, error) {
	factory, ok := factories[cfg.Kind]
	if !ok {
		return Action{}, fmt.Errorf("unknown action kind '%s'", cfg.Kind)
	}
	return factory(name, cfg, env, variables)
}

// NewPipelineFromConfig resolves the enabled configured actions, in order,
// into a pipeline. Variables are rendered once here.
func NewPipelineFromConfig(cfg config.Config, env *templates.Environment) (*Pipeline, error) {
	variables, err := env.RenderVariables(cfg.Variables)
	if err != nil {
		return nil, fmt.Errorf("cannot render variables: %w", err)
	}
	enabled := slices.Filter(cfg.Actions, func(action config.ActionConfig) bool {
		return !action.Disabled
	})
	p := NewPipeline()
	for i, actionConfig := range enabled {
		name := actionConfig.Label(i)
		action, err := GetAction(name, actionConfig, env, variables)
		if err != nil {
			return nil, fmt.Errorf("cannot prepare action %s: %w", name, err)
		}
		p.Add(action)
	}
	return p, nil
}
