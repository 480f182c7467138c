package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template/parse"

	"github.com/duffpl/go-dtp/config"
	"golang.org/x/exp/slices"
)

// CompileTemplates compiles named templates as ".<namePrefix>.<name>" and
// links every template to the ones it references through that prefix.
func (e *Environment) CompileTemplates(templates map[string]config.Template, namePrefix string) (map[string]*Template, error) {
	compiledTemplates := make(map[string]*Template)
	for name, _template := range templates {
		prefixedName := "." + namePrefix + "." + name
		compiledTemplate, err := e.GetCompiledTemplate(string(_template), prefixedName)
		if err != nil {
			return nil, fmt.Errorf("cannot compile template %s: %w", prefixedName, err)
		}
		compiledTemplates[prefixedName] = &Template{
			CompiledTemplate: compiledTemplate,
			Dependencies:     nil,
			Name:             prefixedName,
		}
	}
	// build dependency graph
	for name, compiledTemplate := range compiledTemplates {
		dependencies := ExtractVariables(compiledTemplate.CompiledTemplate.Tree.Root, namePrefix)
		for _, dependency := range dependencies {
			dependencyTemplate, ok := compiledTemplates[dependency]
			if !ok {
				return nil, fmt.Errorf("template %s depends on %s, but %s is not defined", name, dependency, dependency)
			}
			compiledTemplate.Dependencies = append(compiledTemplate.Dependencies, dependencyTemplate)
		}
	}
	return compiledTemplates, nil
}

// ExtractVariables lists the ".<prefix>.<name>" fields used anywhere in the tree.
func ExtractVariables(rootNode *parse.ListNode, prefix string) (result []string) {
	variableNameRegexp := regexp.MustCompile(`^\.` + regexp.QuoteMeta(prefix) + `\.\w+`)
	var walk func(node parse.Node)
	walk = func(node parse.Node) {
		switch n := node.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, child := range n.Nodes {
				walk(child)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, pipeCmd := range n.Cmds {
				walk(pipeCmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.FieldNode:
			variableName := variableNameRegexp.FindString(n.String())
			if variableName == "" {
				return
			}
			// check if the variable is already in the list
			if !slices.Contains(result, variableName) {
				result = append(result, variableName)
			}
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		}
	}
	walk(rootNode)
	return
}

// GetOrderedTemplates sorts templates so every template comes after its
// dependencies. Cycles are reported as errors.
func GetOrderedTemplates(templates map[string]*Template) ([]*Template, error) {
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)
	stack := []*Template{}

	var dfs func(node string) error
	dfs = func(name string) error {
		if _, ok := templates[name]; !ok {
			return fmt.Errorf("template %s not found", name)
		}
		if !visited[name] {
			visited[name] = true
			recursionStack[name] = true
			for _, dep := range templates[name].Dependencies {
				if recursionStack[dep.Name] {
					return fmt.Errorf("cycle detected: %s is part of a cycle", dep.Name)
				}
				if !visited[dep.Name] {
					if err := dfs(dep.Name); err != nil {
						return err
					}
				}
			}
			stack = append(stack, templates[name])
		}
		delete(recursionStack, name)
		return nil
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] {
			if err := dfs(name); err != nil {
				return nil, err
			}
		}
	}

	return stack, nil
}

const variablesPrefix = "Variables"

// RenderVariables renders the run variables once, each one seeing the
// variables it depends on.
func (e *Environment) RenderVariables(variables map[string]config.Template) (map[string]string, error) {
	compiled, err := e.CompileTemplates(variables, variablesPrefix)
	if err != nil {
		return nil, fmt.Errorf("cannot compile variables templates: %w", err)
	}
	ordered, err := GetOrderedTemplates(compiled)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve variables order: %w", err)
	}
	result := make(map[string]string, len(ordered))
	for _, tmpl := range ordered {
		output, err := Render(tmpl.CompiledTemplate, struct {
			Variables map[string]string
		}{
			Variables: result,
		})
		if err != nil {
			return nil, err
		}
		shortName, _ := strings.CutPrefix(tmpl.Name, "."+variablesPrefix+".")
		result[shortName] = output
	}
	return result, nil
}
