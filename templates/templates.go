package templates

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"strconv"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/duffpl/go-dtp/faker"
	"github.com/zeebo/xxh3"
)

type Template struct {
	CompiledTemplate *template.Template
	Dependencies     []*Template
	Name             string
}

// Environment compiles and caches templates against one function map.
// Each run builds its own so locale and registered funcs never leak between runs.
type Environment struct {
	funcs    template.FuncMap
	compiled sync.Map
}

func Md5(input string) string {
	hasher := md5.New()
	hasher.Write([]byte(input))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func NewEnvironment(locale string) (*Environment, error) {
	f, err := faker.New(locale)
	if err != nil {
		return nil, fmt.Errorf("cannot create faker: %w", err)
	}
	funcs := sprig.TxtFuncMap()
	funcs["md5"] = Md5
	funcs["xxh3"] = func(input string) string {
		return strconv.FormatUint(xxh3.HashString(input), 16)
	}
	funcs["argon2Hash"] = func(input string) (string, error) {
		result, err := argon2Hash(input)
		if err != nil {
			return "", fmt.Errorf("cannot hash password: %w", err)
		}
		return result, nil
	}
	funcs["bcryptHash"] = func(input string) (string, error) {
		result, err := bcryptHash(input)
		if err != nil {
			return "", fmt.Errorf("cannot hash password: %w", err)
		}
		return result, nil
	}
	e := &Environment{funcs: funcs}
	e.RegisterTemplateFuncs(f.FuncMap())
	return e, nil
}

// RegisterTemplateFuncs adds funcs to the environment. Templates compiled
// before the call do not see them.
func (e *Environment) RegisterTemplateFuncs(funcs template.FuncMap) {
	for name, fn := range funcs {
		e.funcs[name] = fn
	}
}

func (e *Environment) GetCompiledTemplate(templateData string, templateName string) (*template.Template, error) {
	templateId := xxh3.HashString(templateName + "\x00" + templateData)
	compiled, exists := e.compiled.Load(templateId)
	if !exists {
		compiledTemplate, err := template.New(templateName).Funcs(e.funcs).Option("missingkey=zero").Parse(templateData)
		if err != nil {
			return nil, fmt.Errorf("cannot compile template: %w", err)
		}
		e.compiled.Store(templateId, compiledTemplate)
		return compiledTemplate, nil
	}
	return compiled.(*template.Template), nil
}

func Render(tmpl *template.Template, data any) (string, error) {
	output := new(bytes.Buffer)
	if err := tmpl.Execute(output, data); err != nil {
		return "", fmt.Errorf("cannot render template '%s': %w", tmpl.Name(), err)
	}
	return output.String(), nil
}
