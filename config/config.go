package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Actions     []ActionConfig      `json:"actions"`
	Variables   map[string]Template `json:"variables,omitempty"`
	Settings    Settings            `json:"settings"`
	Concurrency Concurrency         `json:"concurrency"`
	Store       StoreConfig         `json:"store"`
}

type Settings struct {
	Locale string `json:"locale"`
	// Format is the output format, "json" or "sql".
	Format string `json:"format"`
	// Table is the table name used by the sql format.
	Table    string `json:"table"`
	Encoding string `json:"encoding,omitempty"`
}

type Concurrency struct {
	MinWorkers int `json:"minWorkers"`
	MaxWorkers int `json:"maxWorkers"`
}

type StoreConfig struct {
	Path string `json:"path"`
}

type Template string

type ActionKind string

const (
	ActionTemplate ActionKind = "template"
	ActionDelete   ActionKind = "delete"
	ActionRename   ActionKind = "rename"
	ActionRetype   ActionKind = "retype"
	ActionColumn   ActionKind = "column"
	ActionDrop     ActionKind = "drop"
)

// ActionConfig is one configured pipeline step. Which fields are used
// depends on Kind.
type ActionConfig struct {
	Kind     ActionKind `json:"kind"`
	Column   string     `json:"column,omitempty"`
	Template Template   `json:"template,omitempty"`
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name,omitempty"`
	Type     string     `json:"type,omitempty"`
	Disabled bool       `json:"disabled,omitempty"`
}

// Label identifies the action in logs and errors.
func (a ActionConfig) Label(position int) string {
	target := a.Column
	if target == "" {
		target = a.ID
	}
	return fmt.Sprintf("%d:%s(%s)", position, a.Kind, target)
}

func Default() Config {
	return Config{
		Settings: Settings{
			Locale: "en",
			Format: "json",
			Table:  "dataset",
		},
		Concurrency: Concurrency{
			MinWorkers: 2,
			MaxWorkers: 10,
		},
		Store: StoreConfig{
			Path: "datasets",
		},
	}
}

// Parse decodes a JSON configuration on top of the defaults.
func Parse(data []byte) (Config, error) {
	decoded := Default()
	jsonParser := json.NewDecoder(strings.NewReader(string(data)))
	jsonParser.DisallowUnknownFields()
	if err := jsonParser.Decode(&decoded); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := decoded.Validate(); err != nil {
		return Config{}, err
	}
	return decoded, nil
}

func ReadFile(filepath string) (Config, error) {
	jsonConfig, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file: %w", err)
	}
	return Parse(jsonConfig)
}

func (c Config) Validate() error {
	switch c.Settings.Format {
	case "json", "sql":
	default:
		return fmt.Errorf("unsupported output format '%s'", c.Settings.Format)
	}
	if c.Concurrency.MinWorkers < 1 || c.Concurrency.MaxWorkers < c.Concurrency.MinWorkers {
		return fmt.Errorf("invalid concurrency bounds (min %d, max %d)", c.Concurrency.MinWorkers, c.Concurrency.MaxWorkers)
	}
	for i, action := range c.Actions {
		if action.Kind == "" {
			return fmt.Errorf("action %d has no kind", i)
		}
	}
	return nil
}
