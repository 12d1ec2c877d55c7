// Package config loads scene and runtime configuration for gamebus.
//
// Files are decoded by extension: .toml (go-toml), .yaml/.yml (yaml.v3) or
// .json. A scene file describes the logging, bus, metrics and tick settings
// plus the entities to spawn and their components.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Errors returned by Load and Validate.
var (
	ErrEmptyPath            = errors.New("empty config path")
	ErrUnsupportedExtension = errors.New("unsupported config extension")
	ErrInvalid              = errors.New("invalid configuration")
)

// Config is the root configuration.
type Config struct {
	Log      LogConfig     `json:"log" yaml:"log" toml:"log"`
	Bus      BusConfig     `json:"bus" yaml:"bus" toml:"bus"`
	Metrics  MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
	Tick     TickConfig    `json:"tick" yaml:"tick" toml:"tick"`
	Entities []EntitySpec  `json:"entities" yaml:"entities" toml:"entities"`

	// Dir is the directory of the loaded file. Relative script paths are
	// resolved against it.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// BusConfig configures the event bus.
type BusConfig struct {
	// Debug logs every dispatch and mismatch.
	Debug bool `json:"debug" yaml:"debug" toml:"debug"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
}

// TickConfig configures the host loop.
type TickConfig struct {
	// Rate is the number of ticks per second of game time.
	Rate float64 `json:"rate" yaml:"rate" toml:"rate"`
	// Count is the number of ticks to run. Zero runs until interrupted.
	Count int `json:"count" yaml:"count" toml:"count"`
	// Realtime sleeps between ticks instead of running as fast as possible.
	Realtime bool `json:"realtime" yaml:"realtime" toml:"realtime"`
}

// Interval returns the game time advanced per tick.
func (t TickConfig) Interval() time.Duration {
	if t.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / t.Rate)
}

// EntitySpec describes one entity to spawn.
type EntitySpec struct {
	Name       string          `json:"name" yaml:"name" toml:"name"`
	Tags       []string        `json:"tags" yaml:"tags" toml:"tags"`
	Components []ComponentSpec `json:"components" yaml:"components" toml:"components"`
}

// ComponentSpec describes one component attached to an entity.
type ComponentSpec struct {
	Type   string         `json:"type" yaml:"type" toml:"type"`
	Debug  bool           `json:"debug" yaml:"debug" toml:"debug"`
	Params map[string]any `json:"params" yaml:"params" toml:"params"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Tick: TickConfig{
			Rate: 60,
		},
	}
}

// Load reads a configuration file based on its extension and applies
// defaults for unset fields. The result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.Dir = abs
	} else {
		cfg.Dir = filepath.Dir(path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (with or without the
// leading dot) on top of Default.
func Parse(ext string, data []byte) (Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// normalize turns nested yaml maps into map[string]any so component
// parameters look the same regardless of format.
func (c *Config) normalize() {
	for i := range c.Entities {
		for j := range c.Entities[i].Components {
			spec := &c.Entities[i].Components[j]
			for k, v := range spec.Params {
				spec.Params[k] = normalizeValue(v)
			}
		}
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeValue(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var problems []string

	switch c.Log.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if c.Tick.Rate <= 0 || c.Tick.Rate > 1000 {
		problems = append(problems, fmt.Sprintf("tick.rate %v must be in (0, 1000]", c.Tick.Rate))
	}
	if c.Tick.Count < 0 {
		problems = append(problems, "tick.count must not be negative")
	}

	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if e.Name == "" {
			problems = append(problems, fmt.Sprintf("entities[%d]: name is required", i))
			continue
		}
		if seen[e.Name] {
			problems = append(problems, fmt.Sprintf("entities[%d]: duplicate name %q", i, e.Name))
		}
		seen[e.Name] = true
		for j, comp := range e.Components {
			if comp.Type == "" {
				problems = append(problems, fmt.Sprintf("entities[%d].components[%d]: type is required", i, j))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Entity returns the spec with the given name.
func (c Config) Entity(name string) (EntitySpec, bool) {
	for _, e := range c.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return EntitySpec{}, false
}
