package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sceneTOML = `
[log]
level = "debug"
format = "json"

[bus]
debug = true

[tick]
rate = 30
count = 10

[[entities]]
name = "player"
tags = ["hero", "player"]

[[entities.components]]
type = "health"
params = { max = 120 }

[[entities.components]]
type = "cooldown"
params = { ability = "dash", delay = "2s" }

[[entities]]
name = "camera"
tags = ["camera"]

[[entities.components]]
type = "camera_shake"
`

const sceneYAML = `
log:
  level: warn
metrics:
  addr: ":9090"
entities:
  - name: speaker
    components:
      - type: audio
        params:
          volume: 0.5
          cues:
            gameplay.player_died: death
`

const sceneJSON = `{
  "tick": {"rate": 10},
  "entities": [{"name": "a", "components": [{"type": "health", "params": {"max": 5}}]}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "scene.toml", sceneTOML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Bus.Debug {
		t.Error("expected bus debug")
	}
	if cfg.Tick.Rate != 30 || cfg.Tick.Count != 10 {
		t.Errorf("Tick = %+v", cfg.Tick)
	}
	if len(cfg.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(cfg.Entities))
	}

	player, ok := cfg.Entity("player")
	if !ok {
		t.Fatal("player entity missing")
	}
	if len(player.Tags) != 2 || player.Tags[0] != "hero" {
		t.Errorf("Tags = %v", player.Tags)
	}
	if len(player.Components) != 2 || player.Components[0].Type != "health" {
		t.Fatalf("Components = %+v", player.Components)
	}
	if max, ok := player.Components[0].Params["max"].(int64); !ok || max != 120 {
		t.Errorf("health max = %#v", player.Components[0].Params["max"])
	}
	if cfg.Dir == "" || !filepath.IsAbs(cfg.Dir) {
		t.Errorf("Dir = %q, want absolute path", cfg.Dir)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "scene.yml", sceneYAML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("default format not kept: %q", cfg.Log.Format)
	}
	if cfg.Tick.Rate != 60 {
		t.Errorf("default rate not kept: %v", cfg.Tick.Rate)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}

	cues, ok := cfg.Entities[0].Components[0].Params["cues"].(map[string]any)
	if !ok {
		t.Fatalf("cues = %#v", cfg.Entities[0].Components[0].Params["cues"])
	}
	if cues["gameplay.player_died"] != "death" {
		t.Errorf("cues = %v", cues)
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "scene.json", sceneJSON))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Tick.Interval() != 100*time.Millisecond {
		t.Errorf("Interval() = %v", cfg.Tick.Interval())
	}
	if max, ok := cfg.Entities[0].Components[0].Params["max"].(float64); !ok || max != 5 {
		t.Errorf("max = %#v", cfg.Entities[0].Components[0].Params["max"])
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path: got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := Load(writeFile(t, dir, "scene.ini", "x=1")); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("bad extension: got %v", err)
	}
	if _, err := Load(writeFile(t, dir, "broken.toml", "[log\nlevel=")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(writeFile(t, dir, "invalid.toml", "[tick]\nrate = -1")); !errors.Is(err, ErrInvalid) {
		t.Errorf("invalid: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero rate", func(c *Config) { c.Tick.Rate = 0 }, "tick.rate"},
		{"huge rate", func(c *Config) { c.Tick.Rate = 5000 }, "tick.rate"},
		{"negative count", func(c *Config) { c.Tick.Count = -1 }, "tick.count"},
		{"unnamed entity", func(c *Config) { c.Entities = []EntitySpec{{}} }, "name is required"},
		{"duplicate entity", func(c *Config) {
			c.Entities = []EntitySpec{{Name: "a"}, {Name: "a"}}
		}, "duplicate name"},
		{"untyped component", func(c *Config) {
			c.Entities = []EntitySpec{{Name: "a", Components: []ComponentSpec{{}}}}
		}, "type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("expected ErrInvalid")
			}
		})
	}
}

func TestParse_NormalizesYAMLMaps(t *testing.T) {
	v := normalizeValue(map[any]any{"a": map[any]any{1: "x"}, "b": []any{map[any]any{"c": 1}}})
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("got %T", v)
	}
	if inner, ok := m["a"].(map[string]any); !ok || inner["1"] != "x" {
		t.Errorf("a = %#v", m["a"])
	}
	list := m["b"].([]any)
	if _, ok := list[0].(map[string]any); !ok {
		t.Errorf("b[0] = %#v", list[0])
	}
}
