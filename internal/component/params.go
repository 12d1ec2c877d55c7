package component

import (
	"fmt"
	"time"
)

// Params is the loosely typed parameter map decoded from scene configuration.
// Decoders differ in numeric types (TOML yields int64, JSON float64), so
// accessors convert.
type Params map[string]any

// Float returns key as a float64, or def if absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("param %q: expected number, got %T", key, v)
	}
}

// String returns key as a string, or def if absent.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Duration returns key as a duration. Strings are parsed with
// time.ParseDuration; numbers are seconds.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("param %q: %w", key, err)
		}
		return d, nil
	}
	secs, err := p.Float(key, 0)
	if err != nil {
		return 0, fmt.Errorf("param %q: expected duration, got %T", key, v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// StringMap returns key as a map of strings.
func (p Params) StringMap(key string) (map[string]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	out := make(map[string]string)
	switch m := v.(type) {
	case map[string]string:
		for k, s := range m {
			out[k] = s
		}
	case map[string]any:
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("param %q.%s: expected string, got %T", key, k, raw)
			}
			out[k] = s
		}
	default:
		return nil, fmt.Errorf("param %q: expected table, got %T", key, v)
	}
	return out, nil
}
