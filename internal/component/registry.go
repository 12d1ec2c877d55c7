package component

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/gamebus/internal/lifecycle"
)

// ErrUnknownType is returned when no factory is registered for a component type.
var ErrUnknownType = errors.New("unknown component type")

// Factory builds a component from configuration parameters.
type Factory func(params Params) (lifecycle.Component, error)

// Registry maps component type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtin returns a registry with the reference components registered.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("health", newHealthFromParams)
	r.Register("camera_shake", newCameraShakeFromParams)
	r.Register("audio", newAudioTriggerFromParams)
	r.Register("cooldown", newCooldownFromParams)
	return r
}

// Register adds or replaces the factory for typ.
func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = f
}

// Build creates a component of type typ.
func (r *Registry) Build(typ string, params Params) (lifecycle.Component, error) {
	r.mu.RLock()
	f, ok := r.factories[typ]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	c, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", typ, err)
	}
	return c, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
