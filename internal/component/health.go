package component

import (
	"fmt"
	"sync"

	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
)

// Health tracks hit points for its owner.
//
// It listens for gameplay.player_damaged and gameplay.player_healed
// addressed to its owner (first parameter is the amount),
// and for gameplay.player_respawned to restore full health. When health
// reaches zero it publishes gameplay.player_died to everyone with the
// owner as originator.
type Health struct {
	mu      sync.Mutex
	max     float64
	current float64
	dead    bool

	ctx *lifecycle.Context
	pub *event.Publisher
}

// NewHealth creates a health component with max hit points.
func NewHealth(max float64) *Health {
	return &Health{max: max, current: max}
}

func newHealthFromParams(p Params) (lifecycle.Component, error) {
	max, err := p.Float("max", 100)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("health: max must be positive, got %v", max)
	}
	return NewHealth(max), nil
}

// Enable subscribes to damage, heal and respawn events.
func (h *Health) Enable(ctx *lifecycle.Context) error {
	h.ctx = ctx
	h.pub = ctx.Publisher()

	if _, err := ctx.On(event.On(catalog.PlayerDamaged), h.onDamage, event.WithName("health.damage")); err != nil {
		return err
	}
	if _, err := ctx.On(event.On(catalog.PlayerHealed), h.onHeal, event.WithName("health.heal")); err != nil {
		return err
	}
	if _, err := ctx.On(event.On(catalog.PlayerRespawned), h.onRespawn, event.WithName("health.respawn")); err != nil {
		return err
	}
	return nil
}

// Disable implements lifecycle.Component.
func (h *Health) Disable() {}

// Current returns the remaining hit points.
func (h *Health) Current() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Max returns the maximum hit points.
func (h *Health) Max() float64 {
	return h.max
}

// Dead reports whether health has reached zero.
func (h *Health) Dead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}

func (h *Health) onDamage(p event.Payload) {
	amount, ok := p.Float(0)
	if !ok || amount <= 0 {
		return
	}

	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return
	}
	h.current -= amount
	died := false
	if h.current <= 0 {
		h.current = 0
		h.dead = true
		died = true
	}
	h.mu.Unlock()

	if died {
		h.ctx.Logger.Info().Stringer("entity", h.ctx.Owner).Msg("died")
		h.pub.ToAll(event.On(catalog.PlayerDied), p.Originator())
	}
}

func (h *Health) onHeal(p event.Payload) {
	amount, ok := p.Float(0)
	if !ok || amount <= 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return
	}
	h.current += amount
	if h.current > h.max {
		h.current = h.max
	}
}

func (h *Health) onRespawn(event.Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = h.max
	h.dead = false
}
