package component

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
)

// Cooldown gates an ability. It listens for gameplay.ability_used addressed
// to its owner; when ready it accepts the use, goes on cooldown and, after
// the delay, publishes gameplay.ability_ready to its owner. Uses received
// while cooling down are rejected and counted.
type Cooldown struct {
	mu       sync.Mutex
	ability  string
	delay    time.Duration
	ready    bool
	accepted int
	rejected int

	ctx *lifecycle.Context
}

// NewCooldown creates a cooldown for the named ability. An empty name
// matches any ability.
func NewCooldown(ability string, delay time.Duration) *Cooldown {
	return &Cooldown{ability: ability, delay: delay, ready: true}
}

func newCooldownFromParams(p Params) (lifecycle.Component, error) {
	ability, err := p.String("ability", "")
	if err != nil {
		return nil, err
	}
	delay, err := p.Duration("delay", time.Second)
	if err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, fmt.Errorf("cooldown: negative delay %v", delay)
	}
	return NewCooldown(ability, delay), nil
}

// Enable implements lifecycle.Component.
func (c *Cooldown) Enable(ctx *lifecycle.Context) error {
	c.ctx = ctx
	_, err := ctx.On(event.On(catalog.AbilityUsed), c.onUse,
		event.WithName("cooldown."+c.ability),
		event.WithFilter(c.matchesAbility),
	)
	return err
}

// Disable resets the cooldown. Pending re-enable tasks are cancelled by the
// context's guard.
func (c *Cooldown) Disable() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

// Ready reports whether the ability can be used.
func (c *Cooldown) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Counts returns the number of accepted and rejected uses.
func (c *Cooldown) Counts() (accepted, rejected int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted, c.rejected
}

func (c *Cooldown) matchesAbility(p event.Payload) bool {
	if c.ability == "" {
		return true
	}
	name, ok := p.Text(0)
	return ok && name == c.ability
}

func (c *Cooldown) onUse(event.Payload) {
	c.mu.Lock()
	if !c.ready {
		c.rejected++
		c.mu.Unlock()
		return
	}
	c.ready = false
	c.accepted++
	c.mu.Unlock()

	if _, err := c.ctx.After(c.delay, c.reenable); err != nil {
		c.ctx.Logger.Warn().Err(err).Str("ability", c.ability).Msg("cannot schedule cooldown")
		c.mu.Lock()
		c.ready = true
		c.mu.Unlock()
	}
}

func (c *Cooldown) reenable() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	c.ctx.Publisher().ToSelf(event.On(catalog.AbilityReady), c.ability)
}
