package component

import (
	"sync"
	"time"

	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
)

// CameraShake accumulates shake intensity whenever a player is damaged and
// lets it decay every tick. It listens to damage events addressed to its
// owner; scenes typically tag the camera entity and publish damage to that tag.
type CameraShake struct {
	mu        sync.Mutex
	scale     float64
	decay     float64
	limit     float64
	intensity float64
}

// NewCameraShake creates a camera shake component. scale multiplies the
// damage amount; decay is the intensity lost per second.
func NewCameraShake(scale, decay, limit float64) *CameraShake {
	return &CameraShake{scale: scale, decay: decay, limit: limit}
}

func newCameraShakeFromParams(p Params) (lifecycle.Component, error) {
	scale, err := p.Float("scale", 0.1)
	if err != nil {
		return nil, err
	}
	decay, err := p.Float("decay", 1)
	if err != nil {
		return nil, err
	}
	limit, err := p.Float("limit", 1)
	if err != nil {
		return nil, err
	}
	return NewCameraShake(scale, decay, limit), nil
}

// Enable implements lifecycle.Component.
func (c *CameraShake) Enable(ctx *lifecycle.Context) error {
	_, err := ctx.On(event.On(catalog.PlayerDamaged), c.onDamage, event.WithName("camera.shake"))
	return err
}

// Disable stops any shake in progress.
func (c *CameraShake) Disable() {
	c.mu.Lock()
	c.intensity = 0
	c.mu.Unlock()
}

// Update decays the intensity.
func (c *CameraShake) Update(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.intensity -= c.decay * dt.Seconds()
	if c.intensity < 0 {
		c.intensity = 0
	}
}

// Intensity returns the current shake intensity.
func (c *CameraShake) Intensity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intensity
}

func (c *CameraShake) onDamage(p event.Payload) {
	amount, ok := p.Float(0)
	if !ok || amount <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.intensity += amount * c.scale
	if c.limit > 0 && c.intensity > c.limit {
		c.intensity = c.limit
	}
}
