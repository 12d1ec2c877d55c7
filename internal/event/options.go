package event

import (
	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/entity"
)

// BusOption configures a Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// entities resolves owner liveness and tags at dispatch time.
	entities entity.Lookup

	// logger is the diagnostic sink for handler failures and debug lines.
	logger zerolog.Logger

	// observer receives per-dispatch measurements.
	observer Observer

	// panicHandler is called when a handler panics, after logging.
	panicHandler PanicHandler

	// debug enables dispatch/mismatch logging for every subscription.
	debug bool
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
}

// WithEntities sets the entity table used for owner liveness and tag lookups.
// Without it, Tagged receivers match nothing and owners are never considered gone.
func WithEntities(l entity.Lookup) BusOption {
	return func(c *busConfig) {
		c.entities = l
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) BusOption {
	return func(c *busConfig) {
		c.logger = l
	}
}

// WithObserver sets the dispatch observer.
func WithObserver(o Observer) BusOption {
	return func(c *busConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithBusPanicHandler sets an extra callback for handler panics.
func WithBusPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// WithBusDebug enables dispatch logging for all subscriptions.
func WithBusDebug(enabled bool) BusOption {
	return func(c *busConfig) {
		c.debug = enabled
	}
}
