package event

import (
	"sync/atomic"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event/catalog"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStatePaused means the subscription is temporarily not receiving events.
	SubscriptionStatePaused

	// SubscriptionStateCancelled means the subscription has been removed from the bus.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStatePaused:
		return "paused"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Name labels the subscription in diagnostics.
	Name string

	// Debug logs one line per dispatch and per mismatch for this subscription.
	Debug bool

	// Once removes the subscription after its first invocation.
	Once bool

	// Filter is an optional predicate evaluated after receiver filtering.
	Filter FilterFunc
}

// SubscriptionOption is a function that configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithName sets the diagnostic label.
func WithName(name string) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Name = name
	}
}

// WithDebug turns on per-subscription dispatch logging.
func WithDebug() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Debug = true
	}
}

// WithOnce makes the subscription remove itself after the first invocation.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// WithFilter sets an extra delivery predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// Subscription is the handle returned by Bus.Subscribe. It binds a handler to
// one or more kinds on behalf of an owner entity. The owner is an entity.ID,
// so a subscription never keeps its owner alive.
type Subscription struct {
	id      string
	kinds   []catalog.Kind
	owner   entity.ID
	handler Handler
	config  SubscriptionConfig
	state   atomic.Int32
}

func newSubscription(id string, kinds []catalog.Kind, owner entity.ID, h Handler, opts ...SubscriptionOption) *Subscription {
	var config SubscriptionConfig
	for _, opt := range opts {
		opt(&config)
	}

	s := &Subscription{
		id:      id,
		kinds:   kinds,
		owner:   owner,
		handler: h,
		config:  config,
	}
	s.state.Store(int32(SubscriptionStateActive))
	return s
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Kinds returns a copy of the subscribed kinds.
func (s *Subscription) Kinds() []catalog.Kind {
	out := make([]catalog.Kind, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// Owner returns the owning entity.
func (s *Subscription) Owner() entity.ID {
	return s.owner
}

// Name returns the diagnostic label, or the ID if none was set.
func (s *Subscription) Name() string {
	if s.config.Name != "" {
		return s.config.Name
	}
	return s.id
}

// Config returns the subscription configuration.
func (s *Subscription) Config() SubscriptionConfig {
	return s.config
}

// State returns the current subscription state.
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// IsActive returns true if the subscription is active.
func (s *Subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

// IsPaused returns true if the subscription is paused.
func (s *Subscription) IsPaused() bool {
	return s.State() == SubscriptionStatePaused
}

// IsCancelled returns true once the subscription has been unsubscribed.
func (s *Subscription) IsCancelled() bool {
	return s.State() == SubscriptionStateCancelled
}

// Pause temporarily stops delivery without giving up the registration slot.
func (s *Subscription) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStatePaused))
}

// Resume restarts delivery after a pause.
func (s *Subscription) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionStatePaused), int32(SubscriptionStateActive))
}

// cancel marks the subscription dead. Returns false if it already was.
func (s *Subscription) cancel() bool {
	return s.state.Swap(int32(SubscriptionStateCancelled)) != int32(SubscriptionStateCancelled)
}

// claimOnce moves an active once-subscription to cancelled.
// Only one concurrent publisher wins.
func (s *Subscription) claimOnce() bool {
	return s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStateCancelled))
}
