package lifecycle

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/schedule"
)

// Component is attached to an entity and reacts to bus events.
//
// Enable is called when the component becomes active and should subscribe
// through ctx. Disable is called before the component is detached; the
// host releases ctx's guard right after Disable returns, so components only
// need to drop state of their own.
type Component interface {
	Enable(ctx *Context) error
	Disable()
}

// Updater is implemented by components that need a per-tick callback.
type Updater interface {
	Update(dt time.Duration)
}

// Context is what a component sees of its host while it is enabled.
type Context struct {
	Bus       *event.Bus
	World     *entity.World
	Owner     entity.ID
	Scheduler *schedule.Queue
	Logger    zerolog.Logger

	// Debug turns on dispatch logging for subscriptions made through the context.
	Debug bool

	now   func() time.Duration
	guard *Guard
}

// NewContext creates a component context with its own guard.
// now returns the host's current game time; world and scheduler may be nil.
func NewContext(bus *event.Bus, world *entity.World, owner entity.ID, scheduler *schedule.Queue, logger zerolog.Logger, now func() time.Duration) *Context {
	if now == nil {
		now = func() time.Duration { return 0 }
	}
	var lookup entity.Lookup
	if world != nil {
		lookup = world
	}
	return &Context{
		Bus:       bus,
		World:     world,
		Owner:     owner,
		Scheduler: scheduler,
		Logger:    logger,
		now:       now,
		guard:     NewGuard(bus, owner, lookup, scheduler),
	}
}

// Guard returns the guard holding this context's subscriptions.
func (c *Context) Guard() *Guard {
	return c.guard
}

// Now returns the current game time.
func (c *Context) Now() time.Duration {
	return c.now()
}

// Subscribe registers h for the owner through the guard.
func (c *Context) Subscribe(desc event.Descriptor, h event.Handler, opts ...event.SubscriptionOption) (*event.Subscription, error) {
	if c.Debug {
		opts = append(opts, event.WithDebug())
	}
	return c.guard.Subscribe(desc, h, opts...)
}

// On registers a callback that cannot fail.
func (c *Context) On(desc event.Descriptor, fn func(event.Payload), opts ...event.SubscriptionOption) (*event.Subscription, error) {
	if fn == nil {
		return nil, event.ErrNilHandler
	}
	return c.Subscribe(desc, event.Func(fn), opts...)
}

// Publisher returns a publisher stamped with the owner.
func (c *Context) Publisher() *event.Publisher {
	return event.NewPublisher(c.Bus, c.Owner)
}

// After runs fn after delay of game time, unless the component is disabled first.
func (c *Context) After(delay time.Duration, fn func()) (schedule.TaskID, error) {
	return c.guard.After(c.now(), delay, fn)
}

// Release drops every subscription and task made through this context.
func (c *Context) Release() {
	c.guard.Release()
}
