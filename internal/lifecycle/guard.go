// Package lifecycle ties bus subscriptions and deferred tasks to the
// enable/disable lifecycle of an entity's components.
package lifecycle

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/schedule"
)

// ErrReleased is returned when subscribing through a guard that has been released.
var ErrReleased = errors.New("guard released")

// Guard records the subscriptions and scheduled tasks a component creates
// on behalf of one owner entity so they can all be dropped together.
//
// Handlers and tasks installed through a Guard are skipped once the owner
// is no longer alive in the entity table, even before Release is called.
type Guard struct {
	mu       sync.Mutex
	bus      *event.Bus
	owner    entity.ID
	entities entity.Lookup
	queue    *schedule.Queue
	subs     []*event.Subscription
	tasks    map[schedule.TaskID]struct{}
	released bool
}

// NewGuard creates a guard for owner. entities and queue may be nil; without
// entities no liveness check is applied, without queue After is unavailable.
func NewGuard(bus *event.Bus, owner entity.ID, entities entity.Lookup, queue *schedule.Queue) *Guard {
	return &Guard{
		bus:      bus,
		owner:    owner,
		entities: entities,
		queue:    queue,
		tasks:    make(map[schedule.TaskID]struct{}),
	}
}

// Owner returns the guarded entity.
func (g *Guard) Owner() entity.ID {
	return g.owner
}

// Subscribe registers h on the bus for the guard's owner and retains the handle.
func (g *Guard) Subscribe(desc event.Descriptor, h event.Handler, opts ...event.SubscriptionOption) (*event.Subscription, error) {
	if h == nil {
		return nil, event.ErrNilHandler
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil, ErrReleased
	}

	sub, err := g.bus.Subscribe(desc, g.owner, g.wrap(h), opts...)
	if err != nil {
		return nil, err
	}
	g.subs = append(g.subs, sub)
	return sub, nil
}

// SubscribeFunc is Subscribe for a plain callback.
func (g *Guard) SubscribeFunc(desc event.Descriptor, fn func(event.Payload), opts ...event.SubscriptionOption) (*event.Subscription, error) {
	if fn == nil {
		return nil, event.ErrNilHandler
	}
	return g.Subscribe(desc, event.Func(fn), opts...)
}

// wrap adds the owner liveness check.
func (g *Guard) wrap(h event.Handler) event.Handler {
	if g.entities == nil || g.owner.IsNil() {
		return h
	}
	owner, entities := g.owner, g.entities
	return event.HandlerFunc(func(p event.Payload) error {
		if !entities.Alive(owner) {
			return nil
		}
		return h.Handle(p)
	})
}

// Unsubscribe removes a single subscription held by the guard.
// It returns false if the guard does not hold sub.
func (g *Guard) Unsubscribe(sub *event.Subscription) bool {
	if sub == nil {
		return false
	}

	g.mu.Lock()
	idx := -1
	for i, s := range g.subs {
		if s == sub {
			idx = i
			break
		}
	}
	if idx >= 0 {
		g.subs = append(g.subs[:idx], g.subs[idx+1:]...)
	}
	g.mu.Unlock()

	if idx < 0 {
		return false
	}
	g.bus.Unsubscribe(sub)
	return true
}

// After schedules fn on the guard's queue. The task is cancelled by Release
// and skipped if the owner has died by the time it is due. The guard stops
// tracking the task once it has run.
func (g *Guard) After(now, delay time.Duration, fn func()) (schedule.TaskID, error) {
	if fn == nil {
		return 0, errors.New("nil task")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return 0, ErrReleased
	}
	if g.queue == nil {
		return 0, errors.New("guard has no scheduler")
	}

	owner, entities := g.owner, g.entities
	var id schedule.TaskID
	id = g.queue.After(now, delay, func() {
		g.mu.Lock()
		delete(g.tasks, id)
		g.mu.Unlock()

		if entities != nil && !owner.IsNil() && !entities.Alive(owner) {
			return
		}
		fn()
	})
	g.tasks[id] = struct{}{}
	return id, nil
}

// Len returns the number of subscriptions the guard currently holds.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.subs)
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.released
}

// Release cancels pending tasks and unsubscribes every held subscription in
// reverse registration order. It is safe to call more than once.
func (g *Guard) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	subs := g.subs
	tasks := g.tasks
	g.subs = nil
	g.tasks = nil
	g.mu.Unlock()

	if g.queue != nil {
		for id := range tasks {
			g.queue.Cancel(id)
		}
	}
	for i := len(subs) - 1; i >= 0; i-- {
		g.bus.Unsubscribe(subs[i])
	}
}
