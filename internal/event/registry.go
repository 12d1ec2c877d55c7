package event

import (
	"sort"
	"sync"

	"github.com/dshills/gamebus/internal/event/catalog"
)

// Registry maps each kind to its subscriptions in registration order.
// It is thread-safe for concurrent access.
//
// Per-kind slices are copy-on-write: Add and Remove always build a new slice,
// so a slice obtained from Snapshot is never mutated afterwards and can be
// iterated without holding the lock.
type Registry struct {
	mu   sync.RWMutex
	subs map[catalog.Kind][]*Subscription
	byID map[string]*Subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[catalog.Kind][]*Subscription),
		byID: make(map[string]*Subscription),
	}
}

// Add appends sub to the list of each of its kinds.
func (r *Registry) Add(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range sub.kinds {
		cur := r.subs[k]
		next := make([]*Subscription, len(cur), len(cur)+1)
		copy(next, cur)
		r.subs[k] = append(next, sub)
	}
	r.byID[sub.id] = sub
}

// Remove removes sub from every kind it was added to.
// Returns false if it was not registered.
func (r *Registry) Remove(sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[sub.id]; !exists {
		return false
	}

	for _, k := range sub.kinds {
		cur := r.subs[k]
		next := make([]*Subscription, 0, len(cur))
		for _, s := range cur {
			if s != sub {
				next = append(next, s)
			}
		}

		// Clean up empty kind entries
		if len(next) == 0 {
			delete(r.subs, k)
		} else {
			r.subs[k] = next
		}
	}

	delete(r.byID, sub.id)
	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(id string) (*Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[id]
	return sub, exists
}

// Snapshot returns, for each kind in order, the subscription list as of this
// call. The returned slices must not be modified.
func (r *Registry) Snapshot(kinds []catalog.Kind) [][]*Subscription {
	out := make([][]*Subscription, len(kinds))

	r.mu.RLock()
	for i, k := range kinds {
		out[i] = r.subs[k]
	}
	r.mu.RUnlock()

	return out
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountKind returns the number of subscriptions listening to k.
func (r *Registry) CountKind(k catalog.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs[k])
}

// Kinds returns every kind with at least one subscription, sorted.
func (r *Registry) Kinds() []catalog.Kind {
	r.mu.RLock()
	kinds := make([]catalog.Kind, 0, len(r.subs))
	for k := range r.subs {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()

	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].String() < kinds[j].String()
	})
	return kinds
}

// Clear removes all subscriptions and returns them.
func (r *Registry) Clear() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]*Subscription, 0, len(r.byID))
	for _, sub := range r.byID {
		removed = append(removed, sub)
	}

	r.subs = make(map[catalog.Kind][]*Subscription)
	r.byID = make(map[string]*Subscription)
	return removed
}
