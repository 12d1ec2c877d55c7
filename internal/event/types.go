package event

import (
	"time"

	"github.com/dshills/gamebus/internal/event/catalog"
)

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes one published payload.
	// A returned error is reported to the diagnostic sink and does not
	// affect other subscribers.
	Handle(p Payload) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(p Payload) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(p Payload) error {
	return f(p)
}

// Func adapts a callback that cannot fail.
func Func(fn func(p Payload)) HandlerFunc {
	return func(p Payload) error {
		fn(p)
		return nil
	}
}

// FilterFunc is an extra predicate evaluated after receiver filtering.
// Return true to deliver the payload.
type FilterFunc func(p Payload) bool

// Outcome classifies a single handler invocation.
type Outcome int

const (
	// OutcomeDelivered means the handler returned nil.
	OutcomeDelivered Outcome = iota

	// OutcomeFailed means the handler returned an error.
	OutcomeFailed

	// OutcomePanicked means the handler panicked and was recovered.
	OutcomePanicked
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	case OutcomePanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Observer receives dispatch measurements. Implementations must be cheap and
// must not call back into the bus.
type Observer interface {
	// ObservePublish is called once per kind of a publish with the number of
	// subscriptions in that kind's snapshot.
	ObservePublish(kind catalog.Kind, subscribers int)

	// ObserveDelivery is called after each handler invocation.
	ObserveDelivery(kind catalog.Kind, outcome Outcome, took time.Duration)

	// ObserveMismatch is called when a subscription is skipped by receiver
	// filtering, its filter, or because its owner no longer exists.
	ObserveMismatch(kind catalog.Kind)
}

type nopObserver struct{}

func (nopObserver) ObservePublish(catalog.Kind, int) {}
func (nopObserver) ObserveDelivery(catalog.Kind, Outcome, time.Duration) {}
func (nopObserver) ObserveMismatch(catalog.Kind) {}

// PanicHandler is called when a handler panics.
type PanicHandler func(p Payload, sub *Subscription, recovered any)

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the number of Publish calls with a non-empty descriptor.
	EventsPublished uint64

	// HandlersExecuted is the total number of handler invocations.
	HandlersExecuted uint64

	// EventsDelivered is the number of invocations that returned nil.
	EventsDelivered uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Mismatches is the number of subscriptions skipped by filtering.
	Mismatches uint64

	// OwnersGone is the number of subscriptions skipped because their owner
	// entity had been destroyed.
	OwnersGone uint64

	// AvgDeliveryTimeNs is the average handler execution time in nanoseconds.
	AvgDeliveryTimeNs int64

	// ActiveSubscribers is the current number of registered subscriptions.
	ActiveSubscribers int

	// Kinds is the number of kinds with at least one subscription.
	Kinds int
}
