package event

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/entity"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/event/dispatch"
)

// Bus is the dispatch bus: a registry of subscriptions per kind and the
// engine that invokes them on Publish.
//
// A Bus is explicitly constructed and owned; there is no process-wide
// instance. It is safe for concurrent use. Handlers run synchronously in the
// publisher's goroutine and may call Subscribe, Unsubscribe and Publish.
type Bus struct {
	registry   *Registry
	dispatcher *dispatch.Dispatcher
	config     busConfig

	closed atomic.Bool
	debug  atomic.Bool

	eventsPublished atomic.Uint64
	mismatches      atomic.Uint64
	ownersGone      atomic.Uint64
}

// delivery is what the dispatcher hands back to the panic hook.
type delivery struct {
	kind catalog.Kind
	sub  *Subscription
	p    Payload
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &Bus{
		registry: NewRegistry(),
		config:   config,
	}
	b.debug.Store(config.debug)
	b.dispatcher = dispatch.NewDispatcher(dispatch.WithPanicHandler(b.onPanic))
	return b
}

// Subscribe registers h for every kind in desc on behalf of owner, after any
// existing subscriptions for those kinds. Registering the same handler and
// owner twice is allowed and both registrations fire.
//
// An empty descriptor yields a subscription that never fires.
func (b *Bus) Subscribe(desc Descriptor, owner entity.ID, h Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	sub := newSubscription(uuid.NewString(), desc.Kinds(), owner, h, opts...)
	if len(sub.kinds) > 0 {
		b.registry.Add(sub)
		// Close may have cleared the registry between the check above and Add.
		if b.closed.Load() {
			sub.cancel()
			b.registry.Remove(sub)
			return nil, ErrBusClosed
		}
	}

	if sub.config.Debug || b.debug.Load() {
		b.config.logger.Debug().
			Str("subscription", sub.Name()).
			Str("kinds", desc.String()).
			Stringer("owner", owner).
			Msg("subscribed")
	}
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *Bus) SubscribeFunc(desc Descriptor, owner entity.ID, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(desc, owner, fn, opts...)
}

// Unsubscribe removes sub from every kind it was registered for. A Publish
// that has not yet reached sub, including one further up the calling
// goroutine's stack, skips it. A Publish running concurrently on another
// goroutine may still be inside the handler, or about to enter it, when
// Unsubscribe returns. Unsubscribing twice, or a nil subscription, is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.cancel()
	b.registry.Remove(sub)
}

// Publish delivers p to the subscribers of each kind in desc, kind by kind in
// descriptor order, subscribers in registration order. The subscriber lists
// are captured when Publish starts, so subscriptions added by handlers only
// see later publishes.
//
// Publish never fails from the caller's point of view: handler errors and
// panics are reported to the logger and observer, and dispatch continues.
func (b *Bus) Publish(desc Descriptor, p Payload) {
	if desc.IsEmpty() || b.closed.Load() {
		return
	}

	lists := b.registry.Snapshot(desc.kinds)
	b.eventsPublished.Add(1)

	for i, kind := range desc.kinds {
		subs := lists[i]
		b.config.observer.ObservePublish(kind, len(subs))
		for _, sub := range subs {
			b.deliver(kind, sub, p)
		}
	}
}

func (b *Bus) deliver(kind catalog.Kind, sub *Subscription, p Payload) {
	if !sub.IsActive() {
		return
	}

	debug := sub.config.Debug || b.debug.Load()

	if b.ownerGone(sub.owner) {
		b.ownersGone.Add(1)
		b.config.observer.ObserveMismatch(kind)
		if debug {
			b.logDispatch(kind, sub, p).Msg("owner gone, skipped")
		}
		return
	}

	if !ShouldRespond(p, sub.owner, b.config.entities) {
		b.mismatches.Add(1)
		b.config.observer.ObserveMismatch(kind)
		if debug {
			b.logDispatch(kind, sub, p).Msg("receivers mismatch")
		}
		return
	}

	if f := sub.config.Filter; f != nil && !f(p) {
		b.mismatches.Add(1)
		b.config.observer.ObserveMismatch(kind)
		if debug {
			b.logDispatch(kind, sub, p).Msg("filtered")
		}
		return
	}

	if sub.config.Once {
		if !sub.claimOnce() {
			return
		}
		b.registry.Remove(sub)
	}

	if debug {
		b.logDispatch(kind, sub, p).Msg("dispatch")
	}

	result := b.dispatcher.Dispatch(delivery{kind: kind, sub: sub, p: p}, func() error {
		return sub.handler.Handle(p)
	})
	b.record(kind, sub, result)
}

func (b *Bus) ownerGone(owner entity.ID) bool {
	if owner.IsNil() || b.config.entities == nil {
		return false
	}
	return !b.config.entities.Alive(owner)
}

// onPanic runs inside the dispatcher's recover for a panicking handler.
func (b *Bus) onPanic(ev any, recovered any, stack []byte) {
	d, ok := ev.(delivery)
	if !ok {
		return
	}
	perr := &PanicError{
		SubscriptionID: d.sub.id,
		Kind:           d.kind,
		Value:          recovered,
		Stack:          string(stack),
	}
	b.config.logger.Error().
		Err(perr).
		Str("subscription", d.sub.Name()).
		Stringer("owner", d.sub.owner).
		Str("stack", perr.Stack).
		Msg("event handler panicked")
	if b.config.panicHandler != nil {
		b.config.panicHandler(d.p, d.sub, recovered)
	}
}

func (b *Bus) record(kind catalog.Kind, sub *Subscription, result dispatch.Result) {
	switch {
	case result.IsPanic():
		b.config.observer.ObserveDelivery(kind, OutcomePanicked, result.Duration)

	case result.IsError():
		b.config.observer.ObserveDelivery(kind, OutcomeFailed, result.Duration)
		b.config.logger.Warn().
			Err(&HandlerError{SubscriptionID: sub.id, Kind: kind, Err: result.Error}).
			Str("subscription", sub.Name()).
			Stringer("owner", sub.owner).
			Msg("event handler failed")

	default:
		b.config.observer.ObserveDelivery(kind, OutcomeDelivered, result.Duration)
	}
}

func (b *Bus) logDispatch(kind catalog.Kind, sub *Subscription, p Payload) *zerolog.Event {
	return b.config.logger.Debug().
		Stringer("kind", kind).
		Str("subscription", sub.Name()).
		Stringer("owner", sub.owner).
		Stringer("originator", p.originator).
		Stringer("receivers", p.receivers)
}

// SetDebug toggles dispatch logging for all subscriptions at runtime.
func (b *Bus) SetDebug(enabled bool) {
	b.debug.Store(enabled)
}

// Close drops every subscription. Afterwards Subscribe returns ErrBusClosed
// and Publish does nothing. Close is idempotent.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	for _, sub := range b.registry.Clear() {
		sub.cancel()
	}
}

// IsClosed returns true after Close.
func (b *Bus) IsClosed() bool {
	return b.closed.Load()
}

// Count returns the number of registered subscriptions.
func (b *Bus) Count() int {
	return b.registry.Count()
}

// CountKind returns the number of subscriptions listening to k.
func (b *Bus) CountKind(k catalog.Kind) int {
	return b.registry.CountKind(k)
}

// Kinds returns every kind with at least one subscription.
func (b *Bus) Kinds() []catalog.Kind {
	return b.registry.Kinds()
}

// Stats returns current bus statistics. Handler counts and timings come
// from the dispatcher.
func (b *Bus) Stats() Stats {
	ds := b.dispatcher.Stats()
	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  ds.Dispatched,
		EventsDelivered:   ds.Succeeded,
		HandlerErrors:     ds.Failed,
		HandlerPanics:     ds.Panicked,
		Mismatches:        b.mismatches.Load(),
		OwnersGone:        b.ownersGone.Load(),
		AvgDeliveryTimeNs: ds.AvgDuration.Nanoseconds(),
		ActiveSubscribers: b.registry.Count(),
		Kinds:             len(b.registry.Kinds()),
	}
}
