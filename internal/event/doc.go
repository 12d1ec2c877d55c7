// Package event provides the dispatch bus that lets game components talk to
// each other without holding references to one another.
//
// # Architecture
//
//	                 ┌──────────────────────────────────────┐
//	                 │                 Bus                  │
//	                 │  - kind -> ordered subscriptions     │
//	                 │  - receiver filtering per publish    │
//	                 │  - failure isolation per handler     │
//	                 └──────────────────────────────────────┘
//	                                  │
//	       ┌──────────────────────────┼──────────────────────────┐
//	       ▼                          ▼                          ▼
//	┌──────────────┐         ┌─────────────────┐        ┌─────────────────┐
//	│   Registry   │         │    Receivers    │        │    dispatch     │
//	│ copy-on-write│         │ self / entities │        │ panic recovery  │
//	│ per-kind     │         │ tag / broadcast │        │ timing, stats   │
//	└──────────────┘         └─────────────────┘        └─────────────────┘
//
// # Kinds and Descriptors
//
// Event kinds come from the catalog package. A Descriptor lists the kinds a
// subscriber wants to hear or a publisher wants to fire:
//
//	desc := event.On(catalog.PlayerDamaged, catalog.PlayerHealed)
//
// # Receivers
//
// Every payload carries a Receivers value that decides which subscribers of
// the published kind actually run:
//
//	event.Self()              only subscribers owned by the originator
//	event.Entities(a, b)      only subscribers owned by a or b
//	event.Tagged("enemy")     subscribers whose owner carries "enemy" right now
//	event.Broadcast()         everyone
//
// Tag membership is looked up through the entity table at dispatch time, so
// tags added or removed after subscribing are honored.
//
// # Basic Usage
//
//	world := entity.NewWorld()
//	bus := event.NewBus(event.WithEntities(world), event.WithLogger(logger))
//	defer bus.Close()
//
//	player := world.Create("player", "hero")
//	sub, err := bus.SubscribeFunc(event.On(catalog.PlayerDamaged), player,
//	    func(p event.Payload) error {
//	        amount, _ := p.Float(0)
//	        return health.Apply(-amount)
//	    })
//
//	bus.Publish(event.On(catalog.PlayerDamaged),
//	    event.NewPayload(enemy, event.Entities(player), 12.5))
//
//	bus.Unsubscribe(sub)
//
// # Ordering and Reentrancy
//
// Within one Publish, subscribers of a kind run in registration order. The
// subscriber lists are captured when Publish starts: a handler that
// subscribes during dispatch is first called on the next Publish. A handler
// that unsubscribes another subscription prevents that subscription from
// running, even later in the same Publish.
//
// # Failures
//
// Publish never returns an error. A handler that returns an error or panics
// is logged through zerolog and counted in Stats; the remaining handlers
// still run. Malformed receivers and publishes with no subscribers are
// silent no-ops.
//
// # Thread Safety
//
// The Bus is safe for concurrent use. The registry lock is only held to
// mutate or to capture subscriber lists, never while handlers run.
//
// # Subpackages
//
//   - catalog: event categories and kinds
//   - dispatch: handler execution with panic recovery
package event
