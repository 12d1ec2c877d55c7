package event

import "github.com/dshills/gamebus/internal/entity"

// Publisher binds a bus to an originating entity and offers shorthand for
// the common receiver choices.
type Publisher struct {
	bus        *Bus
	originator entity.ID
}

// NewPublisher creates a Publisher that stamps originator on every payload.
func NewPublisher(bus *Bus, originator entity.ID) *Publisher {
	return &Publisher{
		bus:        bus,
		originator: originator,
	}
}

// Originator returns the entity stamped on published payloads.
func (p *Publisher) Originator() entity.ID {
	return p.originator
}

// Publish builds a payload with the given receivers and publishes it.
func (p *Publisher) Publish(desc Descriptor, receivers Receivers, params ...any) {
	p.bus.Publish(desc, NewPayload(p.originator, receivers, params...))
}

// ToSelf publishes to the originator's own subscribers only.
func (p *Publisher) ToSelf(desc Descriptor, params ...any) {
	p.Publish(desc, Self(), params...)
}

// ToAll broadcasts to every subscriber.
func (p *Publisher) ToAll(desc Descriptor, params ...any) {
	p.Publish(desc, Broadcast(), params...)
}

// ToTagged publishes to subscribers whose owner carries tag.
func (p *Publisher) ToTagged(desc Descriptor, tag entity.Tag, params ...any) {
	p.Publish(desc, Tagged(tag), params...)
}

// ToEntities publishes to the listed entities' subscribers.
func (p *Publisher) ToEntities(desc Descriptor, ids []entity.ID, params ...any) {
	p.Publish(desc, Entities(ids...), params...)
}
