package event

import (
	"strings"

	"github.com/dshills/gamebus/internal/entity"
)

// ReceiverMode identifies the active variant of Receivers.
type ReceiverMode uint8

const (
	// ReceiversInvalid is the zero value. It matches nothing.
	ReceiversInvalid ReceiverMode = iota

	// ReceiversSelf addresses only the payload's originator.
	ReceiversSelf

	// ReceiversEntities addresses an explicit list of entities.
	ReceiversEntities

	// ReceiversTagged addresses every entity carrying a tag at dispatch time.
	ReceiversTagged

	// ReceiversBroadcast addresses every subscriber.
	ReceiversBroadcast
)

// String returns a human-readable mode name.
func (m ReceiverMode) String() string {
	switch m {
	case ReceiversSelf:
		return "self"
	case ReceiversEntities:
		return "entities"
	case ReceiversTagged:
		return "tagged"
	case ReceiversBroadcast:
		return "broadcast"
	default:
		return "invalid"
	}
}

// Receivers decides which subscribers of a published kind react to it.
// Exactly one variant is active; build values with Self, Entities, Tagged
// or Broadcast.
type Receivers struct {
	mode ReceiverMode
	ids  []entity.ID
	tag  entity.Tag
}

// Self addresses only the originator of the payload.
func Self() Receivers {
	return Receivers{mode: ReceiversSelf}
}

// Entities addresses the listed entities. Nil entries are kept but never match.
func Entities(ids ...entity.ID) Receivers {
	cp := make([]entity.ID, len(ids))
	copy(cp, ids)
	return Receivers{mode: ReceiversEntities, ids: cp}
}

// Tagged addresses every subscriber whose owner carries tag when the event
// is dispatched.
func Tagged(tag entity.Tag) Receivers {
	return Receivers{mode: ReceiversTagged, tag: tag}
}

// Broadcast addresses every subscriber.
func Broadcast() Receivers {
	return Receivers{mode: ReceiversBroadcast}
}

// Mode returns the active variant.
func (r Receivers) Mode() ReceiverMode {
	return r.mode
}

// IDs returns a copy of the explicit entity list.
func (r Receivers) IDs() []entity.ID {
	if len(r.ids) == 0 {
		return nil
	}
	out := make([]entity.ID, len(r.ids))
	copy(out, r.ids)
	return out
}

// Tag returns the addressed tag for ReceiversTagged.
func (r Receivers) Tag() entity.Tag {
	return r.tag
}

// IsValid returns false for receivers that can never match anything.
func (r Receivers) IsValid() bool {
	switch r.mode {
	case ReceiversSelf, ReceiversBroadcast:
		return true
	case ReceiversEntities:
		for _, id := range r.ids {
			if !id.IsNil() {
				return true
			}
		}
		return false
	case ReceiversTagged:
		return r.tag != ""
	default:
		return false
	}
}

// String returns a compact description for logs.
func (r Receivers) String() string {
	switch r.mode {
	case ReceiversEntities:
		parts := make([]string, len(r.ids))
		for i, id := range r.ids {
			parts[i] = id.String()
		}
		return "entities[" + strings.Join(parts, ",") + "]"
	case ReceiversTagged:
		return "tag:" + string(r.tag)
	default:
		return r.mode.String()
	}
}

// TagQuery answers live tag membership questions.
type TagQuery interface {
	HasTag(id entity.ID, tag entity.Tag) bool
}

// ShouldRespond reports whether a subscriber owned by owner reacts to p.
// Malformed receivers match nothing. Tag membership is queried through tags
// at call time; a nil TagQuery never matches a tag.
func ShouldRespond(p Payload, owner entity.ID, tags TagQuery) bool {
	r := p.receivers
	switch r.mode {
	case ReceiversSelf:
		return !owner.IsNil() && owner == p.originator
	case ReceiversEntities:
		if owner.IsNil() {
			return false
		}
		for _, id := range r.ids {
			if !id.IsNil() && id == owner {
				return true
			}
		}
		return false
	case ReceiversTagged:
		if r.tag == "" || tags == nil || owner.IsNil() {
			return false
		}
		return tags.HasTag(owner, r.tag)
	case ReceiversBroadcast:
		return true
	default:
		return false
	}
}
