package event

import (
	"strings"

	"github.com/dshills/gamebus/internal/event/catalog"
)

// Descriptor is an immutable ordered set of event kinds. Subscribing with a
// descriptor means "any of these"; publishing with one fires each kind in order.
//
// The zero Descriptor is empty: subscribing to it registers nothing and
// publishing it invokes nothing.
type Descriptor struct {
	kinds []catalog.Kind
}

// On builds a descriptor from kinds. Zero kinds are dropped and duplicates
// keep their first position.
func On(kinds ...catalog.Kind) Descriptor {
	if len(kinds) == 0 {
		return Descriptor{}
	}
	out := make([]catalog.Kind, 0, len(kinds))
	for _, k := range kinds {
		if k.IsZero() || contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return Descriptor{kinds: out}
}

func contains(kinds []catalog.Kind, k catalog.Kind) bool {
	for _, existing := range kinds {
		if existing == k {
			return true
		}
	}
	return false
}

// Kinds returns a copy of the kinds in order.
func (d Descriptor) Kinds() []catalog.Kind {
	if len(d.kinds) == 0 {
		return nil
	}
	out := make([]catalog.Kind, len(d.kinds))
	copy(out, d.kinds)
	return out
}

// Len returns the number of kinds.
func (d Descriptor) Len() int {
	return len(d.kinds)
}

// IsEmpty returns true if the descriptor names no kinds.
func (d Descriptor) IsEmpty() bool {
	return len(d.kinds) == 0
}

// Has returns true if k is part of the descriptor.
func (d Descriptor) Has(k catalog.Kind) bool {
	return contains(d.kinds, k)
}

// With returns a new descriptor with kinds appended.
func (d Descriptor) With(kinds ...catalog.Kind) Descriptor {
	all := make([]catalog.Kind, 0, len(d.kinds)+len(kinds))
	all = append(all, d.kinds...)
	all = append(all, kinds...)
	return On(all...)
}

// String returns the kinds joined by commas.
func (d Descriptor) String() string {
	parts := make([]string, len(d.kinds))
	for i, k := range d.kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
