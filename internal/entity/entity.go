// Package entity provides the entity table used to reference game entities
// without holding pointers to them.
//
// An ID is an index into the table plus a generation counter. Destroying an
// entity bumps the generation of its slot, so stale IDs held by subscriptions
// or components simply stop resolving instead of dangling.
package entity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Entity errors.
var (
	// ErrNotFound is returned when an ID does not refer to a live entity.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidID is returned by ParseID for malformed input.
	ErrInvalidID = errors.New("invalid entity id")
)

// ID is a weak reference to an entity: slot index in the low 32 bits and
// slot generation in the high 32 bits. The zero ID is Nil.
type ID uint64

// Nil is the absent entity.
const Nil ID = 0

func makeID(index, gen uint32) ID {
	return ID(uint64(gen)<<32 | uint64(index))
}

// Index returns the slot index.
func (id ID) Index() uint32 {
	return uint32(id)
}

// Generation returns the slot generation.
func (id ID) Generation() uint32 {
	return uint32(id >> 32)
}

// IsNil returns true for the absent entity.
func (id ID) IsNil() bool {
	return id == Nil
}

// String returns "index:generation", or "nil".
func (id ID) String() string {
	if id == Nil {
		return "nil"
	}
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// ParseID parses the form produced by String.
func ParseID(s string) (ID, error) {
	if s == "nil" {
		return Nil, nil
	}
	idx, gen, ok := strings.Cut(s, ":")
	if !ok {
		return Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil || g == 0 {
		return Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return makeID(uint32(i), uint32(g)), nil
}

// Tag is a label an entity may carry for group-addressed events.
type Tag string

// Lookup answers liveness and tag questions at dispatch time.
// World implements it.
type Lookup interface {
	Alive(id ID) bool
	HasTag(id ID, tag Tag) bool
}

// World is the entity table. It is safe for concurrent use.
type World struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
	alive int
}

type slot struct {
	gen   uint32
	alive bool
	name  string
	tags  map[Tag]struct{}
}

// NewWorld creates an empty entity table.
func NewWorld() *World {
	return &World{}
}

// Create adds a live entity with the given name and tags.
func (w *World) Create(name string, tags ...Tag) ID {
	w.mu.Lock()
	defer w.mu.Unlock()

	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.slots = append(w.slots, slot{})
		idx = uint32(len(w.slots) - 1)
	}

	s := &w.slots[idx]
	s.gen++
	if s.gen == 0 {
		// Generation wrapped; zero is reserved for Nil.
		s.gen = 1
	}
	s.alive = true
	s.name = name
	s.tags = make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		if t != "" {
			s.tags[t] = struct{}{}
		}
	}
	w.alive++

	return makeID(idx, s.gen)
}

// get returns the slot for a live id. Caller holds the lock.
func (w *World) get(id ID) *slot {
	if id == Nil {
		return nil
	}
	idx := id.Index()
	if int(idx) >= len(w.slots) {
		return nil
	}
	s := &w.slots[idx]
	if !s.alive || s.gen != id.Generation() {
		return nil
	}
	return s
}

// Destroy removes an entity. IDs that referred to it stop resolving.
// Destroying a dead or Nil ID returns ErrNotFound.
func (w *World) Destroy(id ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.get(id)
	if s == nil {
		return ErrNotFound
	}
	s.alive = false
	s.name = ""
	s.tags = nil
	w.free = append(w.free, id.Index())
	w.alive--
	return nil
}

// Alive returns true if id refers to a live entity.
func (w *World) Alive(id ID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.get(id) != nil
}

// Name returns the entity name, or "" if the entity is not alive.
func (w *World) Name(id ID) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s := w.get(id); s != nil {
		return s.name
	}
	return ""
}

// HasTag reports whether a live entity currently carries tag.
func (w *World) HasTag(id ID, tag Tag) bool {
	if tag == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.get(id)
	if s == nil {
		return false
	}
	_, ok := s.tags[tag]
	return ok
}

// AddTag attaches tag to a live entity.
func (w *World) AddTag(id ID, tag Tag) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.get(id)
	if s == nil {
		return ErrNotFound
	}
	if tag != "" {
		s.tags[tag] = struct{}{}
	}
	return nil
}

// RemoveTag detaches tag from a live entity. Removing an absent tag is not an error.
func (w *World) RemoveTag(id ID, tag Tag) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.get(id)
	if s == nil {
		return ErrNotFound
	}
	delete(s.tags, tag)
	return nil
}

// Tags returns the entity's tags sorted by name.
func (w *World) Tags(id ID) []Tag {
	w.mu.RLock()
	s := w.get(id)
	if s == nil {
		w.mu.RUnlock()
		return nil
	}
	out := make([]Tag, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tagged returns every live entity carrying tag, in slot order.
func (w *World) Tagged(tag Tag) []ID {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []ID
	for i := range w.slots {
		s := &w.slots[i]
		if !s.alive {
			continue
		}
		if _, ok := s.tags[tag]; ok {
			out = append(out, makeID(uint32(i), s.gen))
		}
	}
	return out
}

// Find returns the first live entity with the given name.
func (w *World) Find(name string) (ID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for i := range w.slots {
		s := &w.slots[i]
		if s.alive && s.name == name {
			return makeID(uint32(i), s.gen), true
		}
	}
	return Nil, false
}

// Len returns the number of live entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.alive
}
