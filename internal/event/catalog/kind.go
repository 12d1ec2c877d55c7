package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Separator joins a category and a kind name.
const Separator = "."

// ErrInvalidKind is returned when a kind string cannot be parsed.
var ErrInvalidKind = errors.New("invalid event kind")

// Category groups related event kinds.
type Category string

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// Kind declares a kind in this category and records it as known.
// Declaring the same kind twice returns equal values.
func (c Category) Kind(name string) Kind {
	k := Kind{Category: c, Name: name}
	known.add(k)
	return k
}

// Kinds returns the known kinds of this category, sorted by name.
func (c Category) Kinds() []Kind {
	var out []Kind
	for _, k := range Known() {
		if k.Category == c {
			out = append(out, k)
		}
	}
	return out
}

// Kind identifies one named event inside a category.
// The zero Kind is invalid.
type Kind struct {
	Category Category
	Name     string
}

// String returns the kind in "category.name" form.
func (k Kind) String() string {
	if k.Category == "" {
		return k.Name
	}
	return string(k.Category) + Separator + k.Name
}

// IsZero returns true for the zero Kind.
func (k Kind) IsZero() bool {
	return k.Category == "" && k.Name == ""
}

// IsValid returns true if both parts are non-empty and contain no separator
// or whitespace.
func (k Kind) IsValid() bool {
	return validPart(string(k.Category)) && validPart(k.Name)
}

func validPart(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, Separator+" \t\r\n")
}

// ParseKind parses a "category.name" string.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, Separator)
	if idx < 0 {
		return Kind{}, fmt.Errorf("%w: %q has no category", ErrInvalidKind, s)
	}
	k := Kind{Category: Category(s[:idx]), Name: s[idx+1:]}
	if !k.IsValid() {
		return Kind{}, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// MustParseKind is like ParseKind but panics on error.
func MustParseKind(s string) Kind {
	k, err := ParseKind(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Known returns every declared kind, sorted by category then name.
func Known() []Kind {
	return known.list()
}

// IsKnown returns true if k was declared with Category.Kind or Custom.
func IsKnown(k Kind) bool {
	return known.has(k)
}

// registry records declared kinds for listing and validation.
type registry struct {
	mu    sync.RWMutex
	kinds map[Kind]struct{}
}

var known = &registry{kinds: make(map[Kind]struct{})}

func (r *registry) add(k Kind) {
	r.mu.Lock()
	r.kinds[k] = struct{}{}
	r.mu.Unlock()
}

func (r *registry) has(k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[k]
	return ok
}

func (r *registry) list() []Kind {
	r.mu.RLock()
	out := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}
