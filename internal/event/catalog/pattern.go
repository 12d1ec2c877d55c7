package catalog

import (
	"fmt"
	"strings"
)

// Wildcard matches any category or any name in a Pattern.
const Wildcard = "*"

// Pattern selects known kinds by category and name. Either part may be
// Wildcard: "gameplay.*", "*.tick". A lone "*" selects every kind.
//
// Patterns are only used to enumerate kinds ahead of time; subscriptions
// always name exact kinds.
type Pattern struct {
	category string
	name     string
}

// ParsePattern parses a pattern in "category.name" form.
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == Wildcard {
		return Pattern{category: Wildcard, name: Wildcard}, nil
	}
	cat, name, ok := strings.Cut(s, Separator)
	if !ok || !validPatternPart(cat) || !validPatternPart(name) {
		return Pattern{}, fmt.Errorf("%w: pattern %q", ErrInvalidKind, s)
	}
	return Pattern{category: cat, name: name}, nil
}

func validPatternPart(s string) bool {
	return s == Wildcard || (validPart(s) && !strings.Contains(s, Wildcard))
}

// IsExact returns true if the pattern has no wildcard.
func (p Pattern) IsExact() bool {
	return p.category != Wildcard && p.name != Wildcard
}

// Matches returns true if k is selected by the pattern.
func (p Pattern) Matches(k Kind) bool {
	if p.category == "" {
		return false
	}
	if p.category != Wildcard && p.category != string(k.Category) {
		return false
	}
	return p.name == Wildcard || p.name == k.Name
}

// Rank orders patterns by specificity, lowest first: an exact kind, then
// "category.*", then "*.name", then "*".
func (p Pattern) Rank() int {
	switch {
	case p.IsExact():
		return 0
	case p.category != Wildcard:
		return 1
	case p.name != Wildcard:
		return 2
	default:
		return 3
	}
}

// String returns the pattern in "category.name" form.
func (p Pattern) String() string {
	if p.category == Wildcard && p.name == Wildcard {
		return Wildcard
	}
	return p.category + Separator + p.name
}

// Select returns the known kinds matching pattern, sorted. An exact pattern
// yields its kind even if it has not been declared.
func Select(pattern string) ([]Kind, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	if p.IsExact() {
		return []Kind{{Category: Category(p.category), Name: p.name}}, nil
	}
	var out []Kind
	for _, k := range Known() {
		if p.Matches(k) {
			out = append(out, k)
		}
	}
	return out, nil
}
