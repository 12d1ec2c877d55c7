package event

import "github.com/dshills/gamebus/internal/entity"

// Common filter predicates for WithFilter.

// FilterByOriginator allows payloads published by one of ids.
func FilterByOriginator(ids ...entity.ID) FilterFunc {
	set := make(map[entity.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(p Payload) bool {
		_, ok := set[p.Originator()]
		return ok
	}
}

// FilterExcludeOriginator drops payloads published by id.
func FilterExcludeOriginator(id entity.ID) FilterFunc {
	return func(p Payload) bool {
		return p.Originator() != id
	}
}

// FilterMinParams allows payloads carrying at least n parameters.
func FilterMinParams(n int) FilterFunc {
	return func(p Payload) bool {
		return p.Len() >= n
	}
}

// FilterParam allows payloads whose parameter i satisfies pred.
// Missing parameters are rejected.
func FilterParam(i int, pred func(v any) bool) FilterFunc {
	return func(p Payload) bool {
		v, ok := p.Param(i)
		return ok && pred(v)
	}
}

// AndFilter combines filters with AND logic. An empty list allows everything.
func AndFilter(filters ...FilterFunc) FilterFunc {
	return func(p Payload) bool {
		for _, f := range filters {
			if f != nil && !f(p) {
				return false
			}
		}
		return true
	}
}

// OrFilter combines filters with OR logic. An empty list rejects everything.
func OrFilter(filters ...FilterFunc) FilterFunc {
	return func(p Payload) bool {
		for _, f := range filters {
			if f != nil && f(p) {
				return true
			}
		}
		return false
	}
}

// NotFilter inverts a filter.
func NotFilter(f FilterFunc) FilterFunc {
	return func(p Payload) bool {
		return !f(p)
	}
}
