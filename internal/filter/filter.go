// Package filter turns control settings into a single row predicate.
//
// Every builder is pure and reports whether it is active; inactive builders
// contribute nothing. Build assembles the active ones for a Criteria and
// returns a Filter, which is either "no constraint" or a conjunction.
package filter

import (
	"strings"

	"github.com/jask/kgview/internal/weighing"
)

// Predicate tests one record.
type Predicate func(weighing.Record) bool

// Filter is the assembled row filter. The zero value is "no constraint" and
// passes every row; it is distinct from a predicate that rejects everything.
type Filter struct {
	pred Predicate
}

// NoConstraint returns the filter that passes every row.
func NoConstraint() Filter { return Filter{} }

// Where wraps a predicate. A nil predicate yields NoConstraint.
func Where(p Predicate) Filter { return Filter{pred: p} }

// Unconstrained reports whether the filter passes every row without testing.
func (f Filter) Unconstrained() bool { return f.pred == nil }

// Predicate returns the underlying predicate, if any.
func (f Filter) Predicate() (Predicate, bool) { return f.pred, f.pred != nil }

// Match tests a record.
func (f Filter) Match(r weighing.Record) bool {
	return f.pred == nil || f.pred(r)
}

// Member is active iff set is non-empty and matches records whose field value
// is in set.
func Member(key string, set Set) (Predicate, bool) {
	if len(set) == 0 {
		return nil, false
	}
	return func(r weighing.Record) bool {
		v, ok := r.Text(key)
		return ok && set.Has(v)
	}, true
}

// Equal is active iff value is defined and matches records whose field equals
// it.
func Equal(key string, value any) (Predicate, bool) {
	want, ok := weighing.Canonical(value)
	if !ok {
		return nil, false
	}
	return func(r weighing.Record) bool {
		v, ok := r.Text(key)
		return ok && v == want
	}, true
}

// Interval tests a numeric field against a Range. Open-ended ranges test one
// side; a range with start > end wraps around (22:00-06:00); start == end is
// inactive.
func Interval(key string, rng Range) (Predicate, bool) {
	switch {
	case rng.Start == nil && rng.End == nil:
		return nil, false
	case rng.Start == nil:
		end := float64(*rng.End)
		return numeric(key, func(v float64) bool { return v < end }), true
	case rng.End == nil:
		start := float64(*rng.Start)
		return numeric(key, func(v float64) bool { return v >= start }), true
	}
	start, end := float64(*rng.Start), float64(*rng.End)
	switch {
	case start == end:
		return nil, false
	case start < end:
		return numeric(key, func(v float64) bool { return start <= v && v < end }), true
	default:
		return numeric(key, func(v float64) bool { return v >= start || v < end }), true
	}
}

func numeric(key string, test func(float64) bool) Predicate {
	return func(r weighing.Record) bool {
		v, ok := r.Number(key)
		return ok && test(v)
	}
}

// Substring is active iff token is non-empty and matches records whose field
// contains it, ignoring case.
func Substring(key, token string) (Predicate, bool) {
	if token == "" {
		return nil, false
	}
	needle := strings.ToLower(token)
	return func(r weighing.Record) bool {
		v, ok := r.Text(key)
		return ok && strings.Contains(strings.ToLower(v), needle)
	}, true
}

// All is the conjunction of preds, evaluated left to right and stopping at
// the first failure.
func All(preds ...Predicate) Predicate {
	return func(r weighing.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Apply returns the records passing f, in order.
func Apply(f Filter, records []weighing.Record) []weighing.Record {
	if f.Unconstrained() {
		out := make([]weighing.Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]weighing.Record, 0, len(records))
	for _, r := range records {
		if f.pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// IDs returns the ids of the records passing f.
func IDs(f Filter, records []weighing.Record) Set {
	out := make(Set, len(records))
	for _, r := range records {
		if f.Match(r) {
			out.Add(r.ID)
		}
	}
	return out
}
