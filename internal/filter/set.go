package filter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jask/kgview/internal/weighing"
)

// Set is a set of canonical field values (or row ids). It serializes as a
// sorted JSON array.
type Set map[string]struct{}

// NewSet returns a set holding values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s Set) Add(v string)    { s[v] = struct{}{} }
func (s Set) Delete(v string) { delete(s, v) }

// Values returns the members in sorted order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy; a nil set clones to an empty set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if !o.Has(v) {
			return false
		}
	}
	return true
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON accepts an array of strings or numbers.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode set: %w", err)
	}
	out := make(Set, len(raw))
	for _, v := range raw {
		if c, ok := weighing.Canonical(v); ok {
			out[c] = struct{}{}
		}
	}
	*s = out
	return nil
}
