package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jask/kgview/internal/weighing"
)

// Range is a pair of optional bounds. It serializes as [start, end] with
// null for an undefined bound.
type Range struct {
	Start *int64
	End   *int64
}

// Between returns a range with both bounds set.
func Between(start, end int64) Range {
	return Range{Start: &start, End: &end}
}

// Shift moves both defined bounds by delta.
func (r Range) Shift(delta int64) Range {
	var out Range
	if r.Start != nil {
		v := *r.Start + delta
		out.Start = &v
	}
	if r.End != nil {
		v := *r.End + delta
		out.End = &v
	}
	return out
}

// Equal compares bounds by value.
func (r Range) Equal(o Range) bool {
	return boundEqual(r.Start, o.Start) && boundEqual(r.End, o.End)
}

func boundEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int64{r.Start, r.End})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Range{}
		return nil
	}
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode range: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("decode range: want 2 bounds, got %d", len(raw))
	}
	*r = Range{Start: toBound(raw[0]), End: toBound(raw[1])}
	return nil
}

func toBound(f *float64) *int64 {
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

// ExtraFilter is an ad-hoc membership filter on an arbitrary field,
// serialized as [field, [values...]].
type ExtraFilter struct {
	Field  string
	Values Set
}

func (e ExtraFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Field, e.Values})
}

func (e *ExtraFilter) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode extra filter: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("decode extra filter: want [field, values], got %d items", len(raw))
	}
	var field string
	if err := json.Unmarshal(raw[0], &field); err != nil {
		return fmt.Errorf("decode extra filter field: %w", err)
	}
	var values Set
	if err := json.Unmarshal(raw[1], &values); err != nil {
		return err
	}
	if values == nil {
		values = Set{}
	}
	*e = ExtraFilter{Field: field, Values: values}
	return nil
}

// Criteria is the filter-relevant part of the control settings.
type Criteria struct {
	Fractions     Set
	Week          Range // datum_ms bounds, aligned to week starts
	Time          Range // ms since midnight
	Weekdays      Set   // "1" is Monday ... "6", "0" is Sunday
	Districts     Set
	Neighborhoods Set
	Extra         []ExtraFilter
}

// Build assembles the active predicates for c. With nothing active it
// returns NoConstraint so callers can skip filtering altogether.
func Build(c Criteria) Filter {
	var preds []Predicate
	add := func(p Predicate, ok bool) {
		if ok {
			preds = append(preds, p)
		}
	}
	add(Member(weighing.FieldFraction, c.Fractions))
	add(Interval(weighing.FieldDateMs, c.Week))
	add(Interval(weighing.FieldTimeMs, c.Time))
	add(Member(weighing.FieldWeekday, c.Weekdays))
	add(Member(weighing.FieldDistrict, c.Districts))
	add(Member(weighing.FieldNeighborhood, c.Neighborhoods))
	for _, e := range c.Extra {
		add(Member(e.Field, e.Values))
	}
	if len(preds) == 0 {
		return NoConstraint()
	}
	return Where(All(preds...))
}
