// Package weighing holds the rows the feed delivers: weighing events, the
// containers they are matched against and the area definitions used for
// district/neighborhood filtering.
package weighing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names as they appear on the wire. Derived fields are computed once at
// ingestion and are addressable under the same names as raw fields.
const (
	FieldID         = "id"
	FieldHourOfDay  = "uur"
	FieldWeekBucket = "week_mod5"

	FieldSystemID     = "systeem_id"
	FieldSequenceNo   = "volgnummer"
	FieldPlate        = "kenteken"
	FieldDateStr      = "datum_str"
	FieldDateMs       = "datum_ms"
	FieldTimeStr      = "tijd_str"
	FieldTimeMs       = "tijd_ms"
	FieldWeekday      = "weekdag_ma1"
	FieldFraction     = "fractie"
	FieldNetWeight    = "netto_gewicht"
	FieldLon          = "lon"
	FieldLat          = "lat"
	FieldAddress      = "adres"
	FieldQuarter      = "buurt"
	FieldNeighborhood = "wijk"
	FieldDistrict     = "stadsdeel"
)

const (
	hourMs       = 3_600_000
	weekMs       = 604_800_000
	weekOffsetMs = 345_600_000 // aligns bucket boundaries to a fixed weekday
	weekSlots    = 5
)

// Record is a single weighing event. It is immutable after creation; views
// correlate rows through ID.
type Record struct {
	ID         string
	HourOfDay  int64
	WeekBucket int64

	fields map[string]any
}

// New builds a record from raw feed fields and computes the derived fields.
// The map is owned by the record afterwards.
func New(fields map[string]any) Record {
	if fields == nil {
		fields = map[string]any{}
	}
	r := Record{fields: fields}
	sys, _ := r.Text(FieldSystemID)
	seq, _ := r.Text(FieldSequenceNo)
	r.ID = sys + ":" + seq
	if t, ok := r.Number(FieldTimeMs); ok {
		r.HourOfDay = int64(math.Floor(t / hourMs))
	}
	if d, ok := r.Number(FieldDateMs); ok {
		r.WeekBucket = WeekBucket(d)
	}
	return r
}

// WeekBucket returns the rolling 5-slot week index of a date in ms since epoch.
func WeekBucket(dateMs float64) int64 {
	w := int64(math.Floor((dateMs + weekOffsetMs) / weekMs))
	return ((w % weekSlots) + weekSlots) % weekSlots
}

// UnmarshalJSON decodes a raw feed row. Numbers are kept as json.Number so
// identifiers keep their exact textual form.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("decode weighing: %w", err)
	}
	*r = New(fields)
	return nil
}

// MarshalJSON encodes raw and derived fields together.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+3)
	for k, v := range r.fields {
		out[k] = v
	}
	out[FieldID] = r.ID
	out[FieldHourOfDay] = r.HourOfDay
	out[FieldWeekBucket] = r.WeekBucket
	return json.Marshal(out)
}

// Field returns the value of a raw or derived field. Absent and null fields
// report false.
func (r Record) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return r.ID, true
	case FieldHourOfDay:
		return r.HourOfDay, true
	case FieldWeekBucket:
		return r.WeekBucket, true
	}
	v, ok := r.fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Text returns the canonical string form of a field, used for membership,
// equality and substring tests.
func (r Record) Text(name string) (string, bool) {
	v, ok := r.Field(name)
	if !ok {
		return "", false
	}
	return Canonical(v)
}

// Number returns a numeric field as float64.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r.Field(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// Format renders a field for tabular output. Lists are joined by ", ".
func (r Record) Format(name string) string {
	v, ok := r.Field(name)
	if !ok {
		return ""
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := Canonical(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	s, _ := Canonical(v)
	return s
}

// Position returns the record's coordinates.
func (r Record) Position() (lon, lat float64, ok bool) {
	lon, okLon := r.Number(FieldLon)
	lat, okLat := r.Number(FieldLat)
	return lon, lat, okLon && okLat
}

func (r Record) Fraction() string     { return r.text(FieldFraction) }
func (r Record) Address() string      { return r.text(FieldAddress) }
func (r Record) Neighborhood() string { return r.text(FieldNeighborhood) }
func (r Record) District() string     { return r.text(FieldDistrict) }
func (r Record) Plate() string        { return r.text(FieldPlate) }
func (r Record) DateStr() string      { return r.text(FieldDateStr) }

func (r Record) text(name string) string {
	s, _ := r.Text(name)
	return s
}

// Canonical converts a decoded JSON value to the string used for
// comparisons. Integral numbers print without exponent or fraction so that
// "1" and 1 compare equal.
func Canonical(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		f, err := x.Float64()
		if err != nil {
			return x.String(), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return fmt.Sprint(v), true
}
