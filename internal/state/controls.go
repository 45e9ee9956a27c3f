package state

import (
	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/weighing"
)

// ControlSnapshot is the persisted form of the control panel settings.
type ControlSnapshot struct {
	Fractions     filter.Set           `json:"fractions"`
	Week          filter.Range         `json:"week"`
	Time          filter.Range         `json:"time"`
	Weekdays      filter.Set           `json:"weekdays"`
	Districts     filter.Set           `json:"districts"`
	Neighborhoods filter.Set           `json:"neighborhoods"`
	Extra         []filter.ExtraFilter `json:"extrafilters"`
	Views         filter.Set           `json:"views"`
	MarkerMode    MarkerMode           `json:"markerMode"`
	ColorScheme   string               `json:"colorScheme"`
}

// DefaultControls returns the settings of a fresh session: no filters, the
// whole day, both views visible.
func DefaultControls() ControlSnapshot {
	return ControlSnapshot{
		Fractions:     filter.Set{},
		Week:          filter.Range{},
		Time:          filter.Between(0, 0),
		Weekdays:      filter.Set{},
		Districts:     filter.Set{},
		Neighborhoods: filter.Set{},
		Extra:         []filter.ExtraFilter{},
		Views:         filter.NewSet(string(ViewList), string(ViewMap)),
		MarkerMode:    MarkersActive,
		ColorScheme:   SchemeFraction,
	}
}

func (s ControlSnapshot) clone() ControlSnapshot {
	out := s
	out.Fractions = s.Fractions.Clone()
	out.Weekdays = s.Weekdays.Clone()
	out.Districts = s.Districts.Clone()
	out.Neighborhoods = s.Neighborhoods.Clone()
	out.Views = s.Views.Clone()
	out.Extra = cloneExtra(s.Extra)
	return out
}

func cloneExtra(in []filter.ExtraFilter) []filter.ExtraFilter {
	out := make([]filter.ExtraFilter, len(in))
	for i, e := range in {
		out[i] = filter.ExtraFilter{Field: e.Field, Values: e.Values.Clone()}
	}
	return out
}

// Criteria projects the filter-relevant settings.
func (s ControlSnapshot) Criteria() filter.Criteria {
	return filter.Criteria{
		Fractions:     s.Fractions,
		Week:          s.Week,
		Time:          s.Time,
		Weekdays:      s.Weekdays,
		Districts:     s.Districts,
		Neighborhoods: s.Neighborhoods,
		Extra:         s.Extra,
	}
}

// ControlUpdate is a partial change to the control settings. Nil sets, a nil
// Extra slice, nil ranges and empty strings leave the setting untouched; a
// non-nil empty set clears it.
type ControlUpdate struct {
	Fractions     filter.Set
	Week          *filter.Range
	Time          *filter.Range
	Weekdays      filter.Set
	Districts     filter.Set
	Neighborhoods filter.Set
	Extra         []filter.ExtraFilter
	Views         filter.Set
	MarkerMode    MarkerMode
	ColorScheme   string
}

// ControlState is the live control panel state.
type ControlState struct {
	hook
	s ControlSnapshot
}

// NewControlState starts from snap, filling any missing set with an empty one
// and restoring both views if none is visible.
func NewControlState(snap ControlSnapshot) *ControlState {
	snap = snap.clone()
	if len(snap.Views) == 0 {
		snap.Views = DefaultControls().Views
	}
	if snap.MarkerMode == "" {
		snap.MarkerMode = MarkersActive
	}
	if snap.ColorScheme == "" {
		snap.ColorScheme = SchemeFraction
	}
	return &ControlState{s: snap}
}

// OnChange registers the hook called after every mutation.
func (c *ControlState) OnChange(fn func()) { c.fn = fn }

// Snapshot returns an independent copy of the current settings.
func (c *ControlState) Snapshot() ControlSnapshot { return c.s.clone() }

// Filter assembles the row filter for the current settings.
func (c *ControlState) Filter() filter.Filter {
	return filter.Build(c.s.clone().Criteria())
}

func (c *ControlState) Views() filter.Set       { return c.s.Views.Clone() }
func (c *ControlState) MarkerMode() MarkerMode  { return c.s.MarkerMode }
func (c *ControlState) ColorScheme() string     { return c.s.ColorScheme }
func (c *ControlState) ViewVisible(v View) bool { return c.s.Views.Has(string(v)) }
func (c *ControlState) Extra() []filter.ExtraFilter {
	return cloneExtra(c.s.Extra)
}

// Apply merges u into the settings.
func (c *ControlState) Apply(u ControlUpdate) {
	if u.Fractions != nil {
		c.s.Fractions = u.Fractions.Clone()
	}
	if u.Week != nil {
		c.s.Week = *u.Week
	}
	if u.Time != nil {
		c.s.Time = *u.Time
	}
	if u.Weekdays != nil {
		c.s.Weekdays = u.Weekdays.Clone()
	}
	if u.Districts != nil {
		c.s.Districts = u.Districts.Clone()
	}
	if u.Neighborhoods != nil {
		c.s.Neighborhoods = u.Neighborhoods.Clone()
	}
	if u.Extra != nil {
		c.s.Extra = cloneExtra(u.Extra)
	}
	if u.Views != nil {
		views := u.Views.Clone()
		if len(views) == 0 {
			// Hiding everything brings back whatever was hidden before.
			for _, v := range []View{ViewList, ViewMap} {
				if !c.s.Views.Has(string(v)) {
					views.Add(string(v))
				}
			}
		}
		if len(views) == 0 {
			views = DefaultControls().Views
		}
		c.s.Views = views
	}
	if u.MarkerMode != "" {
		c.s.MarkerMode = u.MarkerMode
	}
	if u.ColorScheme != "" {
		c.s.ColorScheme = u.ColorScheme
	}
	c.changed()
}

// SetVisibleViews replaces the view set after the user toggled one view. An
// empty result is corrected by showing the complement of toggled; it
// reports whether that correction happened.
func (c *ControlState) SetVisibleViews(views filter.Set, toggled View) bool {
	views = views.Clone()
	corrected := false
	if len(views) == 0 {
		views.Add(string(toggled.Complement()))
		corrected = true
	}
	c.s.Views = views
	c.changed()
	return corrected
}

// ToggleView flips one view's visibility, keeping at least one visible.
func (c *ControlState) ToggleView(v View) bool {
	views := c.s.Views.Clone()
	if views.Has(string(v)) {
		views.Delete(string(v))
	} else {
		views.Add(string(v))
	}
	return c.SetVisibleViews(views, v)
}

func (c *ControlState) SetMarkerMode(m MarkerMode) {
	c.s.MarkerMode = m
	c.changed()
}

func (c *ControlState) SetColorScheme(scheme string) {
	c.s.ColorScheme = scheme
	c.changed()
}

// ToggleNeighborhood selects a neighborhood clicked on the map. Without the
// modifier it replaces the neighborhood and district selection; with it the
// neighborhood is toggled and its district added. Removing the last
// neighborhood clears the districts.
func (c *ControlState) ToggleNeighborhood(name, district string, modifier bool) {
	if !modifier {
		c.s.Neighborhoods = filter.NewSet(name)
		c.s.Districts = filter.Set{}
		if district != "" {
			c.s.Districts.Add(district)
		}
		c.changed()
		return
	}
	if c.s.Neighborhoods.Has(name) {
		c.s.Neighborhoods.Delete(name)
		if len(c.s.Neighborhoods) == 0 {
			c.s.Districts = filter.Set{}
		}
	} else {
		c.s.Neighborhoods.Add(name)
		if district != "" {
			c.s.Districts.Add(district)
		}
	}
	c.changed()
}

// ToggleAddress selects a container address through the ad-hoc adres filter.
// With the modifier the address is toggled inside the existing entry, which
// is dropped when it empties; otherwise the entry holds just this address.
func (c *ControlState) ToggleAddress(address string, modifier bool) {
	idx := -1
	for i, e := range c.s.Extra {
		if e.Field == weighing.FieldAddress {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		c.s.Extra = append(c.s.Extra, filter.ExtraFilter{Field: weighing.FieldAddress, Values: filter.NewSet(address)})
	case !modifier:
		c.s.Extra[idx].Values = filter.NewSet(address)
	case c.s.Extra[idx].Values.Has(address):
		c.s.Extra[idx].Values.Delete(address)
		if len(c.s.Extra[idx].Values) == 0 {
			c.s.Extra = append(c.s.Extra[:idx], c.s.Extra[idx+1:]...)
		}
	default:
		c.s.Extra[idx].Values.Add(address)
	}
	c.changed()
}

// SelectRoute narrows the rows to one collection route: a date and a truck.
func (c *ControlState) SelectRoute(dateStr, plate string) {
	c.s.Extra = []filter.ExtraFilter{
		{Field: weighing.FieldDateStr, Values: filter.NewSet(dateStr)},
		{Field: weighing.FieldPlate, Values: filter.NewSet(plate)},
	}
	c.changed()
}

// AddExtraFilter adds value to the ad-hoc filter on field, creating it when
// absent.
func (c *ControlState) AddExtraFilter(field, value string) {
	for i, e := range c.s.Extra {
		if e.Field == field {
			c.s.Extra[i].Values.Add(value)
			c.changed()
			return
		}
	}
	c.s.Extra = append(c.s.Extra, filter.ExtraFilter{Field: field, Values: filter.NewSet(value)})
	c.changed()
}

// RemoveExtraFilter drops the i-th ad-hoc filter. It reports false when i is
// out of range.
func (c *ControlState) RemoveExtraFilter(i int) bool {
	if i < 0 || i >= len(c.s.Extra) {
		return false
	}
	c.s.Extra = append(c.s.Extra[:i], c.s.Extra[i+1:]...)
	c.changed()
	return true
}
