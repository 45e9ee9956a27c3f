package state

import "github.com/jask/kgview/internal/filter"

// Viewport is the map camera.
type Viewport struct {
	Lon     float64 `json:"longitude"`
	Lat     float64 `json:"latitude"`
	Zoom    float64 `json:"zoom"`
	MinZoom float64 `json:"minZoom"`
	MaxZoom float64 `json:"maxZoom"`
}

// MapSnapshot is the persisted part of the map state.
type MapSnapshot struct {
	ColorScheme string     `json:"colorScheme"`
	MarkerMode  MarkerMode `json:"markerMode"`
	Viewport    Viewport   `json:"viewport"`
}

// DefaultMap centers on Amsterdam.
func DefaultMap() MapSnapshot {
	return MapSnapshot{
		ColorScheme: SchemeFraction,
		MarkerMode:  MarkersActive,
		Viewport:    Viewport{Lon: 4.9, Lat: 52.37, Zoom: 12, MinZoom: 10, MaxZoom: 20},
	}
}

// MapUpdate carries render inputs; zero fields are absent.
type MapUpdate struct {
	ColorScheme string
	MarkerMode  MarkerMode
	Active      filter.Set
	Visible     filter.Set
	Viewport    *Viewport
}

// MapState is the map view's state.
type MapState struct {
	hook
	snap        MapSnapshot
	active      filter.Set
	visible     filter.Set
	renderCount int
}

func NewMapState(snap MapSnapshot) *MapState {
	if snap.ColorScheme == "" {
		snap.ColorScheme = SchemeFraction
	}
	if snap.MarkerMode == "" {
		snap.MarkerMode = MarkersActive
	}
	return &MapState{snap: snap, active: filter.Set{}, visible: filter.Set{}}
}

func (m *MapState) OnChange(fn func()) { m.fn = fn }

func (m *MapState) Snapshot() MapSnapshot  { return m.snap }
func (m *MapState) ColorScheme() string    { return m.snap.ColorScheme }
func (m *MapState) MarkerMode() MarkerMode { return m.snap.MarkerMode }
func (m *MapState) Viewport() Viewport     { return m.snap.Viewport }
func (m *MapState) Active() filter.Set     { return m.active.Clone() }
func (m *MapState) Visible() filter.Set    { return m.visible.Clone() }
func (m *MapState) RenderCount() int       { return m.renderCount }

// Render applies u and reports whether the markers must be redrawn: the color
// scheme or marker mode changed, or the set the current mode plots was
// replaced. A viewport update keeps the existing zoom bounds.
func (m *MapState) Render(u MapUpdate) bool {
	redraw := false
	dirty := false
	if u.ColorScheme != "" && u.ColorScheme != m.snap.ColorScheme {
		m.snap.ColorScheme = u.ColorScheme
		redraw, dirty = true, true
	}
	if u.MarkerMode != "" && u.MarkerMode != m.snap.MarkerMode {
		m.snap.MarkerMode = u.MarkerMode
		redraw, dirty = true, true
	}
	if u.Viewport != nil {
		v := *u.Viewport
		v.MinZoom, v.MaxZoom = m.snap.Viewport.MinZoom, m.snap.Viewport.MaxZoom
		if v != m.snap.Viewport {
			m.snap.Viewport = v
			dirty = true
		}
	}
	if u.Active != nil {
		m.active = u.Active.Clone()
		redraw = redraw || m.snap.MarkerMode == MarkersActive
	}
	if u.Visible != nil {
		m.visible = u.Visible.Clone()
		redraw = redraw || m.snap.MarkerMode == MarkersVisible
	}
	if redraw {
		m.renderCount++
	}
	if dirty {
		m.changed()
	}
	return redraw
}

// PlottedIDs returns the ids the current marker mode plots.
func (m *MapState) PlottedIDs() filter.Set {
	if m.snap.MarkerMode == MarkersVisible {
		return m.visible.Clone()
	}
	return m.active.Clone()
}

// ResetRows clears the transient row sets.
func (m *MapState) ResetRows() {
	m.active = filter.Set{}
	m.visible = filter.Set{}
}
