package mediator

import (
	"context"
	"time"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/persist"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// The view interfaces are render-only: implementations redraw and never
// dispatch events from inside these calls.

// ControlsView renders the control panel.
type ControlsView interface {
	RenderControls(state.ControlSnapshot)
	SetAreas(districts, neighborhoods []weighing.Area)
	SetText(string)
}

// ListView renders the weighing table. Filtering the table makes it report
// the set of rows passing the filter through ActiveSetChanged.
type ListView interface {
	SetData([]weighing.Record)
	SetFilter(filter.Filter)
}

// MapRender is what the map needs to draw markers.
type MapRender struct {
	ColorScheme string
	MarkerMode  state.MarkerMode
	Plotted     filter.Set
	Redraw      bool
	RenderCount int
}

// MapView renders the geospatial view.
type MapView interface {
	SetWeighings([]weighing.Record)
	SetContainers([]weighing.Container)
	SetAreas(weighing.Areas)
	SetHighlight(*weighing.Record) // nil clears
	Render(MapRender)
	SetViewport(state.Viewport)
}

// Page shows or hides a data view.
type Page interface {
	SetVisible(view state.View, visible bool)
}

// Exporter writes the active rows somewhere.
type Exporter interface {
	Export(ctx context.Context, records []weighing.Record) error
}

// Resyncer refetches a source in the background. Requesting a key whose
// fetch is in flight is harmless.
type Resyncer interface {
	Request(key string) error
}

// Loop runs handlers and timers on the single state goroutine.
type Loop interface {
	Post(func())
	AfterFunc(d time.Duration, f func()) persist.Timer
}
