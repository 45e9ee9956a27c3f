package mediator

import (
	"github.com/jask/kgview/internal/feed"
	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// Event is anything a view or feed can dispatch.
type Event interface {
	event()
}

// DisplayOptionChanged is emitted by the controls when view visibility,
// marker mode or color scheme changes. Zero fields are unchanged; Toggled
// names the view the user just flipped when Views is set.
type DisplayOptionChanged struct {
	Views       filter.Set
	Toggled     state.View
	MarkerMode  state.MarkerMode
	ColorScheme string
}

// FilterOptionChanged is emitted by the controls when a filter input changes.
type FilterOptionChanged struct {
	Update state.ControlUpdate
}

// ShortcutApplied is emitted by the controls for a preset button.
type ShortcutApplied struct {
	Name string
}

// ExtraFilterAdded adds a typed ad-hoc filter value.
type ExtraFilterAdded struct {
	Field string
	Value string
}

// ExtraFilterRemoved drops the ad-hoc filter at Index.
type ExtraFilterRemoved struct {
	Index int
}

type ExportRequested struct{}

// Layer identifies the map layer a selection came from.
type Layer string

const (
	LayerAreas      Layer = "areas"
	LayerWeighings  Layer = "weighings"
	LayerContainers Layer = "containers"
)

// ContainerMinZoom is the zoom level from which containers can be picked.
const ContainerMinZoom = 15

// RowSelected is emitted by the map on a click. Object is a weighing.Area,
// weighing.Record or weighing.Container depending on Layer.
type RowSelected struct {
	Object       any
	ModifierHeld bool
	Layer        Layer
	Zoom         float64
}

// ActiveSetChanged is emitted by the list after filtering.
type ActiveSetChanged struct {
	IDs filter.Set
}

// VisibleSetChanged is emitted by the list when its scroll window moves.
type VisibleSetChanged struct {
	IDs filter.Set
}

type SortChanged struct {
	Keys []state.SortKey
}

// ViewportChanged is emitted by the map after a pan or zoom.
type ViewportChanged struct {
	Viewport state.Viewport
}

// RowPointerEntered is emitted by the list when the pointer (or cursor)
// enters a row.
type RowPointerEntered struct {
	Record weighing.Record
}

type RowPointerLeft struct{}

// DataChanged carries a feed notification.
type DataChanged struct {
	Notification feed.Notification
}

func (DisplayOptionChanged) event() {}
func (FilterOptionChanged) event()  {}
func (ShortcutApplied) event()      {}
func (ExtraFilterAdded) event()     {}
func (ExtraFilterRemoved) event()   {}
func (ExportRequested) event()      {}
func (RowSelected) event()          {}
func (ActiveSetChanged) event()     {}
func (VisibleSetChanged) event()    {}
func (SortChanged) event()          {}
func (ViewportChanged) event()      {}
func (RowPointerEntered) event()    {}
func (RowPointerLeft) event()       {}
func (DataChanged) event()          {}
