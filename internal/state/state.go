// Package state holds the per-view state records: the control panel's filter
// and display settings, the list's sort order and row sets, and the map's
// color scheme, marker mode and viewport.
//
// Every method that changes a persisted field calls the entity's change hook,
// which the persist package uses to schedule a debounced snapshot write. Snapshots carry only
// what is meaningful across sessions; row id sets are rebuilt after every
// data refresh and are never persisted.
package state

import (
	"context"

	"github.com/jask/kgview/internal/persist"
)

// View names one of the two data views that can be shown or hidden.
type View string

const (
	ViewList View = "list"
	ViewMap  View = "map"
)

// Complement returns the other data view.
func (v View) Complement() View {
	if v == ViewList {
		return ViewMap
	}
	return ViewList
}

// MarkerMode selects which rows the map plots.
type MarkerMode string

const (
	MarkersActive  MarkerMode = "active"  // every row passing the filter
	MarkersVisible MarkerMode = "visible" // only rows scrolled into view in the list
)

// Color schemes name the record field that drives marker color.
const (
	SchemeFraction = "fractie"
	SchemeHour     = "uur"
	SchemeWeek     = "week_mod5"
)

// Schemes lists the color schemes in cycling order.
var Schemes = []string{SchemeFraction, SchemeHour, SchemeWeek}

// Persisted snapshot keys, relative to the view instance identifier.
const (
	KeyControls = "controls"
	KeyList     = "list"
	KeyMap      = "map"
)

// Key joins an instance identifier and an entity key.
func Key(instance, entity string) string {
	return instance + "/" + entity
}

type hook struct {
	fn func()
}

func (h *hook) changed() {
	if h.fn != nil {
		h.fn()
	}
}

// RestoreControls rebuilds the control state from p's last snapshot and
// keeps it persisted through p. A restore error is informational: the state
// falls back to defaults.
func RestoreControls(ctx context.Context, p *persist.Persister) (*ControlState, error) {
	snap, err := persist.Restore(ctx, p.Backend(), p.Key(), DefaultControls())
	s := NewControlState(snap)
	s.OnChange(p.MarkDirty)
	p.Attach(func() any { return s.Snapshot() })
	return s, err
}

// RestoreList rebuilds the list state from p's last snapshot.
func RestoreList(ctx context.Context, p *persist.Persister) (*ListState, error) {
	snap, err := persist.Restore(ctx, p.Backend(), p.Key(), ListSnapshot{})
	s := NewListState(snap)
	s.OnChange(p.MarkDirty)
	p.Attach(func() any { return s.Snapshot() })
	return s, err
}

// RestoreMap rebuilds the map state from p's last snapshot; the stored
// viewport is merged field by field over defaults.Viewport.
func RestoreMap(ctx context.Context, p *persist.Persister, defaults MapSnapshot) (*MapState, error) {
	snap, err := persist.Restore(ctx, p.Backend(), p.Key(), defaults)
	s := NewMapState(snap)
	s.OnChange(p.MarkDirty)
	p.Attach(func() any { return s.Snapshot() })
	return s, err
}
