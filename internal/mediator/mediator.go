// Package mediator routes events between the feed, the view state holders
// and the views. Every handler runs on the state loop, so state is only
// ever touched from one goroutine.
package mediator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/kgview/internal/feed"
	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/persist"
	"github.com/jask/kgview/internal/reconcile"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// DefaultHighlightDelay is how long a highlight survives the pointer
// leaving its row.
const DefaultHighlightDelay = 50 * time.Millisecond

// States groups the state holders the mediator owns.
type States struct {
	Data     *reconcile.Reconciler
	Controls *state.ControlState
	List     *state.ListState
	Map      *state.MapState
}

// Views groups the view components.
type Views struct {
	Controls ControlsView
	List     ListView
	Map      MapView
	Page     Page
}

// Options configures a Mediator.
type Options struct {
	HighlightDelay time.Duration
	Exporter       Exporter
	Resyncer       Resyncer
	Logger         *zap.Logger
	Now            func() time.Time
}

// Mediator coordinates the components.
type Mediator struct {
	data     *reconcile.Reconciler
	controls *state.ControlState
	list     *state.ListState
	geo      *state.MapState

	controlsView ControlsView
	listView     ListView
	mapView      MapView
	page         Page

	loop           Loop
	exporter       Exporter
	resync         Resyncer
	highlightDelay time.Duration
	clear          persist.Timer
	log            *zap.Logger
	now            func() time.Time
}

func New(s States, v Views, loop Loop, opts Options) *Mediator {
	if opts.HighlightDelay <= 0 {
		opts.HighlightDelay = DefaultHighlightDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if s.Data == nil {
		s.Data = reconcile.New()
	}
	return &Mediator{
		data:           s.Data,
		controls:       s.Controls,
		list:           s.List,
		geo:            s.Map,
		controlsView:   v.Controls,
		listView:       v.List,
		mapView:        v.Map,
		page:           v.Page,
		loop:           loop,
		exporter:       opts.Exporter,
		resync:         opts.Resyncer,
		highlightDelay: opts.HighlightDelay,
		log:            opts.Logger,
		now:            opts.Now,
	}
}

// Start pushes the restored state to every view once. Call it on the loop.
func (m *Mediator) Start() {
	m.controlsView.RenderControls(m.controls.Snapshot())
	m.controlsView.SetText(counter(0))
	m.mapView.SetViewport(m.geo.Viewport())
	m.pushDisplay()
	m.listView.SetFilter(m.controls.Filter())
}

// Post queues e for dispatch on the loop. Safe from any goroutine.
func (m *Mediator) Post(e Event) {
	m.loop.Post(func() { m.Dispatch(e) })
}

// NotifyData adapts the mediator to a feed.Handler.
func (m *Mediator) NotifyData(n feed.Notification) {
	m.Post(DataChanged{Notification: n})
}

// Dispatch handles one event. It must run on the loop.
func (m *Mediator) Dispatch(e Event) {
	switch e := e.(type) {
	case DisplayOptionChanged:
		m.onDisplayChange(e)
	case FilterOptionChanged:
		m.controls.Apply(e.Update)
		m.controlsView.RenderControls(m.controls.Snapshot())
		if u := e.Update; u.Views != nil || u.MarkerMode != "" || u.ColorScheme != "" {
			m.pushDisplay()
		}
		m.pushFilter()
	case ShortcutApplied:
		if !m.controls.ApplyShortcut(e.Name, m.now()) {
			m.log.Debug("shortcut not applied", zap.String("shortcut", e.Name))
			return
		}
		m.controlsView.RenderControls(m.controls.Snapshot())
		m.pushFilter()
	case ExtraFilterAdded:
		m.controls.AddExtraFilter(e.Field, e.Value)
		m.controlsView.RenderControls(m.controls.Snapshot())
		m.pushFilter()
	case ExtraFilterRemoved:
		if m.controls.RemoveExtraFilter(e.Index) {
			m.controlsView.RenderControls(m.controls.Snapshot())
			m.pushFilter()
		}
	case ExportRequested:
		m.export()
	case RowSelected:
		m.onRowSelected(e)
	case ActiveSetChanged:
		m.list.SetActive(e.IDs)
		m.controlsView.SetText(counter(len(e.IDs)))
		m.renderMap(state.MapUpdate{Active: e.IDs})
	case VisibleSetChanged:
		m.list.SetVisible(e.IDs)
		m.renderMap(state.MapUpdate{Visible: e.IDs})
	case SortChanged:
		m.list.SetSort(e.Keys)
	case ViewportChanged:
		vp := e.Viewport
		m.geo.Render(state.MapUpdate{Viewport: &vp})
	case RowPointerEntered:
		m.cancelClear()
		r := e.Record
		m.mapView.SetHighlight(&r)
	case RowPointerLeft:
		m.cancelClear()
		m.clear = m.loop.AfterFunc(m.highlightDelay, func() {
			m.clear = nil
			m.mapView.SetHighlight(nil)
		})
	case DataChanged:
		m.onDataChange(e.Notification)
	default:
		m.log.Warn("unhandled event", zap.String("type", fmt.Sprintf("%T", e)))
	}
}

func (m *Mediator) onDisplayChange(e DisplayOptionChanged) {
	if e.Views != nil {
		if m.controls.SetVisibleViews(e.Views, e.Toggled) {
			m.log.Debug("last view hidden, showing its complement", zap.String("view", string(e.Toggled.Complement())))
		}
	}
	if e.MarkerMode != "" || e.ColorScheme != "" {
		m.controls.Apply(state.ControlUpdate{MarkerMode: e.MarkerMode, ColorScheme: e.ColorScheme})
	}
	m.controlsView.RenderControls(m.controls.Snapshot())
	m.pushDisplay()
	m.pushFilter()
}

func (m *Mediator) pushDisplay() {
	m.page.SetVisible(state.ViewList, m.controls.ViewVisible(state.ViewList))
	m.page.SetVisible(state.ViewMap, m.controls.ViewVisible(state.ViewMap))
	m.renderMap(state.MapUpdate{
		MarkerMode:  m.controls.MarkerMode(),
		ColorScheme: m.controls.ColorScheme(),
	})
}

func (m *Mediator) pushFilter() {
	m.listView.SetFilter(m.controls.Filter())
}

func (m *Mediator) renderMap(u state.MapUpdate) {
	redraw := m.geo.Render(u)
	m.mapView.Render(MapRender{
		ColorScheme: m.geo.ColorScheme(),
		MarkerMode:  m.geo.MarkerMode(),
		Plotted:     m.geo.PlottedIDs(),
		Redraw:      redraw,
		RenderCount: m.geo.RenderCount(),
	})
}

func (m *Mediator) onRowSelected(e RowSelected) {
	switch e.Layer {
	case LayerAreas:
		area, ok := e.Object.(weighing.Area)
		if !ok {
			m.log.Warn("area selection without area", zap.String("type", fmt.Sprintf("%T", e.Object)))
			return
		}
		m.controls.ToggleNeighborhood(area.Name, area.ContainedIn, e.ModifierHeld)
	case LayerWeighings:
		r, ok := e.Object.(weighing.Record)
		if !ok {
			m.log.Warn("weighing selection without record", zap.String("type", fmt.Sprintf("%T", e.Object)))
			return
		}
		m.controls.SelectRoute(r.DateStr(), r.Plate())
	case LayerContainers:
		if e.Zoom < ContainerMinZoom {
			return
		}
		c, ok := e.Object.(weighing.Container)
		if !ok {
			m.log.Warn("container selection without container", zap.String("type", fmt.Sprintf("%T", e.Object)))
			return
		}
		m.controls.ToggleAddress(c.Address, e.ModifierHeld)
	default:
		return
	}
	m.controlsView.RenderControls(m.controls.Snapshot())
	m.pushFilter()
}

func (m *Mediator) onDataChange(n feed.Notification) {
	log := m.log.With(zap.String("key", n.Key))
	switch n.Key {
	case feed.KeyContainers:
		containers, err := weighing.DecodeContainers(n.Data)
		if err != nil {
			log.Warn("decode containers", zap.Error(err))
			return
		}
		m.mapView.SetContainers(containers)
	case feed.KeyAreas:
		areas, err := weighing.DecodeAreas(n.Data)
		if err != nil {
			log.Warn("decode areas", zap.Error(err))
			return
		}
		m.controlsView.SetAreas(areas.Districts, areas.Neighborhoods)
		m.mapView.SetAreas(areas)
	case feed.KeyWeighings:
		p, err := feed.DecodeWeighings(n.Data)
		if err != nil {
			log.Warn("decode weighings", zap.Error(err))
			return
		}
		m.data.ApplyFull(p.Data, deref(p.LastChange))
		log.Info("full snapshot applied", zap.Int("records", m.data.Len()))
		m.refresh()
	case feed.KeyWeighingsDelta:
		p, err := feed.DecodeWeighings(n.Data)
		if err != nil {
			log.Warn("decode weighings delta", zap.Error(err))
			return
		}
		m.applyDelta(p, log)
	default:
		log.Warn("unknown data source")
	}
}

func (m *Mediator) applyDelta(p feed.WeighingPayload, log *zap.Logger) {
	outcome := m.data.ApplyDelta(p.Data, deref(p.LastChange), deref(p.LastDelta))
	switch outcome {
	case reconcile.Applied:
		log.Debug("delta applied", zap.Int("records", len(p.Data)))
		m.refresh()
	case reconcile.ResyncRequired:
		log.Info("delta gap detected, refetching full snapshot")
		if m.resync == nil {
			return
		}
		if err := m.resync.Request(feed.KeyWeighings); err != nil {
			log.Warn("resync request", zap.Error(err))
		}
	case reconcile.IgnoredBootstrap:
		log.Debug("delta before first snapshot ignored")
	}
}

// refresh pushes a new dataset to the views. Row sets computed for the
// previous dataset are dropped; the list recomputes them under the current
// filter.
func (m *Mediator) refresh() {
	m.list.ResetRows()
	m.geo.ResetRows()
	records := m.data.Records()
	m.listView.SetData(records)
	m.mapView.SetWeighings(records)
	m.renderMap(state.MapUpdate{})
	m.pushFilter()
}

func (m *Mediator) cancelClear() {
	if m.clear != nil {
		m.clear.Stop()
		m.clear = nil
	}
}

func (m *Mediator) export() {
	if m.exporter == nil {
		m.log.Warn("export requested without exporter")
		return
	}
	records := m.ActiveRecords()
	go func() {
		if err := m.exporter.Export(context.Background(), records); err != nil {
			m.log.Warn("export failed", zap.Error(err))
			return
		}
		m.log.Info("exported rows", zap.Int("records", len(records)))
	}()
}

// ActiveRecords returns the rows passing the filter in list sort order.
func (m *Mediator) ActiveRecords() []weighing.Record {
	active := m.list.Active()
	out := make([]weighing.Record, 0, len(active))
	for _, r := range m.data.Records() {
		if active.Has(r.ID) {
			out = append(out, r)
		}
	}
	state.SortRecords(out, m.list.Sort())
	return out
}

// Status summarizes the session for the status surface.
type Status struct {
	LastChange  string   `json:"lastChange,omitempty"`
	Records     int      `json:"records"`
	Active      int      `json:"active"`
	Views       []string `json:"views"`
	MarkerMode  string   `json:"markerMode"`
	ColorScheme string   `json:"colorScheme"`
}

// Status must run on the loop.
func (m *Mediator) Status() Status {
	last, _ := m.data.LastChange()
	return Status{
		LastChange:  last,
		Records:     m.data.Len(),
		Active:      len(m.list.Active()),
		Views:       m.controls.Views().Values(),
		MarkerMode:  string(m.controls.MarkerMode()),
		ColorScheme: m.controls.ColorScheme(),
	}
}

// Filter returns the current row filter. It must run on the loop.
func (m *Mediator) Filter() filter.Filter { return m.controls.Filter() }

func counter(n int) string {
	return fmt.Sprintf("%d weighings", n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
