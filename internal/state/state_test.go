package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/persist"
	"github.com/jask/kgview/internal/weighing"
)

type instantTimer struct{}

func (instantTimer) Stop() bool { return false }

// queuedScheduler collects callbacks until the test runs them.
type queuedScheduler struct {
	pending []func()
}

func (s *queuedScheduler) AfterFunc(_ time.Duration, f func()) persist.Timer {
	s.pending = []func(){f}
	return instantTimer{}
}

func (s *queuedScheduler) fire() {
	for _, f := range s.pending {
		f()
	}
	s.pending = nil
}

func rec(fields map[string]any) weighing.Record { return weighing.New(fields) }

func TestDefaultControlsPassEverything(t *testing.T) {
	c := NewControlState(DefaultControls())
	require.True(t, c.Filter().Unconstrained())
	require.True(t, c.ViewVisible(ViewList))
	require.True(t, c.ViewVisible(ViewMap))
	require.Equal(t, MarkersActive, c.MarkerMode())
	require.Equal(t, SchemeFraction, c.ColorScheme())
}

func TestSetVisibleViewsNeverEmpty(t *testing.T) {
	c := NewControlState(DefaultControls())

	require.False(t, c.SetVisibleViews(filter.NewSet(string(ViewMap)), ViewList))
	require.Equal(t, []string{"map"}, c.Views().Values())

	require.True(t, c.SetVisibleViews(filter.Set{}, ViewMap))
	require.Equal(t, []string{"list"}, c.Views().Values())

	require.True(t, c.ToggleView(ViewList))
	require.Equal(t, []string{"map"}, c.Views().Values())
}

func TestApplyEmptyViewsRestoresHidden(t *testing.T) {
	c := NewControlState(DefaultControls())
	c.Apply(ControlUpdate{Views: filter.NewSet("list")})
	c.Apply(ControlUpdate{Views: filter.Set{}})
	require.Equal(t, []string{"map"}, c.Views().Values())

	both := NewControlState(DefaultControls())
	both.Apply(ControlUpdate{Views: filter.Set{}})
	require.Equal(t, []string{"list", "map"}, both.Views().Values(), "nothing hidden falls back to both views")
}

func TestApplyPartialUpdate(t *testing.T) {
	c := NewControlState(DefaultControls())
	night := filter.Between(22*hour, 6*hour)
	c.Apply(ControlUpdate{Fractions: filter.NewSet("Rest"), Time: &night})

	snap := c.Snapshot()
	require.Equal(t, []string{"Rest"}, snap.Fractions.Values())
	require.True(t, night.Equal(snap.Time))
	require.Empty(t, snap.Weekdays)

	f := c.Filter()
	require.True(t, f.Match(rec(map[string]any{"fractie": "Rest", "tijd_ms": 23 * hour})))
	require.False(t, f.Match(rec(map[string]any{"fractie": "Rest", "tijd_ms": 12 * hour})))
	require.False(t, f.Match(rec(map[string]any{"fractie": "Glas", "tijd_ms": 23 * hour})))

	c.Apply(ControlUpdate{Fractions: filter.Set{}})
	require.Empty(t, c.Snapshot().Fractions)
}

func TestToggleNeighborhood(t *testing.T) {
	c := NewControlState(DefaultControls())

	c.ToggleNeighborhood("Oost", "East", false)
	require.Equal(t, []string{"Oost"}, c.Snapshot().Neighborhoods.Values())
	require.Equal(t, []string{"East"}, c.Snapshot().Districts.Values())

	c.ToggleNeighborhood("Noord", "North", true)
	require.Equal(t, []string{"Noord", "Oost"}, c.Snapshot().Neighborhoods.Values())
	require.Equal(t, []string{"East", "North"}, c.Snapshot().Districts.Values())

	c.ToggleNeighborhood("Noord", "North", true)
	c.ToggleNeighborhood("Oost", "East", true)
	require.Empty(t, c.Snapshot().Neighborhoods)
	require.Empty(t, c.Snapshot().Districts)
}

func TestToggleAddress(t *testing.T) {
	c := NewControlState(DefaultControls())

	c.ToggleAddress("Dam 1", false)
	c.ToggleAddress("Dam 2", true)
	extra := c.Extra()
	require.Len(t, extra, 1)
	require.Equal(t, "adres", extra[0].Field)
	require.Equal(t, []string{"Dam 1", "Dam 2"}, extra[0].Values.Values())

	c.ToggleAddress("Dam 3", false)
	require.Equal(t, []string{"Dam 3"}, c.Extra()[0].Values.Values())

	c.ToggleAddress("Dam 3", true)
	require.Empty(t, c.Extra())
}

func TestSelectRouteAndRemove(t *testing.T) {
	c := NewControlState(DefaultControls())
	c.ToggleAddress("Dam 1", false)
	c.SelectRoute("2024-03-04", "AB-12-CD")

	extra := c.Extra()
	require.Len(t, extra, 2)
	require.Equal(t, "datum_str", extra[0].Field)
	require.Equal(t, "kenteken", extra[1].Field)

	f := c.Filter()
	require.True(t, f.Match(rec(map[string]any{"datum_str": "2024-03-04", "kenteken": "AB-12-CD"})))
	require.False(t, f.Match(rec(map[string]any{"datum_str": "2024-03-04", "kenteken": "XX-00-XX"})))

	require.True(t, c.RemoveExtraFilter(1))
	require.False(t, c.RemoveExtraFilter(5))
	require.Len(t, c.Extra(), 1)
}

func TestAddExtraFilterMerges(t *testing.T) {
	c := NewControlState(DefaultControls())
	c.AddExtraFilter("buurt", "A")
	c.AddExtraFilter("buurt", "B")
	c.AddExtraFilter("kenteken", "X")
	extra := c.Extra()
	require.Len(t, extra, 2)
	require.Equal(t, []string{"A", "B"}, extra[0].Values.Values())
}

func TestWeekShortcuts(t *testing.T) {
	// Wednesday 2024-03-06 14:00 UTC; that week's Monday is 2024-03-04.
	now := time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).UnixMilli()
	require.Equal(t, monday, MondayUTC(now))

	sunday := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	require.Equal(t, monday, MondayUTC(sunday))

	c := NewControlState(DefaultControls())
	require.False(t, c.ApplyShortcut(ShortcutWeekBack, now), "nothing to shift")

	require.True(t, c.ApplyShortcut(ShortcutThisWeek, now))
	require.True(t, filter.Between(monday, monday+week).Equal(c.Snapshot().Week))

	require.True(t, c.ApplyShortcut(ShortcutWeekBack, now))
	require.True(t, filter.Between(monday-week, monday).Equal(c.Snapshot().Week))

	require.True(t, c.ApplyShortcut(ShortcutWeekForward, now))
	require.True(t, c.ApplyShortcut(ShortcutPreviousWeek, now))
	require.True(t, filter.Between(monday-week, monday).Equal(c.Snapshot().Week))
}

func TestTimeAndWeekdayShortcuts(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) // Sunday
	c := NewControlState(DefaultControls())

	require.True(t, c.ApplyShortcut(ShortcutNight, now))
	require.True(t, filter.Between(22*hour, 6*hour).Equal(c.Snapshot().Time))
	require.True(t, c.ApplyShortcut(ShortcutAllDay, now))
	require.True(t, c.Filter().Unconstrained())

	require.True(t, c.ApplyShortcut(ShortcutWeekend, now))
	require.Equal(t, []string{"0", "6"}, c.Snapshot().Weekdays.Values())
	require.True(t, c.Filter().Match(rec(map[string]any{"weekdag_ma1": 6})))

	require.True(t, c.ApplyShortcut(ShortcutToday, now))
	require.Equal(t, []string{"0"}, c.Snapshot().Weekdays.Values())

	require.True(t, c.ApplyShortcut(ShortcutWorkweek, now))
	require.Len(t, c.Snapshot().Weekdays, 5)

	require.False(t, c.ApplyShortcut("lunch", now))
}

func TestMapRender(t *testing.T) {
	m := NewMapState(DefaultMap())

	require.False(t, m.Render(MapUpdate{Visible: filter.NewSet("a")}), "visible set is not plotted in active mode")
	require.True(t, m.Render(MapUpdate{Active: filter.NewSet("a", "b")}))
	require.Equal(t, []string{"a", "b"}, m.PlottedIDs().Values())

	require.False(t, m.Render(MapUpdate{ColorScheme: SchemeFraction}))
	require.True(t, m.Render(MapUpdate{ColorScheme: SchemeHour}))

	require.True(t, m.Render(MapUpdate{MarkerMode: MarkersVisible}))
	require.Equal(t, []string{"a"}, m.PlottedIDs().Values())
	require.Equal(t, 3, m.RenderCount())

	require.False(t, m.Render(MapUpdate{Viewport: &Viewport{Lon: 5, Lat: 52, Zoom: 14, MinZoom: 1, MaxZoom: 30}}))
	vp := m.Viewport()
	require.Equal(t, 14.0, vp.Zoom)
	require.Equal(t, 10.0, vp.MinZoom)
	require.Equal(t, 20.0, vp.MaxZoom)
}

func TestMapRenderMarksOnlyPersistedChanges(t *testing.T) {
	calls := 0
	m := NewMapState(DefaultMap())
	m.OnChange(func() { calls++ })

	m.Render(MapUpdate{Active: filter.NewSet("a"), Visible: filter.NewSet("a")})
	m.Render(MapUpdate{ColorScheme: SchemeFraction, MarkerMode: MarkersActive})
	vp := m.Viewport()
	m.Render(MapUpdate{Viewport: &vp})
	m.ResetRows()
	require.Zero(t, calls)

	m.Render(MapUpdate{ColorScheme: SchemeHour})
	require.Equal(t, 1, calls)
	vp.Zoom++
	m.Render(MapUpdate{Viewport: &vp})
	require.Equal(t, 2, calls)
}

func TestListState(t *testing.T) {
	calls := 0
	l := NewListState(ListSnapshot{})
	l.OnChange(func() { calls++ })
	l.SetActive(filter.NewSet("a"))
	l.SetVisible(filter.NewSet("a"))
	require.Zero(t, calls, "row sets are not persisted")
	l.SetSort([]SortKey{{Column: "datum_ms", Dir: SortDesc}})
	require.Equal(t, 1, calls)

	l.ResetRows()
	require.Equal(t, 1, calls)
	require.Empty(t, l.Active())
	require.Empty(t, l.Visible())
	require.Equal(t, ListSnapshot{Sort: []SortKey{{Column: "datum_ms", Dir: SortDesc}}}, l.Snapshot())
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	sched := &queuedScheduler{}
	backend := persist.NewMemoryBackend()

	cp := persist.New(Key("kg", KeyControls), backend, sched, persist.Options{})
	lp := persist.New(Key("kg", KeyList), backend, sched, persist.Options{})
	mp := persist.New(Key("kg", KeyMap), backend, sched, persist.Options{})

	c, err := RestoreControls(ctx, cp)
	require.NoError(t, err)
	c.AddExtraFilter("kenteken", "AB-12-CD")
	c.SetVisibleViews(filter.NewSet("map"), ViewList)
	sched.fire()

	l, err := RestoreList(ctx, lp)
	require.NoError(t, err)
	l.SetActive(filter.NewSet("1:1"))
	l.SetSort([]SortKey{{Column: "adres", Dir: SortAsc}})
	sched.fire()

	m, err := RestoreMap(ctx, mp, DefaultMap())
	require.NoError(t, err)
	m.Render(MapUpdate{ColorScheme: SchemeWeek, Active: filter.NewSet("1:1"), Viewport: &Viewport{Lon: 4.8, Lat: 52.3, Zoom: 16}})
	sched.fire()

	for _, p := range []*persist.Persister{cp, lp, mp} {
		p.Wait()
	}

	c2, err := RestoreControls(ctx, persist.New(Key("kg", KeyControls), backend, sched, persist.Options{}))
	require.NoError(t, err)
	require.Equal(t, c.Snapshot(), c2.Snapshot())

	l2, err := RestoreList(ctx, persist.New(Key("kg", KeyList), backend, sched, persist.Options{}))
	require.NoError(t, err)
	require.Equal(t, l.Sort(), l2.Sort())
	require.Empty(t, l2.Active(), "row sets are not persisted")

	m2, err := RestoreMap(ctx, persist.New(Key("kg", KeyMap), backend, sched, persist.Options{}), DefaultMap())
	require.NoError(t, err)
	require.Equal(t, SchemeWeek, m2.ColorScheme())
	require.Equal(t, 16.0, m2.Viewport().Zoom)
	require.Empty(t, m2.Active())
	require.Equal(t, 0, m2.RenderCount())
}

func TestRestoreControlsWithNullRange(t *testing.T) {
	ctx := context.Background()
	backend := persist.NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, "kg/controls", []byte(`{"week": null, "fractions": ["Rest"]}`)))

	c, err := RestoreControls(ctx, persist.New("kg/controls", backend, &queuedScheduler{}, persist.Options{}))
	require.NoError(t, err)
	snap := c.Snapshot()
	require.Equal(t, []string{"Rest"}, snap.Fractions.Values())
	require.Nil(t, snap.Week.Start)
	require.Nil(t, snap.Week.End)
}

func TestRestoreViewportMergesOverDefaults(t *testing.T) {
	ctx := context.Background()
	backend := persist.NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, "kg/map", []byte(`{"viewport": {"zoom": 15}}`)))

	m, err := RestoreMap(ctx, persist.New("kg/map", backend, &queuedScheduler{}, persist.Options{}), DefaultMap())
	require.NoError(t, err)
	vp := m.Viewport()
	require.Equal(t, 15.0, vp.Zoom)
	require.Equal(t, DefaultMap().Viewport.Lon, vp.Lon)
	require.Equal(t, DefaultMap().Viewport.MaxZoom, vp.MaxZoom)
	require.Equal(t, SchemeFraction, m.ColorScheme())
}

func TestSortRecords(t *testing.T) {
	rows := []weighing.Record{
		rec(map[string]any{"systeem_id": "a", "volgnummer": 1, "netto_gewicht": 90, "adres": "B"}),
		rec(map[string]any{"systeem_id": "a", "volgnummer": 2, "netto_gewicht": 100, "adres": "A"}),
		rec(map[string]any{"systeem_id": "a", "volgnummer": 3, "adres": "A"}),
		rec(map[string]any{"systeem_id": "a", "volgnummer": 4, "netto_gewicht": 100, "adres": "C"}),
	}
	order := func() []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.ID
		}
		return out
	}

	SortRecords(rows, []SortKey{{Column: "netto_gewicht", Dir: SortDesc}, {Column: "adres", Dir: SortAsc}})
	require.Equal(t, []string{"a:2", "a:4", "a:1", "a:3"}, order())

	SortRecords(rows, []SortKey{{Column: "netto_gewicht", Dir: SortAsc}})
	require.Equal(t, []string{"a:1", "a:2", "a:4", "a:3"}, order())
}
