package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// Poster accepts view events. *mediator.Mediator is one.
type Poster interface {
	Post(mediator.Event)
}

type pane int

const (
	paneControls pane = iota
	paneList
	paneMap
)

// Options configures the App.
type Options struct {
	Sort []state.SortKey // restored list order
}

// App is the bubbletea model rendering the controls, list and map panes.
type App struct {
	poster Poster
	focus  pane
	status string
	width  int
	height int

	controls      state.ControlSnapshot
	counter       string
	districts     []weighing.Area
	neighborhoods []weighing.Area
	visible       map[state.View]bool

	list listModel
	geo  mapModel

	typing bool
	input  string
}

func New(opts Options) *App {
	return &App{
		focus:    paneList,
		controls: state.DefaultControls(),
		counter:  "0 weighings",
		visible:  map[state.View]bool{state.ViewList: true, state.ViewMap: true},
		list:     newListModel(opts.Sort),
		geo:      newMapModel(),
	}
}

// Bind sets where events go. Call it before the program starts.
func (a *App) Bind(p Poster) { a.poster = p }

func (a *App) Init() tea.Cmd { return nil }

// post returns a command delivering events in order. Posting from a command
// keeps Update from blocking on a full state loop.
func (a *App) post(events ...mediator.Event) tea.Cmd {
	if a.poster == nil || len(events) == 0 {
		return nil
	}
	p := a.poster
	return func() tea.Msg {
		for _, e := range events {
			p.Post(e)
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.typing {
			return a.handleInputKey(m)
		}
		return a.handleKey(m)
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.list.height = max(5, m.Height/2-6)
		a.geo.cols = max(20, m.Width-8)
		a.geo.rows = max(8, m.Height/2-6)
		a.list.clamp()
		return a, a.postWindow()
	case controlsMsg:
		a.controls = m.snap
	case counterMsg:
		a.counter = string(m)
	case areaListMsg:
		a.districts, a.neighborhoods = m.districts, m.neighborhoods
	case dataMsg:
		a.list.records = []weighing.Record(m)
		a.list.window = nil
		a.list.apply()
	case filterMsg:
		a.list.filter = m.f
		ids := a.list.apply()
		a.list.window = nil
		events := []mediator.Event{mediator.ActiveSetChanged{IDs: ids}}
		if win, ok := a.list.windowChanged(); ok {
			events = append(events, mediator.VisibleSetChanged{IDs: win})
		}
		return a, a.post(events...)
	case weighingsMsg:
		a.geo.setWeighings([]weighing.Record(m))
	case containersMsg:
		a.geo.containers = []weighing.Container(m)
	case mapAreasMsg:
		a.geo.areas = weighing.Areas(m)
	case highlightMsg:
		a.geo.highlight = m.r
	case renderMsg:
		a.geo.apply(mediator.MapRender(m))
	case viewportMsg:
		a.geo.viewport = state.Viewport(m)
	case visibleMsg:
		a.visible[m.view] = m.visible
		if !a.paneShown(a.focus) {
			a.focus = paneControls
		}
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if name, ok := shortcutKeys[m.String()]; ok {
		return a, a.post(mediator.ShortcutApplied{Name: name})
	}
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "tab":
		return a, a.cycleFocus()
	case "1":
		return a, a.toggleView(state.ViewList)
	case "2":
		return a, a.toggleView(state.ViewMap)
	case "m":
		next := state.MarkersVisible
		if a.controls.MarkerMode == state.MarkersVisible {
			next = state.MarkersActive
		}
		return a, a.post(mediator.DisplayOptionChanged{MarkerMode: next})
	case "c":
		return a, a.post(mediator.DisplayOptionChanged{ColorScheme: nextScheme(a.controls.ColorScheme)})
	case "/":
		a.typing, a.input = true, ""
		a.status = ""
	case "x":
		if n := len(a.controls.Extra); n > 0 {
			return a, a.post(mediator.ExtraFilterRemoved{Index: n - 1})
		}
	case "E":
		a.status = "export requested"
		return a, a.post(mediator.ExportRequested{})
	case "s", "S":
		if m.String() == "s" {
			a.list.cycleSort()
		} else {
			a.list.flipSort()
		}
		a.list.apply()
		keys := append([]state.SortKey(nil), a.list.sort...)
		return a, a.batchWindow(mediator.SortChanged{Keys: keys})
	}
	switch a.focus {
	case paneList:
		return a, a.handleListKey(m)
	case paneMap:
		return a, a.handleMapKey(m)
	}
	return a, nil
}

var shortcutKeys = map[string]string{
	"p": state.ShortcutPreviousWeek,
	"t": state.ShortcutThisWeek,
	"[": state.ShortcutWeekBack,
	"]": state.ShortcutWeekForward,
	"d": state.ShortcutDay,
	"e": state.ShortcutEvening,
	"n": state.ShortcutNight,
	"a": state.ShortcutAllDay,
	"w": state.ShortcutWorkweek,
	"W": state.ShortcutWeekend,
	"T": state.ShortcutToday,
}

func (a *App) handleListKey(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "up", "k":
		return a.moveCursor(-1)
	case "down", "j":
		return a.moveCursor(1)
	case "pgup":
		return a.moveCursor(-a.list.height)
	case "pgdown":
		return a.moveCursor(a.list.height)
	case "enter":
		return a.selectRoute()
	}
	return nil
}

func (a *App) handleMapKey(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "up", "k":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.pan(0, 1)})
	case "down", "j":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.pan(0, -1)})
	case "left", "h":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.pan(-1, 0)})
	case "right", "l":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.pan(1, 0)})
	case "+", "=":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.zoom(1)})
	case "-":
		return a.post(mediator.ViewportChanged{Viewport: a.geo.zoom(-1)})
	case "enter":
		return a.selectRoute()
	case "g", "G":
		return a.selectNeighborhood(m.String() == "G")
	case "o", "O":
		return a.selectContainer(m.String() == "O")
	}
	return nil
}

// moveCursor moves the list cursor, handing the pointer from the old row to
// the new one.
func (a *App) moveCursor(delta int) tea.Cmd {
	if !a.list.move(delta) {
		return nil
	}
	events := []mediator.Event{mediator.RowPointerLeft{}}
	if r, ok := a.list.current(); ok {
		events = append(events, mediator.RowPointerEntered{Record: r})
	}
	if win, ok := a.list.windowChanged(); ok {
		events = append(events, mediator.VisibleSetChanged{IDs: win})
	}
	return a.post(events...)
}

// target is the row the map selections act on: the highlighted one, else
// the list cursor.
func (a *App) target() (weighing.Record, bool) {
	if a.geo.highlight != nil {
		return *a.geo.highlight, true
	}
	return a.list.current()
}

func (a *App) selectRoute() tea.Cmd {
	r, ok := a.target()
	if !ok {
		return nil
	}
	return a.post(mediator.RowSelected{Object: r, Layer: mediator.LayerWeighings, Zoom: a.geo.viewport.Zoom})
}

func (a *App) selectNeighborhood(modifier bool) tea.Cmd {
	r, ok := a.target()
	if !ok {
		return nil
	}
	for _, area := range a.neighborhoods {
		if area.Name == r.Neighborhood() {
			return a.post(mediator.RowSelected{Object: area, ModifierHeld: modifier, Layer: mediator.LayerAreas, Zoom: a.geo.viewport.Zoom})
		}
	}
	a.status = "no area for " + r.Neighborhood()
	return nil
}

func (a *App) selectContainer(modifier bool) tea.Cmd {
	r, ok := a.target()
	if !ok {
		return nil
	}
	if !a.geo.containersShown() {
		a.status = fmt.Sprintf("zoom in to %d to pick containers", mediator.ContainerMinZoom)
		return nil
	}
	c, ok := a.geo.containerAt(r.Address())
	if !ok {
		c = weighing.Container{Address: r.Address()}
	}
	return a.post(mediator.RowSelected{Object: c, ModifierHeld: modifier, Layer: mediator.LayerContainers, Zoom: a.geo.viewport.Zoom})
}

func (a *App) toggleView(v state.View) tea.Cmd {
	views := toggled(a.controls.Views, string(v))
	return a.post(mediator.DisplayOptionChanged{Views: views, Toggled: v})
}

func (a *App) paneShown(p pane) bool {
	switch p {
	case paneList:
		return a.visible[state.ViewList]
	case paneMap:
		return a.visible[state.ViewMap]
	}
	return true
}

func (a *App) cycleFocus() tea.Cmd {
	leaving := a.focus == paneList
	for i := 0; i < 3; i++ {
		a.focus = (a.focus + 1) % 3
		if a.paneShown(a.focus) {
			break
		}
	}
	if leaving && a.focus != paneList {
		return a.post(mediator.RowPointerLeft{})
	}
	return nil
}

// postWindow reports the list window when it moved.
func (a *App) postWindow() tea.Cmd {
	if win, ok := a.list.windowChanged(); ok {
		return a.post(mediator.VisibleSetChanged{IDs: win})
	}
	return nil
}

func (a *App) batchWindow(e mediator.Event) tea.Cmd {
	events := []mediator.Event{e}
	if win, ok := a.list.windowChanged(); ok {
		events = append(events, mediator.VisibleSetChanged{IDs: win})
	}
	return a.post(events...)
}

func nextScheme(current string) string {
	for i, s := range state.Schemes {
		if s == current {
			return state.Schemes[(i+1)%len(state.Schemes)]
		}
	}
	return state.Schemes[0]
}

func (a *App) View() string {
	var panes []string
	panes = append(panes, a.frame(paneControls, a.renderControls()))
	if a.visible[state.ViewList] {
		panes = append(panes, a.frame(paneList, titleStyle.Render("Weighings")+"\n"+a.list.render(a.focus == paneList)))
	}
	if a.visible[state.ViewMap] {
		panes = append(panes, a.frame(paneMap, titleStyle.Render("Map")+"\n"+a.geo.view()))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, panes...)
	if a.typing {
		body += "\nfilter> " + a.input + "█"
	}
	if a.status != "" {
		style := statusStyle
		if strings.HasPrefix(a.status, "error") || strings.HasPrefix(a.status, "unknown") {
			style = errorStyle
		}
		body += "\n" + style.Render(a.status)
	}
	return body
}

func (a *App) frame(p pane, content string) string {
	style := paneStyle
	if a.focus == p {
		style = focusStyle
	}
	if a.width > 4 {
		style = style.Width(a.width - 4)
	}
	return style.Render(strings.TrimRight(content, "\n"))
}

func (a *App) renderControls() string {
	c := a.controls
	var b strings.Builder
	b.WriteString(titleStyle.Render("Containers "+a.counter) + "\n")
	fmt.Fprintf(&b, "Fractie: %s   Stadsdeel: %s   Wijk: %s\n",
		setText(c.Fractions), setText(c.Districts), setText(c.Neighborhoods))
	fmt.Fprintf(&b, "Week: %s   Tijd: %s   Dagen: %s\n", weekText(c.Week), timeText(c.Time), weekdayText(c.Weekdays))
	if len(c.Extra) > 0 {
		parts := make([]string, 0, len(c.Extra))
		for _, e := range c.Extra {
			parts = append(parts, e.Field+"="+strings.Join(e.Values.Values(), "|"))
		}
		fmt.Fprintf(&b, "Extra: %s\n", strings.Join(parts, "  "))
	}
	fmt.Fprintf(&b, "Views: %s   Markers: %s   Colors: %s   Areas: %d/%d\n",
		setText(c.Views), c.MarkerMode, c.ColorScheme, len(a.districts), len(a.neighborhoods))
	b.WriteString(dimStyle.Render("[p/t] prev/this week  [[/]] week -/+  [d/e/n/a] day/evening/night/all  [w/W/T] workweek/weekend/today"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("[tab] focus  [s/S] sort  [m] markers  [c] colors  [1/2] list/map  [/] filter  [x] drop filter  [E] export  [q] quit"))
	return b.String()
}

func setText(s filter.Set) string {
	if len(s) == 0 {
		return "all"
	}
	return strings.Join(s.Values(), ", ")
}

func weekText(r filter.Range) string {
	day := func(b *int64) string {
		if b == nil {
			return "…"
		}
		return time.UnixMilli(*b).UTC().Format("2006-01-02")
	}
	if r.Start == nil && r.End == nil {
		return "all"
	}
	return day(r.Start) + " – " + day(r.End)
}

func timeText(r filter.Range) string {
	clock := func(b *int64) string {
		if b == nil {
			return "…"
		}
		d := time.Duration(*b) * time.Millisecond
		return fmt.Sprintf("%02d:%02d", int(d.Hours())%24, int(d.Minutes())%60)
	}
	if r.Start == nil && r.End == nil {
		return "all"
	}
	if r.Start != nil && r.End != nil && *r.Start == *r.End {
		return "whole day"
	}
	return clock(r.Start) + "–" + clock(r.End)
}

var weekdayNames = map[string]string{"0": "zo", "1": "ma", "2": "di", "3": "wo", "4": "do", "5": "vr", "6": "za"}

func weekdayText(s filter.Set) string {
	if len(s) == 0 {
		return "all"
	}
	order := []string{"1", "2", "3", "4", "5", "6", "0"}
	var names []string
	for _, d := range order {
		if s.Has(d) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, " ")
}

// knownValues lists the distinct values a field takes across the dataset
// and the area definitions.
func (a *App) knownValues(field string) []string {
	seen := map[string]struct{}{}
	for _, r := range a.list.records {
		if v := r.Format(field); v != "" {
			seen[v] = struct{}{}
		}
	}
	var areas []weighing.Area
	switch field {
	case weighing.FieldDistrict:
		areas = a.districts
	case weighing.FieldNeighborhood:
		areas = a.neighborhoods
	}
	for _, area := range areas {
		seen[area.Name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
