package tui

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

const (
	defaultMapCols = 64
	defaultMapRows = 18
	cellsPerTile   = 32
)

var palette = markerColors()

type marker struct {
	lon, lat float64
	value    string
}

// mapModel draws plotted weighings on a character grid centered on the
// viewport.
type mapModel struct {
	weighings  []weighing.Record
	containers []weighing.Container
	areas      weighing.Areas
	highlight  *weighing.Record
	render     mediator.MapRender
	viewport   state.Viewport
	markers    []marker
	stale      bool
	cols, rows int
}

func newMapModel() mapModel {
	return mapModel{
		viewport: state.DefaultMap().Viewport,
		render:   mediator.MapRender{ColorScheme: state.SchemeFraction, MarkerMode: state.MarkersActive},
		cols:     defaultMapCols,
		rows:     defaultMapRows,
	}
}

func (g *mapModel) setWeighings(records []weighing.Record) {
	g.weighings = records
	g.stale = true
}

// apply takes a render instruction and rebuilds the marker layer when it
// asks for a redraw.
func (g *mapModel) apply(r mediator.MapRender) {
	g.render = r
	if r.Redraw || g.stale {
		g.rebuild()
	}
}

func (g *mapModel) rebuild() {
	g.stale = false
	g.markers = g.markers[:0]
	for _, r := range g.weighings {
		if !g.render.Plotted.Has(r.ID) {
			continue
		}
		lon, lat, ok := r.Position()
		if !ok {
			continue
		}
		g.markers = append(g.markers, marker{lon: lon, lat: lat, value: r.Format(g.render.ColorScheme)})
	}
}

func (g *mapModel) scale() (lonPerCell, latPerCell float64) {
	lonPerCell = 360 / math.Exp2(g.viewport.Zoom) / cellsPerTile
	latPerCell = 2 * lonPerCell * math.Cos(g.viewport.Lat*math.Pi/180)
	return lonPerCell, latPerCell
}

func (g *mapModel) project(lon, lat float64) (col, row int, ok bool) {
	lonCell, latCell := g.scale()
	col = int(math.Floor((lon-g.viewport.Lon)/lonCell)) + g.cols/2
	row = g.rows/2 - 1 - int(math.Floor((lat-g.viewport.Lat)/latCell))
	return col, row, col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// pan moves the center by a quarter of the grid per step.
func (g *mapModel) pan(dx, dy int) state.Viewport {
	lonCell, latCell := g.scale()
	g.viewport.Lon += float64(dx*g.cols/4) * lonCell
	g.viewport.Lat += float64(dy*g.rows/4) * latCell
	return g.viewport
}

func (g *mapModel) zoom(delta float64) state.Viewport {
	z := g.viewport.Zoom + delta
	if g.viewport.MinZoom > 0 && z < g.viewport.MinZoom {
		z = g.viewport.MinZoom
	}
	if g.viewport.MaxZoom > 0 && z > g.viewport.MaxZoom {
		z = g.viewport.MaxZoom
	}
	g.viewport.Zoom = z
	return g.viewport
}

func (g *mapModel) containersShown() bool {
	return g.viewport.Zoom >= mediator.ContainerMinZoom
}

// containerAt finds the container at address, if the inventory has one.
func (g *mapModel) containerAt(address string) (weighing.Container, bool) {
	for _, c := range g.containers {
		if c.Address == address {
			return c, true
		}
	}
	return weighing.Container{}, false
}

func (g *mapModel) view() string {
	cells := make([][]string, g.rows)
	for i := range cells {
		cells[i] = make([]string, g.cols)
		for j := range cells[i] {
			cells[i][j] = " "
		}
	}
	put := func(lon, lat float64, s string) {
		if col, row, ok := g.project(lon, lat); ok {
			cells[row][col] = s
		}
	}
	for _, a := range g.areas.Neighborhoods {
		for _, p := range a.Geometry {
			put(p[0], p[1], outlineStyle.Render("·"))
		}
	}
	if g.containersShown() {
		for _, c := range g.containers {
			if c.Lon != nil && c.Lat != nil {
				put(*c.Lon, *c.Lat, containerStyle.Render("o"))
			}
		}
	}
	for _, m := range g.markers {
		put(m.lon, m.lat, lipgloss.NewStyle().Foreground(colorFor(g.render.ColorScheme, m.value)).Render("●"))
	}
	if g.highlight != nil {
		if lon, lat, ok := g.highlight.Position(); ok {
			put(lon, lat, highlightStyle.Render("◎"))
		}
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s markers, colored by %s: %d plotted  zoom %.1f @ %.4f,%.4f  renders %d\n",
		g.render.MarkerMode, g.render.ColorScheme, len(g.markers),
		g.viewport.Zoom, g.viewport.Lon, g.viewport.Lat, g.render.RenderCount)
	return b.String()
}

// colorFor maps a field value to a palette color. Hours and week buckets
// index the palette directly, everything else by hash.
func colorFor(scheme, value string) lipgloss.Color {
	switch scheme {
	case state.SchemeHour:
		if h, err := strconv.Atoi(value); err == nil && h >= 0 {
			return palette[h*len(palette)/24%len(palette)]
		}
	case state.SchemeWeek:
		if w, err := strconv.Atoi(value); err == nil && w >= 0 {
			return palette[w%len(palette)]
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return palette[h.Sum32()%uint32(len(palette))]
}
