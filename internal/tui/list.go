package tui

import (
	"fmt"
	"strings"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

type column struct {
	field string
	title string
	width int
}

var listColumns = []column{
	{weighing.FieldPlate, "Kenteken", 9},
	{weighing.FieldDateStr, "Datum", 10},
	{weighing.FieldTimeStr, "Tijd", 8},
	{weighing.FieldFraction, "Fractie", 8},
	{weighing.FieldNetWeight, "Netto", 7},
	{weighing.FieldAddress, "Adres", 28},
	{weighing.FieldNeighborhood, "Wijk", 20},
}

// sortColumns is the order `s` cycles through.
var sortColumns = []string{
	weighing.FieldDateMs,
	weighing.FieldTimeMs,
	weighing.FieldFraction,
	weighing.FieldNetWeight,
	weighing.FieldPlate,
	weighing.FieldAddress,
	weighing.FieldNeighborhood,
}

const defaultListHeight = 15

// listModel is the table of rows passing the current filter.
type listModel struct {
	records []weighing.Record
	filter  filter.Filter
	rows    []weighing.Record
	sort    []state.SortKey
	cursor  int
	offset  int
	height  int
	window  filter.Set // last reported visible ids
}

func newListModel(sort []state.SortKey) listModel {
	return listModel{sort: sort, height: defaultListHeight}
}

// apply recomputes the rows and returns their ids.
func (l *listModel) apply() filter.Set {
	l.rows = filter.Apply(l.filter, l.records)
	state.SortRecords(l.rows, l.sort)
	l.clamp()
	ids := make(filter.Set, len(l.rows))
	for _, r := range l.rows {
		ids.Add(r.ID)
	}
	return ids
}

func (l *listModel) clamp() {
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	if l.offset > max(0, len(l.rows)-l.height) {
		l.offset = max(0, len(l.rows)-l.height)
	}
}

func (l *listModel) visibleRows() []weighing.Record {
	end := min(l.offset+l.height, len(l.rows))
	if l.offset >= end {
		return nil
	}
	return l.rows[l.offset:end]
}

// windowChanged reports the visible ids when they differ from the last
// reported window.
func (l *listModel) windowChanged() (filter.Set, bool) {
	ids := filter.Set{}
	for _, r := range l.visibleRows() {
		ids.Add(r.ID)
	}
	if l.window != nil && ids.Equal(l.window) {
		return nil, false
	}
	l.window = ids
	return ids.Clone(), true
}

func (l *listModel) current() (weighing.Record, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return weighing.Record{}, false
	}
	return l.rows[l.cursor], true
}

// move shifts the cursor and reports whether it landed on another row.
func (l *listModel) move(delta int) bool {
	prev := l.cursor
	l.cursor += delta
	l.clamp()
	return l.cursor != prev
}

// cycleSort advances the primary sort column, keeping the direction.
func (l *listModel) cycleSort() {
	dir, col := state.SortAsc, -1
	if len(l.sort) > 0 {
		dir = l.sort[0].Dir
		for i, c := range sortColumns {
			if c == l.sort[0].Column {
				col = i
			}
		}
	}
	next := sortColumns[(col+1)%len(sortColumns)]
	l.sort = []state.SortKey{{Column: next, Dir: dir}}
}

func (l *listModel) flipSort() {
	if len(l.sort) == 0 {
		l.sort = []state.SortKey{{Column: sortColumns[0], Dir: state.SortDesc}}
		return
	}
	if l.sort[0].Dir == state.SortDesc {
		l.sort[0].Dir = state.SortAsc
	} else {
		l.sort[0].Dir = state.SortDesc
	}
}

func (l *listModel) render(focused bool) string {
	var b strings.Builder
	for _, c := range listColumns {
		fmt.Fprintf(&b, "%-*s ", c.width, clip(c.title+l.sortMark(c.field), c.width))
	}
	b.WriteString("\n")
	for i, r := range l.visibleRows() {
		marker := " "
		if focused && l.offset+i == l.cursor {
			marker = "▶"
		}
		line := ""
		for _, c := range listColumns {
			line += fmt.Sprintf("%-*s ", c.width, clip(r.Format(c.field), c.width))
		}
		b.WriteString(marker + line + "\n")
	}
	if len(l.rows) == 0 {
		b.WriteString("No weighings match.\n")
	} else {
		fmt.Fprintf(&b, "rows %d-%d of %d\n", l.offset+1, l.offset+len(l.visibleRows()), len(l.rows))
	}
	return b.String()
}

// sortMark tags the header of the primary sort column.
func (l *listModel) sortMark(field string) string {
	if len(l.sort) == 0 {
		return ""
	}
	primary := l.sort[0].Column
	if primary == weighing.FieldDateMs {
		primary = weighing.FieldDateStr
	}
	if primary == weighing.FieldTimeMs {
		primary = weighing.FieldTimeStr
	}
	if primary != field {
		return ""
	}
	if l.sort[0].Dir == state.SortDesc {
		return "↓"
	}
	return "↑"
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
