package state

import (
	"sort"
	"strings"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/weighing"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortKey orders the list by one column.
type SortKey struct {
	Column string `json:"column"`
	Dir    string `json:"dir"`
}

// ListSnapshot is the persisted part of the list state.
type ListSnapshot struct {
	Sort []SortKey `json:"sort"`
}

// ListState is the list view's state. Active holds the ids passing the
// filter, Visible the ids currently scrolled into view; both are rebuilt on
// every refresh.
type ListState struct {
	hook
	active  filter.Set
	visible filter.Set
	sort    []SortKey
}

func NewListState(snap ListSnapshot) *ListState {
	return &ListState{
		active:  filter.Set{},
		visible: filter.Set{},
		sort:    append([]SortKey(nil), snap.Sort...),
	}
}

func (l *ListState) OnChange(fn func()) { l.fn = fn }

func (l *ListState) Snapshot() ListSnapshot {
	return ListSnapshot{Sort: l.Sort()}
}

func (l *ListState) Active() filter.Set  { return l.active.Clone() }
func (l *ListState) Visible() filter.Set { return l.visible.Clone() }
func (l *ListState) Sort() []SortKey     { return append([]SortKey{}, l.sort...) }

func (l *ListState) SetActive(ids filter.Set) {
	l.active = ids.Clone()
}

func (l *ListState) SetVisible(ids filter.Set) {
	l.visible = ids.Clone()
}

func (l *ListState) SetSort(keys []SortKey) {
	l.sort = append([]SortKey{}, keys...)
	l.changed()
}

// ResetRows clears the transient row sets. Row sets are not persisted, so
// neither this nor SetActive/SetVisible marks the state dirty.
func (l *ListState) ResetRows() {
	l.active = filter.Set{}
	l.visible = filter.Set{}
}

// SortRecords orders records in place by keys, earlier keys first. Numeric
// fields compare numerically, everything else by canonical text; rows
// missing a field sort last in either direction.
func SortRecords(records []weighing.Record, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			_, okA := records[i].Field(k.Column)
			_, okB := records[j].Field(k.Column)
			if okA != okB {
				return okA
			}
			if !okA {
				continue
			}
			c := compareField(records[i], records[j], k.Column)
			if k.Dir == SortDesc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareField(a, b weighing.Record, field string) int {
	if x, ok := a.Number(field); ok {
		if y, ok := b.Number(field); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	x, _ := a.Text(field)
	y, _ := b.Text(field)
	return strings.Compare(x, y)
}
