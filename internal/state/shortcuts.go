package state

import (
	"time"

	"github.com/jask/kgview/internal/filter"
)

// Shortcut names accepted by ApplyShortcut.
const (
	ShortcutPreviousWeek = "previous-week"
	ShortcutThisWeek     = "this-week"
	ShortcutWeekBack     = "week-back"
	ShortcutWeekForward  = "week-forward"
	ShortcutDay          = "day"
	ShortcutEvening      = "evening"
	ShortcutNight        = "night"
	ShortcutAllDay       = "all-day"
	ShortcutWorkweek     = "workweek"
	ShortcutWeekend      = "weekend"
	ShortcutToday        = "today"
)

const (
	hour = int64(time.Hour / time.Millisecond)
	week = 7 * 24 * hour
)

var timeShortcuts = map[string]filter.Range{
	ShortcutDay:     filter.Between(6*hour, 15*hour),
	ShortcutEvening: filter.Between(15*hour, 22*hour),
	ShortcutNight:   filter.Between(22*hour, 6*hour),
	ShortcutAllDay:  filter.Between(0, 0),
}

// MondayUTC returns 00:00 UTC of the Monday starting the week that contains
// now's calendar date, in epoch milliseconds.
func MondayUTC(now time.Time) int64 {
	back := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, time.UTC).UnixMilli()
}

// ApplyShortcut applies a preset to the week, time-of-day or weekday
// setting. It reports false for an unknown name, or for a week step when no
// week range is set.
func (c *ControlState) ApplyShortcut(name string, now time.Time) bool {
	if rng, ok := timeShortcuts[name]; ok {
		c.s.Time = rng
		c.changed()
		return true
	}
	switch name {
	case ShortcutPreviousWeek:
		monday := MondayUTC(now)
		c.s.Week = filter.Between(monday-week, monday)
	case ShortcutThisWeek:
		monday := MondayUTC(now)
		c.s.Week = filter.Between(monday, monday+week)
	case ShortcutWeekBack, ShortcutWeekForward:
		if c.s.Week.Start == nil && c.s.Week.End == nil {
			return false
		}
		delta := week
		if name == ShortcutWeekBack {
			delta = -week
		}
		c.s.Week = c.s.Week.Shift(delta)
	case ShortcutWorkweek:
		c.s.Weekdays = filter.NewSet("1", "2", "3", "4", "5")
	case ShortcutWeekend:
		c.s.Weekdays = filter.NewSet("6", "0")
	case ShortcutToday:
		c.s.Weekdays = filter.NewSet(weekdayValue(now.Weekday()))
	default:
		return false
	}
	c.changed()
	return true
}

func weekdayValue(d time.Weekday) string {
	return string(rune('0' + int(d)))
}
