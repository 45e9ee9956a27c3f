package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// filterFields are the names a typed filter may use.
var filterFields = []string{
	weighing.FieldPlate,
	weighing.FieldSequenceNo,
	weighing.FieldDateStr,
	weighing.FieldTimeStr,
	weighing.FieldWeekday,
	weighing.FieldFraction,
	weighing.FieldNetWeight,
	weighing.FieldAddress,
	weighing.FieldQuarter,
	weighing.FieldNeighborhood,
	weighing.FieldDistrict,
	weighing.FieldHourOfDay,
	weighing.FieldWeekBucket,
	"cluster",
	"containers",
}

func (a *App) handleInputKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEsc:
		a.typing, a.input = false, ""
	case tea.KeyEnter:
		a.typing = false
		cmd := a.submitFilter(a.input)
		a.input = ""
		return a, cmd
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(a.input); len(r) > 0 {
			a.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.input += " "
	case tea.KeyRunes:
		a.input += string(m.Runes)
	}
	return a, nil
}

// submitFilter resolves "field=value" against the known field names and
// values. Fields with a control of their own toggle that control; anything
// else becomes an ad-hoc filter.
func (a *App) submitFilter(text string) tea.Cmd {
	name, value, ok := strings.Cut(text, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		a.status = "error: use field=value"
		return nil
	}
	field, ok := filter.Suggest(name, filterFields)
	if !ok {
		a.status = "unknown field " + name
		return nil
	}
	if v, ok := filter.Suggest(value, a.knownValues(field)); ok {
		value = v
	}

	c := a.controls
	var u state.ControlUpdate
	switch field {
	case weighing.FieldFraction:
		u.Fractions = toggled(c.Fractions, value)
	case weighing.FieldDistrict:
		u.Districts = toggled(c.Districts, value)
	case weighing.FieldNeighborhood:
		u.Neighborhoods = toggled(c.Neighborhoods, value)
	case weighing.FieldWeekday:
		u.Weekdays = toggled(c.Weekdays, value)
	default:
		a.status = "filter " + field + "=" + value
		return a.post(mediator.ExtraFilterAdded{Field: field, Value: value})
	}
	a.status = "toggled " + field + "=" + value
	return a.post(mediator.FilterOptionChanged{Update: u})
}

func toggled(s filter.Set, v string) filter.Set {
	out := s.Clone()
	if out.Has(v) {
		out.Delete(v)
	} else {
		out.Add(v)
	}
	return out
}
