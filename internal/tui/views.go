package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/kgview/internal/filter"
	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/weighing"
)

// Sender delivers messages to a running program. *tea.Program is one.
type Sender interface {
	Send(tea.Msg)
}

// Relay turns mediator view calls into program messages. The calls arrive on
// the state loop and the program applies them on its own goroutine.
type Relay struct {
	sender Sender
}

func NewRelay() *Relay { return &Relay{} }

// Attach sets the receiving program. Call it before the state loop starts.
func (r *Relay) Attach(s Sender) { r.sender = s }

func (r *Relay) send(msg tea.Msg) {
	if r.sender != nil {
		r.sender.Send(msg)
	}
}

// Views returns the view set to hand to mediator.New.
func (r *Relay) Views() mediator.Views {
	return mediator.Views{
		Controls: controlsRelay{r},
		List:     listRelay{r},
		Map:      mapRelay{r},
		Page:     pageRelay{r},
	}
}

// messages
type controlsMsg struct{ snap state.ControlSnapshot }
type areaListMsg struct{ districts, neighborhoods []weighing.Area }
type counterMsg string
type dataMsg []weighing.Record
type filterMsg struct{ f filter.Filter }
type weighingsMsg []weighing.Record
type containersMsg []weighing.Container
type mapAreasMsg weighing.Areas
type highlightMsg struct{ r *weighing.Record }
type renderMsg mediator.MapRender
type viewportMsg state.Viewport
type visibleMsg struct {
	view    state.View
	visible bool
}

type controlsRelay struct{ r *Relay }

func (c controlsRelay) RenderControls(s state.ControlSnapshot) { c.r.send(controlsMsg{s}) }
func (c controlsRelay) SetText(text string)                    { c.r.send(counterMsg(text)) }
func (c controlsRelay) SetAreas(districts, neighborhoods []weighing.Area) {
	c.r.send(areaListMsg{districts: districts, neighborhoods: neighborhoods})
}

type listRelay struct{ r *Relay }

func (l listRelay) SetData(records []weighing.Record) {
	l.r.send(dataMsg(append([]weighing.Record(nil), records...)))
}
func (l listRelay) SetFilter(f filter.Filter) { l.r.send(filterMsg{f}) }

type mapRelay struct{ r *Relay }

func (m mapRelay) SetWeighings(records []weighing.Record) {
	m.r.send(weighingsMsg(append([]weighing.Record(nil), records...)))
}
func (m mapRelay) SetContainers(c []weighing.Container) { m.r.send(containersMsg(c)) }
func (m mapRelay) SetAreas(a weighing.Areas)            { m.r.send(mapAreasMsg(a)) }
func (m mapRelay) Render(r mediator.MapRender)          { m.r.send(renderMsg(r)) }
func (m mapRelay) SetViewport(v state.Viewport)         { m.r.send(viewportMsg(v)) }
func (m mapRelay) SetHighlight(r *weighing.Record) {
	if r != nil {
		cp := *r
		r = &cp
	}
	m.r.send(highlightMsg{r})
}

type pageRelay struct{ r *Relay }

func (p pageRelay) SetVisible(v state.View, visible bool) {
	p.r.send(visibleMsg{view: v, visible: visible})
}
