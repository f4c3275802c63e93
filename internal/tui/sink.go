package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/imo/internal/domain"
)

// Sink forwards session output into a running Bubble Tea program.
// It implements domain.Renderer and domain.InsightsRenderer.
type Sink struct {
	send func(tea.Msg)
}

// NewSink creates a sink for p
func NewSink(p *tea.Program) *Sink {
	return &Sink{send: p.Send}
}

// Render posts the view to the program
func (s *Sink) Render(v domain.DerivedView) {
	s.send(ViewMsg{View: v})
}

// RenderInsights posts aggregate stats to the program
func (s *Sink) RenderInsights(st domain.AggregateStats) {
	s.send(InsightsMsg{Stats: st})
}
