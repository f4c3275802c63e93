package tui

import (
	"github.com/mmcdole/imo/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ViewMsg carries a freshly computed view from the session
type ViewMsg struct {
	View domain.DerivedView
}

// InsightsMsg carries aggregate stats from the session
type InsightsMsg struct {
	Stats domain.AggregateStats
}

// RefreshDoneMsg signals the end of a fetch
type RefreshDoneMsg struct {
	Err error
}

// StatusMsg is a transient footer message
type StatusMsg struct {
	Text string
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the footer status
type ClearStatusMsg struct{}
