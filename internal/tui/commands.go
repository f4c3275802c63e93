package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/imo/internal/domain"
)

// Command factories. Session calls render synchronously into the Sink,
// which sends back into the program, so they must never run inside Update.

// StartCmd loads marks and runs the first fetch
func StartCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return RefreshDoneMsg{Err: ctrl.Start(ctx)}
	}
}

// RefreshCmd refetches the current query
func RefreshCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return RefreshDoneMsg{Err: ctrl.Refresh(ctx)}
	}
}

// ChangeDistrictCmd switches the query district and refetches
func ChangeDistrictCmd(ctrl Controller, district string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		err := ctrl.UpdateQuery(ctx, func(q *domain.ListingQuery) {
			q.District = district
		})
		return RefreshDoneMsg{Err: err}
	}
}

// ToggleMarkCmd toggles a mark. The new view arrives through the Sink.
func ToggleMarkCmd(marks MarkToggler, url string, mark domain.Mark) tea.Cmd {
	return func() tea.Msg {
		if err := marks.Toggle(context.Background(), url, mark); err != nil {
			return ErrMsg{Err: err, Context: "saving mark"}
		}
		return nil
	}
}

// SetHideDiscardedCmd flips the hide-discarded toggle
func SetHideDiscardedCmd(ctrl Controller, on bool) tea.Cmd {
	return func() tea.Msg {
		ctrl.SetHideDiscarded(on)
		return nil
	}
}

// SetOnlyLovedCmd flips the only-loved toggle
func SetOnlyLovedCmd(ctrl Controller, on bool) tea.Cmd {
	return func() tea.Msg {
		ctrl.SetOnlyLoved(on)
		return nil
	}
}

// SortCmd sorts by field
func SortCmd(ctrl Controller, field domain.SortField) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.SortBy(field); err != nil {
			return ErrMsg{Err: err, Context: "sorting"}
		}
		return nil
	}
}

// SearchCmd applies the free-text filter
func SearchCmd(ctrl Controller, text string) tea.Cmd {
	return func() tea.Msg {
		ctrl.SetSearch(text)
		return nil
	}
}

// OpenCmd opens a listing in the browser
func OpenCmd(opener Opener, url string) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			return ErrMsg{Err: err, Context: "opening listing"}
		}
		return StatusMsg{Text: "Aberto no navegador"}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
