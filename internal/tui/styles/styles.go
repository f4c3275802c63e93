package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mmcdole/imo/internal/domain"
)

// Color palette
var (
	Terracotta = lipgloss.Color("#D9733B")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Terracotta)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Terracotta).
			Padding(0, 1)
)

// Raw mark characters (unstyled)
const (
	LovedChar     = "♥"
	DiscardedChar = "✗"
)

// Mark indicator styles
var (
	LovedStyle     = lipgloss.NewStyle().Foreground(Red)
	DiscardedStyle = lipgloss.NewStyle().Foreground(DimGray)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(Terracotta).
			Bold(true)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Terracotta).
			Padding(0, 1).
			Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)

	SelectedLineStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	ActiveLineStyle = lipgloss.NewStyle().
			Foreground(Terracotta)

	NormalLineStyle = lipgloss.NewStyle().
			Foreground(LightGray)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Terracotta)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Badge styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Terracotta).
			Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Terracotta)
)

// Match highlight style for picker results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(Terracotta).
				Bold(true)
)

// Helper functions

// Truncate truncates a string to the given display width with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad pads or truncates a string to the given display width
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// RenderMark renders the mark indicator, a blank cell for no mark
func RenderMark(mark domain.Mark) string {
	switch mark {
	case domain.MarkLoved:
		return LovedStyle.Render(LovedChar)
	case domain.MarkDiscarded:
		return DiscardedStyle.Render(DiscardedChar)
	}
	return " "
}
