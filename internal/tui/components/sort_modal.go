package components

import (
	"strings"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/tui/styles"
)

// SortLabel returns the display name for a sort field
func SortLabel(f domain.SortField) string {
	switch f {
	case domain.SortSource:
		return "Fonte"
	case domain.SortTitle:
		return "Título"
	case domain.SortURL:
		return "URL"
	case domain.SortSnippet:
		return "Descrição"
	case domain.SortPriceEUR:
		return "Preço"
	case domain.SortAreaM2:
		return "Área"
	case domain.SortEurM2:
		return "€/m²"
	default:
		return "Original"
	}
}

// SortModal is a small popup for choosing the sort column
type SortModal struct {
	visible     bool
	options     []domain.SortField
	cursor      int
	activeField domain.SortField
	activeDir   domain.SortDirection
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{}
}

// Show displays the modal with the current sort state
func (m *SortModal) Show(activeField domain.SortField, activeDir domain.SortDirection) {
	m.visible = true
	m.options = domain.SortFields
	m.activeField = activeField
	m.activeDir = activeDir
	// Position cursor on the active field
	m.cursor = 0
	for i, opt := range m.options {
		if opt == activeField {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *SortModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press and returns (handled, chosen field).
// Choosing the active field again means "flip direction"; the session
// decides that.
func (m *SortModal) HandleKey(key string) (handled bool, chosen domain.SortField) {
	if !m.visible {
		return false, domain.SortNone
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.visible = false
		return true, m.options[m.cursor]
	case "esc", "s":
		m.visible = false
	}

	return true, domain.SortNone // consume all keys when visible
}

// View renders the sort modal
func (m SortModal) View() string {
	if !m.visible || len(m.options) == 0 {
		return ""
	}

	var lines []string
	for i, opt := range m.options {
		isActive := opt == m.activeField

		prefix := "  "
		suffix := ""
		if isActive {
			prefix = "✓ "
			if m.activeDir == domain.Desc {
				suffix = " ↓"
			} else {
				suffix = " ↑"
			}
		}
		text := styles.Pad(prefix+SortLabel(opt)+suffix, 20)

		switch {
		case i == m.cursor:
			lines = append(lines, styles.SelectedLineStyle.Render(text))
		case isActive:
			lines = append(lines, styles.ActiveLineStyle.Render(text))
		default:
			lines = append(lines, styles.NormalLineStyle.Render(text))
		}
	}

	return styles.ModalStyle.Render(styles.ModalTitleStyle.Render("Ordenar por") + "\n" + strings.Join(lines, "\n"))
}
