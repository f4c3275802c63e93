package components

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mmcdole/imo/internal/tui/styles"
)

const pickerRows = 10

// DistrictPicker is a fuzzy-filtered district chooser
type DistrictPicker struct {
	visible bool
	input   textinput.Model
	options []string
	folded  []string // lower-cased, accent-free options for matching
	matches fuzzy.Matches
	cursor  int
}

// NewDistrictPicker creates a picker over options
func NewDistrictPicker(options []string) DistrictPicker {
	ti := textinput.New()
	ti.Placeholder = "distrito…"
	ti.Prompt = "› "
	ti.CharLimit = 32

	folded := make([]string, len(options))
	for i, o := range options {
		folded[i] = fold(o)
	}
	p := DistrictPicker{input: ti, options: options, folded: folded}
	p.filter()
	return p
}

// fold lower-cases s and strips diacritics so "evora" finds "Évora"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Show opens the picker with an empty query
func (p *DistrictPicker) Show() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	p.filter()
	return p.input.Focus()
}

// Hide closes the picker
func (p *DistrictPicker) Hide() {
	p.visible = false
	p.input.Blur()
}

// IsVisible returns whether the picker is shown
func (p DistrictPicker) IsVisible() bool {
	return p.visible
}

// Matches returns the options currently offered, best first
func (p DistrictPicker) Matches() []string {
	out := make([]string, len(p.matches))
	for i, m := range p.matches {
		out[i] = p.options[m.Index]
	}
	return out
}

// SetQuery replaces the filter text
func (p *DistrictPicker) SetQuery(q string) {
	p.input.SetValue(q)
	p.filter()
}

func (p *DistrictPicker) filter() {
	q := fold(strings.TrimSpace(p.input.Value()))
	if q == "" {
		p.matches = make(fuzzy.Matches, len(p.options))
		for i, o := range p.options {
			p.matches[i] = fuzzy.Match{Str: o, Index: i}
		}
	} else {
		p.matches = fuzzy.Find(q, p.folded)
	}
	if p.cursor >= len(p.matches) {
		p.cursor = 0
	}
}

// HandleKey processes a key press and returns (handled, chosen district, cmd).
// chosen is empty until the user confirms.
func (p *DistrictPicker) HandleKey(msg tea.KeyMsg) (bool, string, tea.Cmd) {
	if !p.visible {
		return false, "", nil
	}

	switch msg.String() {
	case "esc":
		p.Hide()
		return true, "", nil
	case "enter":
		if len(p.matches) == 0 {
			return true, "", nil
		}
		chosen := p.options[p.matches[p.cursor].Index]
		p.Hide()
		return true, chosen, nil
	case "down", "ctrl+n":
		if p.cursor < len(p.matches)-1 {
			p.cursor++
		}
		return true, "", nil
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return true, "", nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.cursor = 0
	p.filter()
	return true, "", cmd
}

// View renders the picker
func (p DistrictPicker) View() string {
	if !p.visible {
		return ""
	}

	lines := []string{p.input.View(), ""}
	for i, m := range p.matches {
		if i >= pickerRows {
			lines = append(lines, styles.DimStyle.Render("  …"))
			break
		}
		name := p.options[m.Index]
		text := highlight(name, m.MatchedIndexes) + strings.Repeat(" ", max(0, 22-runewidth.StringWidth(name)))
		if i == p.cursor {
			lines = append(lines, styles.SelectedLineStyle.Render(text))
		} else {
			lines = append(lines, styles.NormalLineStyle.Render(text))
		}
	}
	if len(p.matches) == 0 {
		lines = append(lines, styles.DimStyle.Render("  sem resultados"))
	}

	return styles.ModalStyle.Render(styles.ModalTitleStyle.Render("Distrito") + "\n" + strings.Join(lines, "\n"))
}

// highlight marks matched characters. District names fold to ASCII one
// rune per rune, so match offsets in the folded string are rune positions
// in the original.
func highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	want := make(map[int]bool, len(matched))
	for _, m := range matched {
		want[m] = true
	}

	var b strings.Builder
	for i, r := range []rune(s) {
		if want[i] {
			b.WriteString(styles.MatchHighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
