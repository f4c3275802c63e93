package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/stats"
	"github.com/mmcdole/imo/internal/tui/components"
	"github.com/mmcdole/imo/internal/tui/styles"
)

// Controller is the subset of the session the dashboard drives
type Controller interface {
	Start(ctx context.Context) error
	Refresh(ctx context.Context) error
	SetHideDiscarded(on bool)
	SetOnlyLoved(on bool)
	SortBy(field domain.SortField) error
	SetSearch(text string)
	UpdateQuery(ctx context.Context, edit func(q *domain.ListingQuery)) error
}

// MarkToggler toggles listing marks
type MarkToggler interface {
	Toggle(ctx context.Context, url string, mark domain.Mark) error
}

// Opener opens a listing URL outside the terminal
type Opener interface {
	Open(rawURL string) error
}

// ChromeHeight is header + column header + footer
const ChromeHeight = 3

// Column widths for the listing table. Title takes the rest.
const (
	markWidth   = 1
	sourceWidth = 11
	priceWidth  = 12
	areaWidth   = 8
	eurM2Width  = 9
	minTitle    = 12
)

// Model is the main Bubble Tea model for the dashboard
type Model struct {
	// Services
	Ctrl   Controller
	Marks  MarkToggler
	Opener Opener

	// UI Components
	SortModal components.SortModal
	Picker    components.DistrictPicker
	Summary   components.Summary
	Filter    textinput.Model
	Help      help.Model

	// Data
	Derived  domain.DerivedView
	HasView  bool
	District string

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// UI state
	Cursor       int
	Offset       int
	Filtering    bool
	ShowSummary  bool
	ShowHelp     bool
	Loading      bool
	SpinnerFrame int
	StatusMsg    string
	StatusIsErr  bool
}

// NewModel creates a new dashboard model
func NewModel(ctrl Controller, marks MarkToggler, opener Opener, district string) Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filtrar título ou descrição"

	return Model{
		Ctrl:      ctrl,
		Marks:     marks,
		Opener:    opener,
		SortModal: components.NewSortModal(),
		Picker:    components.NewDistrictPicker(domain.Districts),
		Filter:    filter,
		Help:      help.New(),
		District:  district,
		Loading:   true,
	}
}

// Init initializes the dashboard
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		StartCmd(m.Ctrl),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Summary.SetWidth(msg.Width)
		m.Help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case ViewMsg:
		m.applyView(msg.View)
		return m, nil

	case InsightsMsg:
		m.Summary.SetInsights(msg.Stats)
		return m, nil

	case RefreshDoneMsg:
		m.Loading = false
		if msg.Err != nil {
			return m, m.setStatus("Falha ao carregar: "+msg.Err.Error(), true)
		}
		return m, nil

	case ErrMsg:
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Text, false)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(4 * time.Second)
}

// applyView swaps in a new view, keeping the selected listing when it
// survives the recompute.
func (m *Model) applyView(v domain.DerivedView) {
	selected := ""
	if l, ok := m.Selected(); ok {
		selected = l.URL
	}

	m.Derived = v
	m.HasView = true
	m.Summary.SetView(v)

	if selected != "" {
		for i, l := range v.Visible {
			if l.URL == selected {
				m.Cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

// Selected returns the listing under the cursor
func (m Model) Selected() (domain.Listing, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Derived.Visible) {
		return domain.Listing{}, false
	}
	return m.Derived.Visible[m.Cursor], true
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help swallows the next key
	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	if m.SortModal.IsVisible() {
		_, field := m.SortModal.HandleKey(msg.String())
		if field != domain.SortNone {
			return m, SortCmd(m.Ctrl, field)
		}
		return m, nil
	}

	if m.Picker.IsVisible() {
		_, district, cmd := m.Picker.HandleKey(msg)
		if district != "" {
			m.District = district
			m.Loading = true
			return m, ChangeDistrictCmd(m.Ctrl, district)
		}
		return m, cmd
	}

	if m.Filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, Keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, Keys.Home):
		m.moveCursor(-len(m.Derived.Visible))
	case key.Matches(msg, Keys.End):
		m.moveCursor(len(m.Derived.Visible))

	case key.Matches(msg, Keys.Love):
		return m, m.toggleSelected(domain.MarkLoved)
	case key.Matches(msg, Keys.Discard):
		return m, m.toggleSelected(domain.MarkDiscarded)

	case key.Matches(msg, Keys.HideDiscarded):
		return m, SetHideDiscardedCmd(m.Ctrl, !m.Derived.State.HideDiscarded)
	case key.Matches(msg, Keys.OnlyLoved):
		return m, SetOnlyLovedCmd(m.Ctrl, !m.Derived.State.OnlyLoved)

	case key.Matches(msg, Keys.Sort):
		dir := m.Derived.State.SortDir
		if dir == 0 {
			dir = domain.Asc
		}
		m.SortModal.Show(m.Derived.State.SortField, dir)

	case key.Matches(msg, Keys.Filter):
		m.Filtering = true
		m.Filter.SetValue(m.Derived.State.Query)
		return m, m.Filter.Focus()

	case key.Matches(msg, Keys.Summary):
		m.ShowSummary = !m.ShowSummary

	case key.Matches(msg, Keys.District):
		return m, m.Picker.Show()

	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, RefreshCmd(m.Ctrl)

	case key.Matches(msg, Keys.Open):
		if l, ok := m.Selected(); ok && m.Opener != nil {
			return m, OpenCmd(m.Opener, l.URL)
		}

	case key.Matches(msg, Keys.Escape):
		if m.Derived.State.Query != "" {
			return m, SearchCmd(m.Ctrl, "")
		}
	}

	return m, nil
}

// handleFilterKey applies the filter live on every keystroke
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Filtering = false
		m.Filter.Blur()
		m.Filter.SetValue("")
		return m, SearchCmd(m.Ctrl, "")
	case "enter":
		m.Filtering = false
		m.Filter.Blur()
		return m, nil
	}

	prev := m.Filter.Value()
	var cmd tea.Cmd
	m.Filter, cmd = m.Filter.Update(msg)
	if m.Filter.Value() != prev {
		return m, tea.Batch(cmd, SearchCmd(m.Ctrl, m.Filter.Value()))
	}
	return m, cmd
}

func (m *Model) toggleSelected(mark domain.Mark) tea.Cmd {
	l, ok := m.Selected()
	if !ok || m.Marks == nil {
		return nil
	}
	return ToggleMarkCmd(m.Marks, l.URL, mark)
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.Derived.Visible)
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}

	page := m.pageSize()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+page {
		m.Offset = m.Cursor - page + 1
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func (m Model) pageSize() int {
	h := m.Height - ChromeHeight
	if m.Filtering {
		h--
	}
	if h < 1 {
		return 1
	}
	return h
}

// View renders the dashboard
func (m Model) View() string {
	if !m.Ready {
		return "A carregar..."
	}

	if m.ShowHelp {
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			styles.ModalStyle.Render(m.Help.FullHelpView(Keys.FullHelp())))
	}

	var content string
	if m.ShowSummary {
		content = lipgloss.NewStyle().
			Height(m.Height - ChromeHeight + 1).
			Render(m.Summary.View())
	} else {
		content = m.renderTable()
	}

	parts := []string{m.renderHeader(), content}
	if m.Filtering {
		parts = append(parts, m.Filter.View())
	}
	parts = append(parts, m.renderFooter())
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.SortModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.SortModal.View())
	}

	if m.Picker.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Picker.View())
	}

	return view
}

// renderHeader shows district, counts and active toggles
func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("imo") + " " + styles.AccentStyle.Render(m.District)

	var badges []string
	if m.HasView {
		badges = append(badges, styles.DimStyle.Render(
			fmt.Sprintf("%d de %d anúncios", m.Derived.VisibleCount(), m.Derived.Total)))
	}
	if m.Derived.State.OnlyLoved {
		badges = append(badges, styles.BadgeStyle.Render(styles.LovedChar+" só favoritos"))
	} else if m.Derived.State.HideDiscarded {
		badges = append(badges, styles.DimBadgeStyle.Render("sem descartados"))
	}
	if m.Derived.State.Query != "" {
		badges = append(badges, styles.DimBadgeStyle.Render("/"+m.Derived.State.Query))
	}

	return title + "  " + strings.Join(badges, " ")
}

func (m Model) titleWidth() int {
	w := m.Width - (markWidth + sourceWidth + priceWidth + areaWidth + eurM2Width + 6)
	if w < minTitle {
		w = minTitle
	}
	return w
}

func (m Model) renderTable() string {
	height := m.pageSize()
	tw := m.titleWidth()

	lines := []string{styles.SubtitleStyle.Render(m.columnHeader(tw))}

	if m.HasView && len(m.Derived.Visible) == 0 {
		lines = append(lines, styles.DimStyle.Render("Nenhum anúncio corresponde aos filtros"))
	}

	end := m.Offset + height
	if end > len(m.Derived.Visible) {
		end = len(m.Derived.Visible)
	}
	for i := m.Offset; i < end; i++ {
		l := m.Derived.Visible[i]
		lines = append(lines, m.renderRow(l, tw, i == m.Cursor))
	}

	return lipgloss.NewStyle().Height(height + 1).Render(strings.Join(lines, "\n"))
}

func (m Model) columnHeader(tw int) string {
	label := func(f domain.SortField, s string) string {
		if m.Derived.State.SortField == f {
			if m.Derived.State.SortDir == domain.Desc {
				return s + "↓"
			}
			return s + "↑"
		}
		return s
	}
	return strings.Join([]string{
		styles.Pad("", markWidth),
		styles.Pad(label(domain.SortSource, "Fonte"), sourceWidth),
		styles.Pad(label(domain.SortTitle, "Título"), tw),
		padLeft(label(domain.SortPriceEUR, "Preço"), priceWidth),
		padLeft(label(domain.SortAreaM2, "m²"), areaWidth),
		padLeft(label(domain.SortEurM2, "€/m²"), eurM2Width),
	}, " ")
}

func (m Model) renderRow(l domain.Listing, tw int, selected bool) string {
	mark := m.Derived.Marks.Get(l.URL)
	text := strings.Join([]string{
		styles.Pad(l.Source, sourceWidth),
		styles.Pad(l.Title, tw),
		padLeft(stats.Money(l.PriceEUR), priceWidth),
		padLeft(stats.Number(l.AreaM2), areaWidth),
		padLeft(stats.Money(l.EurM2), eurM2Width),
	}, " ")

	switch {
	case selected:
		text = styles.SelectedLineStyle.Render(text)
	case mark == domain.MarkDiscarded:
		text = styles.DimStyle.Render(text)
	default:
		text = styles.NormalLineStyle.Render(text)
	}
	return styles.RenderMark(mark) + " " + text
}

// renderFooter renders a single-line footer: status left, help right
func (m Model) renderFooter() string {
	var left string
	if m.Loading {
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("A carregar...")
	} else if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	right := styles.HelpKeyStyle.Render("?") + styles.HelpDescStyle.Render(" ajuda")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// RenderSpinner renders one spinner frame
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

func padLeft(s string, width int) string {
	s = styles.Truncate(s, width)
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap) + s
}
