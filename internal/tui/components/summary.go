package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/stats"
	"github.com/mmcdole/imo/internal/tui/styles"
)

// Summary renders the rent/buy bucket panels and the yield table
type Summary struct {
	view     domain.DerivedView
	insights *domain.AggregateStats
	width    int
}

// SetView replaces the view being summarized
func (s *Summary) SetView(v domain.DerivedView) { s.view = v }

// SetInsights replaces the yield table
func (s *Summary) SetInsights(st domain.AggregateStats) { s.insights = &st }

// SetWidth sets the total width available
func (s *Summary) SetWidth(w int) { s.width = w }

// View renders the non-empty buckets side by side, then insights.
func (s Summary) View() string {
	var panels []string
	for _, b := range []struct {
		title  string
		bucket domain.Bucket
	}{
		{"Arrendamento", s.view.Rent},
		{"Compra", s.view.Buy},
	} {
		if b.bucket.Empty() {
			continue
		}
		panels = append(panels, s.bucketPanel(b.title, b.bucket))
	}
	if s.insights != nil && len(s.insights.Yields) > 0 {
		panels = append(panels, s.insightsPanel())
	}
	if len(panels) == 0 {
		return styles.DimStyle.Render("sem dados para resumir")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (s Summary) panelWidth() int {
	w := s.width/3 - 2
	if w < 28 {
		w = 28
	}
	return w
}

func (s Summary) bucketPanel(title string, b domain.Bucket) string {
	w := s.panelWidth() - 4
	lines := []string{
		styles.PanelTitleStyle.Render(title),
		fmt.Sprintf("%d anúncios · mediana %s €/m²", b.Count(), stats.Number(b.MedianEurM2)),
		"",
	}
	for _, g := range b.Groups {
		lines = append(lines, fmt.Sprintf("%s %3d  %s",
			styles.Pad(g.Source, w-16), g.Count, styles.Pad(stats.Number(g.MedianEurM2), 10)))
	}
	if b.Trend != nil {
		lo, hi := b.Trend.At(b.Trend.MinX), b.Trend.At(b.Trend.MaxX)
		lines = append(lines, "",
			styles.SubtitleStyle.Render(fmt.Sprintf("tendência %s €/m² marginal", stats.Number(&b.Trend.Slope))),
			styles.DimStyle.Render(fmt.Sprintf("%s m² → %s", stats.Number(&b.Trend.MinX), stats.Money(&lo))),
			styles.DimStyle.Render(fmt.Sprintf("%s m² → %s", stats.Number(&b.Trend.MaxX), stats.Money(&hi))),
		)
	}
	return styles.PanelStyle.Width(s.panelWidth()).Render(strings.Join(lines, "\n"))
}

func (s Summary) insightsPanel() string {
	w := s.panelWidth() - 4
	lines := []string{styles.PanelTitleStyle.Render("Rentabilidade bruta"), ""}
	for _, y := range s.insights.Yields {
		yield := y.Yield
		lines = append(lines, fmt.Sprintf("%s %s", styles.Pad(y.District, w-9), stats.Percent(&yield)))
	}
	return styles.PanelStyle.Width(s.panelWidth()).Render(strings.Join(lines, "\n"))
}
