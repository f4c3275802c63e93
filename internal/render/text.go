// Package render prints derived views as plain text, for pipes and
// terminals where the dashboard cannot run.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/stats"
)

// Glyphs shown in the mark column
const (
	LovedGlyph     = "♥"
	DiscardedGlyph = "✗"
)

type column struct {
	title string
	width int
	right bool
}

var columns = []column{
	{title: "", width: 1},
	{title: "Fonte", width: 10},
	{title: "Título", width: 40},
	{title: "Preço", width: 12, right: true},
	{title: "Área", width: 8, right: true},
	{title: "€/m²", width: 9, right: true},
	{title: "URL", width: 0},
}

// Text writes a table of visible listings followed by bucket summaries.
// It implements domain.Renderer and domain.InsightsRenderer.
type Text struct {
	mu       sync.Mutex
	w        io.Writer
	Summary  bool // print bucket summaries after the table
	ShowURLs bool
}

// NewText creates a text sink writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w, Summary: true, ShowURLs: true}
}

// Render writes the view.
func (t *Text) Render(v domain.DerivedView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString(row(headers(), t.ShowURLs))
	for _, l := range v.Visible {
		b.WriteString(row(cells(l, v.Marks.Get(l.URL)), t.ShowURLs))
	}
	fmt.Fprintf(&b, "\n%d of %d listings\n", v.VisibleCount(), v.Total)

	if t.Summary {
		writeBucket(&b, "Arrendamento", v.Rent)
		writeBucket(&b, "Compra", v.Buy)
	}
	io.WriteString(t.w, b.String())
}

// RenderInsights writes the yield table.
func (t *Text) RenderInsights(st domain.AggregateStats) {
	if len(st.Yields) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString("\nRentabilidade bruta\n")
	for _, y := range st.Yields {
		yield, rent, buy := y.Yield, y.RentM2, y.BuyM2
		fmt.Fprintf(&b, "  %s %s  arrendamento %s €/m²  compra %s €/m²\n",
			Fit(y.District, 18, false), Fit(stats.Percent(&yield), 7, true),
			stats.Number(&rent), stats.Number(&buy))
	}
	io.WriteString(t.w, b.String())
}

func writeBucket(b *strings.Builder, title string, bk domain.Bucket) {
	if bk.Empty() {
		return
	}
	fmt.Fprintf(b, "\n%s: %d anúncios, mediana %s €/m²\n", title, bk.Count(), stats.Number(bk.MedianEurM2))
	for _, g := range bk.Groups {
		fmt.Fprintf(b, "  %s %4d  mediana %s €/m²\n", Fit(g.Source, 12, false), g.Count, stats.Number(g.MedianEurM2))
	}
	if bk.Trend != nil {
		fmt.Fprintf(b, "  tendência: preço ≈ %s × área + %s (%s–%s m²)\n",
			stats.Number(&bk.Trend.Slope), stats.Number(&bk.Trend.Intercept),
			stats.Number(&bk.Trend.MinX), stats.Number(&bk.Trend.MaxX))
	}
}

func headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.title
	}
	return out
}

func cells(l domain.Listing, mark domain.Mark) []string {
	return []string{
		Glyph(mark),
		l.Source,
		l.Title,
		stats.Money(l.PriceEUR),
		stats.Number(l.AreaM2),
		stats.Number(l.EurM2),
		l.URL,
	}
}

func row(values []string, showURL bool) string {
	parts := make([]string, 0, len(columns))
	for i, c := range columns {
		if c.width == 0 {
			if showURL {
				parts = append(parts, values[i])
			}
			continue
		}
		parts = append(parts, Fit(values[i], c.width, c.right))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ") + "\n"
}

// Glyph returns the mark column symbol.
func Glyph(m domain.Mark) string {
	switch m {
	case domain.MarkLoved:
		return LovedGlyph
	case domain.MarkDiscarded:
		return DiscardedGlyph
	}
	return " "
}

// Fit truncates or pads s to exactly width display cells.
func Fit(s string, width int, right bool) string {
	s = runewidth.Truncate(s, width, "…")
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}
