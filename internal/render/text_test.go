package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/view"
)

var f = domain.Float

func TestFit(t *testing.T) {
	assert.Equal(t, "abc  ", Fit("abc", 5, false))
	assert.Equal(t, "  abc", Fit("abc", 5, true))
	assert.Equal(t, 5, runewidth.StringWidth(Fit("Apartamento T2", 5, false)))
	assert.Equal(t, 6, runewidth.StringWidth(Fit("日本語テキスト", 6, false)))
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, LovedGlyph, Glyph(domain.MarkLoved))
	assert.Equal(t, DiscardedGlyph, Glyph(domain.MarkDiscarded))
	assert.Equal(t, " ", Glyph(domain.MarkNone))
}

func TestRenderTable(t *testing.T) {
	raw := &domain.RawResultSet{Results: []domain.Listing{
		{URL: "https://x/1", Source: "olx", Title: "T2 Centro", PriceEUR: f(850), AreaM2: f(70), EurM2: f(12.5)},
		{URL: "https://x/2", Source: "idealista", Title: "Sem preço"},
	}}
	v := view.Compute(raw, domain.Marks{"https://x/1": domain.MarkLoved}, domain.ViewState{}, view.DefaultOptions())

	var buf bytes.Buffer
	NewText(&buf).Render(v)
	out := buf.String()

	assert.Contains(t, out, "T2 Centro")
	assert.Contains(t, out, "850 €")
	assert.Contains(t, out, "12,5")
	assert.Contains(t, out, "—", "missing numbers render as placeholder")
	assert.Contains(t, out, LovedGlyph)
	assert.Contains(t, out, "2 of 2 listings")
	assert.Contains(t, out, "Arrendamento: 1 anúncios")
	assert.NotContains(t, out, "Compra:", "empty bucket is hidden")
	assert.NotContains(t, out, "NaN")
}

func TestRenderWithoutURLs(t *testing.T) {
	raw := &domain.RawResultSet{Results: []domain.Listing{{URL: "https://hidden", Source: "olx", Title: "x"}}}
	v := view.Compute(raw, nil, domain.ViewState{}, view.DefaultOptions())

	var buf bytes.Buffer
	sink := NewText(&buf)
	sink.ShowURLs = false
	sink.Summary = false
	sink.Render(v)

	assert.NotContains(t, buf.String(), "https://hidden")
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, line, strings.TrimRight(line, " "))
	}
}

func TestRenderInsights(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).RenderInsights(domain.AggregateStats{Yields: []domain.Yield{
		{District: "Leiria", Yield: 0.052, RentM2: 10.5, BuyM2: 2400},
	}})
	assert.Contains(t, buf.String(), "Leiria")
	assert.Contains(t, buf.String(), "5,2 %")

	buf.Reset()
	NewText(&buf).RenderInsights(domain.AggregateStats{})
	assert.Empty(t, buf.String())
}
