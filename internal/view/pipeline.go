// Package view turns a raw result set, the user's marks and the view state
// into the table rows and chart summaries the sinks display.
package view

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/stats"
)

// DefaultRentThreshold separates monthly rents from sale prices, in EUR.
const DefaultRentThreshold = 10000

const (
	BucketRent = "rent"
	BucketBuy  = "buy"
)

// Options tunes the pipeline.
type Options struct {
	// RentThreshold: prices strictly below go to the rent bucket
	RentThreshold float64
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{RentThreshold: DefaultRentThreshold}
}

// Compute runs sort, filter, segment, group and regression over raw. It is
// pure: raw and marks are never modified.
func Compute(raw *domain.RawResultSet, marks domain.Marks, state domain.ViewState, opts Options) domain.DerivedView {
	if opts.RentThreshold <= 0 {
		opts.RentThreshold = DefaultRentThreshold
	}

	var results []domain.Listing
	if raw != nil {
		results = raw.Results
	}

	sorted := Sort(results, state.SortField, state.SortDir)
	visible := Filter(sorted, marks, state)

	rent, buy := Segment(visible, opts.RentThreshold)

	groups := GroupBySource(visible)
	medians := make(map[string]*float64, len(groups))
	for _, g := range groups {
		medians[g.Source] = g.MedianEurM2
	}

	return domain.DerivedView{
		Visible:         visible,
		GroupedBySource: groups,
		MedianBySource:  medians,
		Rent:            Summarize(BucketRent, rent),
		Buy:             Summarize(BucketBuy, buy),
		Total:           len(results),
		Marks:           marks.Clone(),
		State:           state,
	}
}

// Filter applies the mark toggles, then the free-text query. only_loved
// takes precedence over hide_discarded. The result is a new slice.
func Filter(listings []domain.Listing, marks domain.Marks, state domain.ViewState) []domain.Listing {
	query := strings.TrimSpace(state.Query)
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		mark := marks.Get(l.URL)
		switch {
		case state.OnlyLoved:
			if mark != domain.MarkLoved {
				continue
			}
		case state.HideDiscarded:
			if mark == domain.MarkDiscarded {
				continue
			}
		}
		if query != "" && !matches(query, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matches(query string, l domain.Listing) bool {
	return fuzzy.MatchNormalizedFold(query, l.Title) || fuzzy.MatchNormalizedFold(query, l.Snippet)
}

// Segment splits priced listings at threshold. Listings without a price
// land in neither bucket.
func Segment(listings []domain.Listing, threshold float64) (rent, buy []domain.Listing) {
	for _, l := range listings {
		if !l.HasPrice() {
			continue
		}
		if l.Price() < threshold {
			rent = append(rent, l)
		} else {
			buy = append(buy, l)
		}
	}
	return rent, buy
}

// GroupBySource groups listings by source in order of first appearance.
func GroupBySource(listings []domain.Listing) []domain.GroupSummary {
	index := make(map[string]int)
	var groups []domain.GroupSummary
	for _, l := range listings {
		i, ok := index[l.Source]
		if !ok {
			i = len(groups)
			index[l.Source] = i
			groups = append(groups, domain.GroupSummary{Source: l.Source})
		}
		groups[i].Listings = append(groups[i].Listings, l)
	}
	for i := range groups {
		groups[i].Count = len(groups[i].Listings)
		groups[i].MedianEurM2 = stats.MedianPtr(eurM2Values(groups[i].Listings))
	}
	return groups
}

// Summarize builds the per-source groups, median, scatter points and trend
// line of one bucket.
func Summarize(name string, listings []domain.Listing) domain.Bucket {
	b := domain.Bucket{
		Name:        name,
		Listings:    listings,
		Groups:      GroupBySource(listings),
		MedianEurM2: stats.MedianPtr(eurM2Values(listings)),
	}

	var pts []stats.Point
	for _, l := range listings {
		if !l.HasArea() || !l.HasPrice() {
			continue
		}
		pts = append(pts, stats.Point{X: l.Area(), Y: l.Price()})
		b.Points = append(b.Points, domain.Point{X: l.Area(), Y: l.Price()})
	}

	if line, ok := stats.LinearRegression(pts); ok {
		xs := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = p.X
		}
		b.Trend = &domain.Trend{
			Slope:     line.Slope,
			Intercept: line.Intercept,
			MinX:      slices.Min(xs),
			MaxX:      slices.Max(xs),
		}
	}
	return b
}

func eurM2Values(listings []domain.Listing) []float64 {
	var vals []float64
	for _, l := range listings {
		if l.HasEurM2() {
			vals = append(vals, l.PricePerM2())
		}
	}
	return vals
}
