package view

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmcdole/imo/internal/domain"
)

// Sort returns a stably sorted copy of listings. Missing values (nil or
// non-finite numbers, empty strings) always go last; dir only orders the
// present values. SortNone returns the input order.
func Sort(listings []domain.Listing, field domain.SortField, dir domain.SortDirection) []domain.Listing {
	out := slices.Clone(listings)
	if !field.Valid() {
		return out
	}
	if dir != domain.Desc {
		dir = domain.Asc
	}

	if field.Numeric() {
		slices.SortStableFunc(out, func(a, b domain.Listing) int {
			return compareMissingLast(numberOf(a, field), numberOf(b, field), dir, cmp.Compare[float64])
		})
		return out
	}

	// A Collator is not safe for concurrent use
	col := collate.New(language.Portuguese)
	slices.SortStableFunc(out, func(a, b domain.Listing) int {
		return compareMissingLast(textOf(a, field), textOf(b, field), dir, col.CompareString)
	})
	return out
}

func compareMissingLast[T any](a, b *T, dir domain.SortDirection, compare func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return int(dir) * compare(*a, *b)
}

func numberOf(l domain.Listing, field domain.SortField) *float64 {
	var ok bool
	var v float64
	switch field {
	case domain.SortPriceEUR:
		ok, v = l.HasPrice(), l.Price()
	case domain.SortAreaM2:
		ok, v = l.HasArea(), l.Area()
	case domain.SortEurM2:
		ok, v = l.HasEurM2(), l.PricePerM2()
	}
	if !ok {
		return nil
	}
	return &v
}

func textOf(l domain.Listing, field domain.SortField) *string {
	var s string
	switch field {
	case domain.SortSource:
		s = l.Source
	case domain.SortTitle:
		s = l.Title
	case domain.SortURL:
		s = l.URL
	case domain.SortSnippet:
		s = l.Snippet
	}
	if s == "" {
		return nil
	}
	return &s
}
