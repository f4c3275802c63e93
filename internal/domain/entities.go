package domain

import "math"

// Listing is a single property advert returned by the listing service.
// URL is the identity key; no two listings in one result set share it.
type Listing struct {
	URL        string   `json:"url"`
	Source     string   `json:"source"`                // Portal the advert came from ("idealista", "olx", ...)
	Title      string   `json:"title"`                 // Advert headline
	PriceEUR   *float64 `json:"price_eur"`             // Asking price (monthly rent or purchase price)
	AreaM2     *float64 `json:"area_m2"`               // Floor area
	EurM2      *float64 `json:"eur_m2"`                // Price per square metre
	Snippet    string   `json:"snippet"`               // Free-text excerpt
	District   string   `json:"district,omitempty"`    // Optional, only some backends send it
	Typology   string   `json:"typology,omitempty"`    // T0, T1, T2+1, ...
	SearchType string   `json:"search_type,omitempty"` // rent or buy
}

// HasPrice reports whether the listing carries a usable price.
func (l Listing) HasPrice() bool { return present(l.PriceEUR) }

// HasArea reports whether the listing carries a usable area.
func (l Listing) HasArea() bool { return present(l.AreaM2) }

// HasEurM2 reports whether the listing carries a usable price per m².
func (l Listing) HasEurM2() bool { return present(l.EurM2) }

// Price returns the price or 0 when missing. Check HasPrice first.
func (l Listing) Price() float64 { return value(l.PriceEUR) }

// Area returns the area or 0 when missing. Check HasArea first.
func (l Listing) Area() float64 { return value(l.AreaM2) }

// PricePerM2 returns eur/m² or 0 when missing. Check HasEurM2 first.
func (l Listing) PricePerM2() float64 { return value(l.EurM2) }

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func value(v *float64) float64 {
	if !present(v) {
		return 0
	}
	return *v
}

// Float returns a pointer to v. Handy for building listings in code and tests.
func Float(v float64) *float64 { return &v }

// ResultStats is the summary block the listing service sends with each result set.
type ResultStats struct {
	Count       int            `json:"count"`
	BySource    map[string]int `json:"by_source,omitempty"`
	MedianEurM2 *float64       `json:"median_eur_m2,omitempty"`
}

// RawResultSet is the complete, unfiltered response of one listing query.
// It is replaced wholesale by every successful fetch.
type RawResultSet struct {
	Results []Listing   `json:"results"`
	Stats   ResultStats `json:"stats"`
}

// Len returns the number of listings in the set (0 for a nil set).
func (r *RawResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Results)
}

// Yield is the gross rental yield estimate for one district.
type Yield struct {
	District string  `json:"district"`
	Yield    float64 `json:"yield"`
	RentM2   float64 `json:"rent_m2"`
	BuyM2    float64 `json:"buy_m2"`
}

// AggregateStats is the response of the statistics service. Sinks only.
type AggregateStats struct {
	Yields []Yield `json:"yields"`
}
