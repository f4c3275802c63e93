package domain

// Point is one (area, price) sample for the scatter chart.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trend is a fitted price ~ area line and the x range it was fitted on.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	MinX      float64 `json:"min_x"`
	MaxX      float64 `json:"max_x"`
}

// At evaluates the trend line at x.
func (t Trend) At(x float64) float64 { return t.Slope*x + t.Intercept }

// GroupSummary aggregates the listings of one source.
type GroupSummary struct {
	Source      string
	Count       int
	MedianEurM2 *float64
	Listings    []Listing
}

// Bucket is one price segment (rent or buy) of the visible listings.
type Bucket struct {
	Name        string
	Listings    []Listing
	Groups      []GroupSummary
	MedianEurM2 *float64
	Points      []Point
	Trend       *Trend
}

// Empty reports whether the bucket has nothing to show.
func (b Bucket) Empty() bool { return len(b.Listings) == 0 }

// Count returns the number of listings in the bucket.
func (b Bucket) Count() int { return len(b.Listings) }

// DerivedView is the output of one pipeline run.
type DerivedView struct {
	Visible         []Listing
	GroupedBySource []GroupSummary
	MedianBySource  map[string]*float64
	Rent            Bucket
	Buy             Bucket
	Total           int
	Marks           Marks
	State           ViewState
}

// VisibleCount returns len(Visible).
func (v DerivedView) VisibleCount() int { return len(v.Visible) }
