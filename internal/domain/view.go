package domain

// SortField names a sortable listing column.
type SortField string

const (
	SortNone     SortField = ""
	SortSource   SortField = "source"
	SortTitle    SortField = "title"
	SortURL      SortField = "url"
	SortSnippet  SortField = "snippet"
	SortPriceEUR SortField = "price_eur"
	SortAreaM2   SortField = "area_m2"
	SortEurM2    SortField = "eur_m2"
)

// SortFields lists every sortable column in table order.
var SortFields = []SortField{SortSource, SortTitle, SortPriceEUR, SortAreaM2, SortEurM2, SortURL, SortSnippet}

// Numeric reports whether the field holds a nullable number.
func (f SortField) Numeric() bool {
	return f == SortPriceEUR || f == SortAreaM2 || f == SortEurM2
}

// Valid reports whether f is a known sortable field.
func (f SortField) Valid() bool {
	switch f {
	case SortSource, SortTitle, SortURL, SortSnippet, SortPriceEUR, SortAreaM2, SortEurM2:
		return true
	}
	return false
}

// SortDirection multiplies the comparison of present values.
type SortDirection int

const (
	Asc  SortDirection = 1
	Desc SortDirection = -1
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Desc {
		return Asc
	}
	return Desc
}

func (d SortDirection) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Preferences are the persisted view toggles. The durable form uses 0/1
// integers so it stays readable by older dashboards.
type Preferences struct {
	HideDiscarded int `json:"hide_discarded"`
	OnlyLoved     int `json:"only_loved"`
}

// ViewState is the user-controlled input to the view pipeline.
type ViewState struct {
	HideDiscarded bool
	OnlyLoved     bool
	SortField     SortField
	SortDir       SortDirection
	Query         string
}

// Preferences returns the persisted subset of the state.
func (s ViewState) Preferences() Preferences {
	return Preferences{HideDiscarded: btoi(s.HideDiscarded), OnlyLoved: btoi(s.OnlyLoved)}
}

// ApplyPreferences copies persisted toggles into the state.
func (s *ViewState) ApplyPreferences(p Preferences) {
	s.HideDiscarded = p.HideDiscarded != 0
	s.OnlyLoved = p.OnlyLoved != 0
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
