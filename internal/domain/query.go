package domain

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Districts are the mainland districts the listing service accepts.
var Districts = []string{
	"Aveiro", "Beja", "Braga", "Bragança", "Castelo Branco", "Coimbra", "Évora",
	"Faro", "Guarda", "Leiria", "Lisboa", "Portalegre", "Porto", "Santarém",
	"Setúbal", "Viana do Castelo", "Vila Real", "Viseu",
}

// Sources are the portals the listing service can aggregate.
var Sources = []string{"idealista", "imovirtual", "supercasa", "casasapo", "remax", "olx"}

// Server-side sort hints.
const (
	SortHintEurM2Asc  = "eur_m2_asc"
	SortHintEurM2Desc = "eur_m2_desc"
	SortHintPriceAsc  = "price_asc"
	SortHintPriceDesc = "price_desc"
)

// SearchType selects rentals or sales.
type SearchType string

const (
	SearchRent SearchType = "rent"
	SearchBuy  SearchType = "buy"
)

// ListingQuery is the parameter set sent to the listing service.
// Zero values are omitted from the request.
type ListingQuery struct {
	District         string     `mapstructure:"district"`
	Pages            int        `mapstructure:"pages"`
	Limit            int        `mapstructure:"limit"`
	Sort             string     `mapstructure:"sort"`
	Typology         string     `mapstructure:"typology"`
	SearchType       SearchType `mapstructure:"search_type"`
	Sources          []string   `mapstructure:"sources"`
	MinPrice         *float64   `mapstructure:"min_price"`
	MaxPrice         *float64   `mapstructure:"max_price"`
	MinArea          *float64   `mapstructure:"min_area"`
	MaxArea          *float64   `mapstructure:"max_area"`
	OnlyWithEurM2    bool       `mapstructure:"only_with_eurm2"`
	ExcludeTemporary bool       `mapstructure:"exclude_temporary"`
}

// DefaultQuery mirrors the listing service defaults.
func DefaultQuery() ListingQuery {
	return ListingQuery{
		District:         "Leiria",
		Pages:            2,
		Limit:            200,
		Sort:             SortHintEurM2Asc,
		Typology:         "T2",
		ExcludeTemporary: true,
	}
}

// Values encodes the query. Empty values are dropped and list values repeat
// their key.
func (q ListingQuery) Values() url.Values {
	v := url.Values{}
	setStr := func(k, s string) {
		if s = strings.TrimSpace(s); s != "" {
			v.Set(k, s)
		}
	}
	setNum := func(k string, f *float64) {
		if present(f) {
			v.Set(k, strconv.FormatFloat(*f, 'f', -1, 64))
		}
	}

	setStr("district", q.District)
	if q.Pages > 0 {
		v.Set("pages", strconv.Itoa(q.Pages))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	setStr("sort", q.Sort)
	if q.Typology != "" {
		v.Set("typology", NormalizeTypology(q.Typology))
	}
	setStr("search_type", string(q.SearchType))
	for _, s := range q.Sources {
		if s = strings.TrimSpace(s); s != "" {
			v.Add("sources", s)
		}
	}
	setNum("min_price", q.MinPrice)
	setNum("max_price", q.MaxPrice)
	setNum("min_area", q.MinArea)
	setNum("max_area", q.MaxArea)
	v.Set("only_with_eurm2", flag(q.OnlyWithEurM2))
	v.Set("exclude_temporary", flag(q.ExcludeTemporary))
	return v
}

// Clone returns a copy that shares no slices or pointers with q.
func (q ListingQuery) Clone() ListingQuery {
	out := q
	out.Sources = slices.Clone(q.Sources)
	out.MinPrice = clonePtr(q.MinPrice)
	out.MaxPrice = clonePtr(q.MaxPrice)
	out.MinArea = clonePtr(q.MinArea)
	out.MaxArea = clonePtr(q.MaxArea)
	return out
}

// NormalizeTypology upper-cases a typology and strips spaces. "2" becomes
// "T2", the wildcards "*", "ALL" and "T*" become "T*", empty becomes "T2".
func NormalizeTypology(t string) string {
	t = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(t)), " ", "")
	switch t {
	case "":
		return "T2"
	case "*", "ALL", "T*":
		return "T*"
	}
	if !strings.HasPrefix(t, "T") {
		t = "T" + t
	}
	return t
}

// IsDistrict reports whether name is one of Districts.
func IsDistrict(name string) bool {
	return slices.Contains(Districts, name)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
