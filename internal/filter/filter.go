package filter

import (
	"net/url"
	"strconv"

	"github.com/resourcemart/storefront/internal/models"
)

// PriceCeiling bounds the price interval a filter may carry.
const PriceCeiling = 1000

// RatingCeiling bounds the rating floor a filter may carry.
const RatingCeiling = 5

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filters is the composed catalog filter. Nil pointer / empty fields mean
// "not constrained". The zero Filters value is the valid "show everything"
// state; whether filters were ever set at all is tracked by the catalog
// store, not here.
type Filters struct {
	Category string                `json:"category,omitempty"`
	Types    []models.ResourceType `json:"types,omitempty"`
	Price    *PriceRange           `json:"price,omitempty"`
	Rating   *float64              `json:"rating,omitempty"`
	SortBy   models.SortKey        `json:"sort_by,omitempty"`
}

// Update is a tri-state patch field: untouched, set to a value, or cleared.
type Update[T any] struct {
	set   bool
	clear bool
	value T
}

func Set[T any](v T) Update[T] { return Update[T]{set: true, value: v} }
func Clear[T any]() Update[T]  { return Update[T]{clear: true} }

// Patch is a partial filter change. Zero-valued fields leave the prior
// value untouched; Clear removes the constraint entirely.
type Patch struct {
	Category Update[string]
	Types    Update[[]models.ResourceType]
	Price    Update[PriceRange]
	Rating   Update[float64]
	SortBy   Update[models.SortKey]
}

// Apply merges p into f and returns the result. Pure: neither input is
// mutated, slices are copied.
func (p Patch) Apply(f Filters) Filters {
	out := f
	if f.Types != nil {
		out.Types = append([]models.ResourceType(nil), f.Types...)
	}
	if f.Price != nil {
		pr := *f.Price
		out.Price = &pr
	}
	if f.Rating != nil {
		r := *f.Rating
		out.Rating = &r
	}

	switch {
	case p.Category.set:
		out.Category = p.Category.value
	case p.Category.clear:
		out.Category = ""
	}
	switch {
	case p.Types.set:
		out.Types = append([]models.ResourceType(nil), p.Types.value...)
	case p.Types.clear:
		out.Types = nil
	}
	switch {
	case p.Price.set:
		pr := p.Price.value
		out.Price = &pr
	case p.Price.clear:
		out.Price = nil
	}
	switch {
	case p.Rating.set:
		r := p.Rating.value
		out.Rating = &r
	case p.Rating.clear:
		out.Rating = nil
	}
	switch {
	case p.SortBy.set:
		out.SortBy = p.SortBy.value
	case p.SortBy.clear:
		out.SortBy = ""
	}
	return out
}

// IsZero reports whether no constraint is active.
func (f Filters) IsZero() bool {
	return f.Category == "" && f.Types == nil && f.Price == nil &&
		f.Rating == nil && f.SortBy == ""
}

// Normalize clamps numeric constraints into their valid domains. Callers
// must normalize before issuing a remote query; Apply itself does not
// validate.
func (f Filters) Normalize() Filters {
	out := f
	if f.Price != nil {
		pr := *f.Price
		pr.Min = clamp(pr.Min, 0, PriceCeiling)
		pr.Max = clamp(pr.Max, 0, PriceCeiling)
		if pr.Min > pr.Max {
			pr.Min = pr.Max
		}
		out.Price = &pr
	}
	if f.Rating != nil {
		r := clamp(*f.Rating, 0, RatingCeiling)
		out.Rating = &r
	}
	return out
}

// QueryParams encodes the filter as remote-query parameters.
func (f Filters) QueryParams() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	for _, t := range f.Types {
		v.Add("type", string(t))
	}
	if f.Price != nil {
		v.Set("price_min", strconv.FormatFloat(f.Price.Min, 'f', -1, 64))
		v.Set("price_max", strconv.FormatFloat(f.Price.Max, 'f', -1, 64))
	}
	if f.Rating != nil {
		v.Set("rating", strconv.FormatFloat(*f.Rating, 'f', -1, 64))
	}
	if f.SortBy != "" {
		v.Set("sort_by", string(f.SortBy))
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
