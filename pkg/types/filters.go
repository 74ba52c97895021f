package types

import (
	"encoding/json"
	"errors"
	"slices"
)

const (
	MinPrice  int64 = 0
	MaxPrice  int64 = 10000000
	MaxRating       = 5
)

var ErrInvalidRating = errors.New("rating must be between 0 and 5")

type CategoryRef struct {
	Id   string `json:"id"`
	Slug string `json:"slug"`
}

func (c CategoryRef) IsEmpty() bool {
	return c.Id == "" && c.Slug == ""
}

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: MinPrice, Max: MaxPrice}
}

// Normalize swaps the bounds when they are inverted and clamps negative values to zero.
func (r PriceRange) Normalize() PriceRange {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max < 0 {
		r.Max = 0
	}
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

func (r PriceRange) Contains(price int64) bool {
	return price >= r.Min && price <= r.Max
}

func (r PriceRange) IsDefault() bool {
	return r == DefaultPriceRange()
}

// FilterState is the set of criteria selected for a product listing.
// Rating 0 means no rating filter.
type FilterState struct {
	Cate   CategoryRef `json:"cate"`
	PubIds []string    `json:"pubIds"`
	Value  PriceRange  `json:"value"`
	Types  []string    `json:"types"`
	Rating int         `json:"rating,omitempty"`
	ShopId string      `json:"shopId,omitempty"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		PubIds: []string{},
		Value:  DefaultPriceRange(),
		Types:  []string{},
	}
}

// UnmarshalJSON decodes over the default state, fields left out of the document keep
// their defaults instead of zero values.
func (f *FilterState) UnmarshalJSON(data []byte) error {
	type plain FilterState
	state := plain(DefaultFilterState())
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	*f = FilterState(state)
	return nil
}

func (f FilterState) Clone() FilterState {
	ret := f
	ret.PubIds = cloneNonNil(f.PubIds)
	ret.Types = cloneNonNil(f.Types)
	return ret
}

// Sanitize drops duplicate set members, normalizes the price range and clears an
// out of range rating.
func (f *FilterState) Sanitize() {
	f.PubIds = unique(f.PubIds)
	f.Types = unique(f.Types)
	f.Value = f.Value.Normalize()
	if f.Rating < 0 || f.Rating > MaxRating {
		f.Rating = 0
	}
}

func (f *FilterState) HasPublisher(id string) bool {
	return slices.Contains(f.PubIds, id)
}

func (f *FilterState) HasType(t string) bool {
	return slices.Contains(f.Types, t)
}

func ValidateRating(rating int) error {
	if rating < 0 || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func cloneNonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func unique(s []string) []string {
	ret := make([]string, 0, len(s))
	for _, v := range s {
		if v == "" || slices.Contains(ret, v) {
			continue
		}
		ret = append(ret, v)
	}
	return ret
}
