package filter

import (
	"fmt"

	"github.com/matst80/slask-storefront/pkg/types"
)

type PricePreset struct {
	Label string           `json:"label"`
	Value types.PriceRange `json:"value"`
}

type CoverType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type RatingOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Options is the fixed set of choices the filter controls render.
type Options struct {
	Prices  []PricePreset  `json:"prices"`
	Types   []CoverType    `json:"types"`
	Ratings []RatingOption `json:"ratings"`
}

func NewOptions() *Options {
	return &Options{
		Prices: []PricePreset{
			{Label: "Dưới 150.000đ", Value: types.PriceRange{Min: 0, Max: 150000}},
			{Label: "150.000đ - 300.000đ", Value: types.PriceRange{Min: 150000, Max: 300000}},
			{Label: "300.000đ - 500.000đ", Value: types.PriceRange{Min: 300000, Max: 500000}},
			{Label: "500.000đ - 700.000đ", Value: types.PriceRange{Min: 500000, Max: 700000}},
			{Label: "Trên 700.000đ", Value: types.PriceRange{Min: 700000, Max: types.MaxPrice}},
		},
		Types: []CoverType{
			{Value: "PAPERBACK", Label: "Bìa mềm"},
			{Value: "HARDCOVER", Label: "Bìa cứng"},
			{Value: "BOXSET", Label: "Boxset"},
			{Value: "OTHER", Label: "Khác"},
		},
		Ratings: ratingOptions(),
	}
}

// ratingOptions lists 5 down to 1, every value but the top one reads "and up".
func ratingOptions() []RatingOption {
	ret := make([]RatingOption, 0, types.MaxRating)
	for i := types.MaxRating; i > 0; i-- {
		label := fmt.Sprintf("%d sao", i)
		if i < types.MaxRating {
			label += " trở lên"
		}
		ret = append(ret, RatingOption{Value: i, Label: label})
	}
	return ret
}

func (o *Options) Preset(idx int) (PricePreset, bool) {
	if idx < 0 || idx >= len(o.Prices) {
		return PricePreset{}, false
	}
	return o.Prices[idx], true
}

// MatchingPreset returns the index of the preset equal to r, or -1.
func (o *Options) MatchingPreset(r types.PriceRange) int {
	for i, p := range o.Prices {
		if p.Value == r {
			return i
		}
	}
	return -1
}

func (o *Options) IsCoverType(v string) bool {
	for _, t := range o.Types {
		if t.Value == v {
			return true
		}
	}
	return false
}
