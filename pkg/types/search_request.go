package types

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | int64 | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

type filterQuery struct {
	Cate   string   `schema:"cate"`
	Slug   string   `schema:"slug"`
	PubIds []string `schema:"pubId"`
	Types  []string `schema:"type"`
	Rating int      `schema:"rating"`
	Shop   string   `schema:"shop"`
	Value  string   `schema:"value"`
}

// ListingRequest is a filter state together with the page of the listing to return.
type ListingRequest struct {
	Filters FilterState `json:"filters"`
	PageRequest
}

func GetPageRequestFromRequest(r *http.Request) (*PageRequest, error) {
	pr := &PageRequest{}
	err := decoder.Decode(pr, r.URL.Query())
	pr.Sanitize()
	return pr, err
}

func GetListingFromRequest(r *http.Request) (*ListingRequest, error) {
	lr := &ListingRequest{Filters: DefaultFilterState()}
	var err error
	if r.Method == http.MethodGet {
		query := r.URL.Query()
		if err = decoder.Decode(&lr.PageRequest, query); err == nil {
			err = decodeFilterState(query, &lr.Filters)
		}
	} else {
		err = json.NewDecoder(r.Body).Decode(lr)
	}
	lr.Filters.Sanitize()
	lr.PageRequest.Sanitize()
	return lr, err
}

// DecodeFilterState reads a filter state from query values, repeated pubId and type keys
// carry the set members and value carries the price range as "min-max".
func DecodeFilterState(query url.Values) (FilterState, error) {
	state := DefaultFilterState()
	err := decodeFilterState(query, &state)
	state.Sanitize()
	return state, err
}

func decodeFilterState(query url.Values, result *FilterState) error {
	fq := filterQuery{}
	if err := decoder.Decode(&fq, query); err != nil {
		return err
	}
	result.Cate = CategoryRef{Id: strings.TrimSpace(fq.Cate), Slug: strings.TrimSpace(fq.Slug)}
	result.ShopId = strings.TrimSpace(fq.Shop)
	result.Rating = fq.Rating
	if fq.PubIds != nil {
		result.PubIds = splitValues(fq.PubIds)
	}
	if fq.Types != nil {
		result.Types = splitValues(fq.Types)
	}
	if fq.Value != "" {
		var _min, _max int64
		if _, err := fmt.Sscanf(fq.Value, "%d-%d", &_min, &_max); err != nil {
			return fmt.Errorf("invalid price range %q: %w", fq.Value, err)
		}
		result.Value = PriceRange{Min: _min, Max: _max}
	}
	return nil
}

// splitValues accepts both repeated keys and "||" separated values.
func splitValues(values []string) []string {
	ret := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, "||") {
			part = strings.TrimSpace(part)
			if part != "" {
				ret = append(ret, part)
			}
		}
	}
	return ret
}
