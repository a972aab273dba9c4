package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

// MaxResults bounds the number of candidates returned for one query.
const MaxResults = 5

// ErrSearchFailed wraps every geocoding failure. An empty result is not an error.
var ErrSearchFailed = errors.New("search failed")

// Resolver performs forward geocoding.
type Resolver struct {
	geocoder weather.Geocoder
}

// NewResolver creates a Resolver over geocoder.
func NewResolver(geocoder weather.Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Search returns at most MaxResults candidates for query, best first. A blank
// query returns nil without contacting the geocoder.
func (r *Resolver) Search(ctx context.Context, query string) ([]weather.Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	places, err := r.geocoder.Geocode(ctx, q, MaxResults)
	if err != nil {
		log.Errorw("error searching city", "query", q, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	if len(places) > MaxResults {
		places = places[:MaxResults]
	}
	if places == nil {
		places = []weather.Place{}
	}
	return places, nil
}

// Blank reports whether query would be short-circuited by Search.
func Blank(query string) bool {
	return strings.TrimSpace(query) == ""
}
