package dashboard

import (
	"context"

	"github.com/i474232898/weathervue/internal/search"
	"github.com/i474232898/weathervue/internal/weather"
)

// SearchState is kept apart from the weather state: a failed search never
// touches the weather view, and a failed fetch never touches the search view.
type SearchState struct {
	Query   string          `json:"query"`
	Loading bool            `json:"loading"`
	Results []weather.Place `json:"results"`
	// Error is set only when the lookup failed; no matches leaves it empty.
	Error string `json:"error,omitempty"`
}

// SearchFailedMessage is shown next to the search input.
const SearchFailedMessage = "Failed to search for city. Please try again."

func (s SearchState) clone() SearchState {
	out := s
	if s.Results != nil {
		out.Results = make([]weather.Place, len(s.Results))
		copy(out.Results, s.Results)
	}
	return out
}

// Search looks up query and records the outcome in the search state. A blank
// query returns immediately without any state change. Only the most recent
// search is applied to the state.
func (d *Dashboard) Search(ctx context.Context, query string) ([]weather.Place, error) {
	if search.Blank(query) {
		return nil, nil
	}

	d.mu.Lock()
	d.searchGen++
	gen := d.searchGen
	d.search = SearchState{Query: query, Loading: true}
	d.publishLocked()
	d.mu.Unlock()

	results, err := d.resolver.Search(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.searchGen {
		return results, err
	}

	next := SearchState{Query: query, Results: results}
	if err != nil {
		next.Results = nil
		next.Error = SearchFailedMessage
	}
	d.search = next
	d.publishLocked()

	return results, err
}

// ClearSearch resets the query and hides the results.
func (d *Dashboard) ClearSearch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.searchGen++
	d.search = SearchState{}
	d.publishLocked()
}
