package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weathervue/internal/dashboard"
	"github.com/i474232898/weathervue/internal/location"
	"github.com/i474232898/weathervue/internal/preferences"
	"github.com/i474232898/weathervue/internal/search"
	"github.com/i474232898/weathervue/internal/store"
	"github.com/i474232898/weathervue/internal/weather"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, coord weather.Coordinate, unit weather.UnitSystem) (weather.Snapshot, error) {
	s := weather.Snapshot{Coordinate: coord, Unit: unit}
	s.Current.Coord = coord
	s.Current.Name = "Paris"
	s.Current.Sys.Country = "FR"
	return s, nil
}

type stubGeocoder struct {
	places []weather.Place
	err    error
}

func (g stubGeocoder) Geocode(context.Context, string, int) ([]weather.Place, error) {
	return g.places, g.err
}

func newTestApp(t *testing.T, geocoder weather.Geocoder) (*fiber.App, *dashboard.Dashboard) {
	t.Helper()

	d := dashboard.New(
		preferences.NewStore(store.NewMemoryStore()),
		stubFetcher{},
		search.NewResolver(geocoder),
		location.NewProvider(nil, time.Second),
		dashboard.Options{},
	)
	t.Cleanup(d.Close)

	app := fiber.New()
	RegisterRoutes(app, d)
	return app, d
}

func do(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, payload)
	}
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// TestLocationValidation verifies that coordinates are required and range checked.
func TestLocationValidation(t *testing.T) {
	app, _ := newTestApp(t, stubGeocoder{})

	cases := []string{
		`{"lon": 2.35}`,
		`{"lat": 91, "lon": 2.35}`,
		`{"lat": 48.85, "lon": -180.5}`,
		`not json`,
	}
	for _, body := range cases {
		resp := do(t, app, http.MethodPut, "/api/v1/location", body)
		expectStatus(t, resp, http.StatusBadRequest)
	}
}

func TestSetLocationStartsFetch(t *testing.T) {
	app, d := newTestApp(t, stubGeocoder{})

	resp := do(t, app, http.MethodPut, "/api/v1/location", `{"lat": 0, "lon": 0}`)
	expectStatus(t, resp, http.StatusAccepted)
	d.Wait()

	resp = do(t, app, http.MethodGet, "/api/v1/dashboard", "")
	expectStatus(t, resp, http.StatusOK)

	var view dashboard.View
	decode(t, resp, &view)
	if view.Location == nil || *view.Location != (weather.Coordinate{}) {
		t.Fatalf("expected location 0,0, got %v", view.Location)
	}
	if view.Weather.Snapshot == nil || view.Weather.Loading {
		t.Fatalf("expected loaded snapshot, got %+v", view.Weather)
	}
	if view.Title != "Paris Weather - 0°C" {
		t.Fatalf("unexpected title %q", view.Title)
	}
}

func TestRetryAndCurrentLocationConflicts(t *testing.T) {
	app, _ := newTestApp(t, stubGeocoder{})

	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/weather/retry", ""), http.StatusConflict)
	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/location/current", ""), http.StatusConflict)
}

func TestSearch(t *testing.T) {
	places := []weather.Place{{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522}}
	app, d := newTestApp(t, stubGeocoder{places: places})

	resp := do(t, app, http.MethodGet, "/api/v1/search?q=%20Paris%20", "")
	expectStatus(t, resp, http.StatusOK)

	var body struct {
		Query   string          `json:"query"`
		Results []weather.Place `json:"results"`
	}
	decode(t, resp, &body)
	if body.Query != "Paris" || len(body.Results) != 1 {
		t.Fatalf("unexpected search response %+v", body)
	}

	// Blank query returns no results without touching the search state.
	resp = do(t, app, http.MethodGet, "/api/v1/search?q=", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &body)
	if len(body.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(body.Results))
	}
	if got := d.View().Search.Query; got != " Paris " {
		t.Fatalf("search state changed to %q", got)
	}

	resp = do(t, app, http.MethodPost, "/api/v1/search/select", `{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}`)
	expectStatus(t, resp, http.StatusAccepted)
	d.Wait()
	if got := d.View().LocationSource; got != dashboard.SourceSearch {
		t.Fatalf("expected search source, got %q", got)
	}

	expectStatus(t, do(t, app, http.MethodDelete, "/api/v1/search", ""), http.StatusNoContent)
	if got := d.View().Search; got.Query != "" || len(got.Results) != 0 {
		t.Fatalf("expected cleared search, got %+v", got)
	}
}

func TestSearchFailure(t *testing.T) {
	app, _ := newTestApp(t, stubGeocoder{err: errors.New("geocoder down")})

	resp := do(t, app, http.MethodGet, "/api/v1/search?q=Paris", "")
	expectStatus(t, resp, http.StatusBadGateway)
	payload, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(payload), dashboard.SearchFailedMessage) {
		t.Fatalf("expected search failure message, got %s", payload)
	}
}

func TestPreferencesToggles(t *testing.T) {
	app, _ := newTestApp(t, stubGeocoder{})

	var prefs preferences.Preferences
	resp := do(t, app, http.MethodPost, "/api/v1/preferences/unit/toggle", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &prefs)
	if prefs.Unit != weather.UnitImperial {
		t.Fatalf("expected imperial, got %q", prefs.Unit)
	}

	resp = do(t, app, http.MethodPost, "/api/v1/preferences/theme/toggle", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &prefs)
	if prefs.Theme != preferences.ThemeDark {
		t.Fatalf("expected dark, got %q", prefs.Theme)
	}

	resp = do(t, app, http.MethodGet, "/api/v1/preferences", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &prefs)
	if prefs.Unit != weather.UnitImperial || prefs.Theme != preferences.ThemeDark {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
}

func TestFavorites(t *testing.T) {
	app, d := newTestApp(t, stubGeocoder{})

	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/favorites", `{"name":"Paris"}`), http.StatusBadRequest)
	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/favorites/toggle", ""), http.StatusConflict)

	var prefs preferences.Preferences
	resp := do(t, app, http.MethodPost, "/api/v1/favorites", `{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}`)
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &prefs)
	if len(prefs.Favorites) != 1 || prefs.Favorites[0].ID == "" {
		t.Fatalf("unexpected favorites %+v", prefs.Favorites)
	}
	id := prefs.Favorites[0].ID

	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/favorites/unknown/select", ""), http.StatusNotFound)
	expectStatus(t, do(t, app, http.MethodPost, "/api/v1/favorites/"+id+"/select", ""), http.StatusAccepted)
	d.Wait()

	// The loaded place is already a favorite, so toggling removes it.
	var toggled struct {
		Added       bool                    `json:"added"`
		Preferences preferences.Preferences `json:"preferences"`
	}
	resp = do(t, app, http.MethodPost, "/api/v1/favorites/toggle", "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &toggled)
	if toggled.Added || len(toggled.Preferences.Favorites) != 0 {
		t.Fatalf("expected favorite removed, got %+v", toggled)
	}

	resp = do(t, app, http.MethodDelete, "/api/v1/favorites/"+id, "")
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &prefs)
	if len(prefs.Favorites) != 0 {
		t.Fatalf("expected no favorites, got %d", len(prefs.Favorites))
	}
}

func TestUtilityRoutes(t *testing.T) {
	app := fiber.New()
	RegisterUtilityRoutes(app)

	expectStatus(t, do(t, app, http.MethodGet, "/health", ""), http.StatusOK)

	resp := do(t, app, http.MethodGet, "/metrics", "")
	expectStatus(t, resp, http.StatusOK)
	payload, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(payload), "go_goroutines") {
		t.Fatalf("expected Go runtime metrics in output")
	}
}
