package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/weathervue/internal/location"
	"github.com/i474232898/weathervue/internal/preferences"
	"github.com/i474232898/weathervue/internal/search"
	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

// DefaultLocation is used when geolocation does not produce a position (New Delhi).
var DefaultLocation = weather.Coordinate{Lat: 28.6139, Lon: 77.2090}

var (
	ErrNoLocation        = errors.New("no location selected")
	ErrNoGeolocation     = errors.New("current location is not available")
	ErrNoSnapshot        = errors.New("no weather data loaded")
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrClosed            = errors.New("dashboard closed")
)

// Source tells where the current location came from.
type Source string

const (
	SourceDefault     Source = "default"
	SourceGeolocation Source = "geolocation"
	SourceUser        Source = "user"
	SourceSearch      Source = "search"
	SourceFavorite    Source = "favorite"
)

// Options configures a Dashboard.
type Options struct {
	// DefaultLocation overrides the package default when valid and non-zero.
	DefaultLocation weather.Coordinate
}

// Dashboard owns all dashboard state: preferences, the current location, the
// weather fetch state and the search state. Every user event goes through one
// of its methods; observers receive immutable Views through Subscribe.
type Dashboard struct {
	prefs           *preferences.Store
	resolver        *search.Resolver
	locator         *location.Provider
	tracker         *weather.Tracker
	defaultLocation weather.Coordinate

	// opMu serializes events that change preferences or the location, so the
	// fetch started last always matches the latest (location, unit) pair.
	opMu sync.Mutex

	mu          sync.Mutex
	preferences preferences.Preferences
	location    *weather.Coordinate
	source      Source
	geo         location.Result
	weather     weather.State
	search      SearchState
	searchGen   uint64
	subs        map[int]chan View
	nextSub     int
	closed      bool
}

// New creates a Dashboard. Preferences are loaded once here.
func New(
	prefs *preferences.Store,
	fetcher weather.SnapshotFetcher,
	resolver *search.Resolver,
	locator *location.Provider,
	opts Options,
) *Dashboard {
	def := DefaultLocation
	if opts.DefaultLocation != (weather.Coordinate{}) && opts.DefaultLocation.Valid() {
		def = opts.DefaultLocation
	}

	d := &Dashboard{
		prefs:           prefs,
		resolver:        resolver,
		locator:         locator,
		defaultLocation: def,
		preferences:     prefs.Load(),
		geo:             location.Result{State: location.StatePending},
		subs:            make(map[int]chan View),
	}
	d.tracker = weather.NewTracker(fetcher, d.onWeather)
	return d
}

// Start activates geolocation once and waits for it to settle. A resolved
// position becomes the current location; otherwise the default location is
// used. A location chosen by the user in the meantime is kept. Start returns
// ErrClosed when Close ran while geolocation was pending.
func (d *Dashboard) Start(ctx context.Context) error {
	activation := d.locator.Activate(ctx)
	res, err := activation.Wait(ctx)
	if err != nil {
		return err
	}
	// The activation may settle as canceled together with ctx.
	if err := ctx.Err(); err != nil {
		return err
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.geo = res
	if d.location != nil {
		d.publishLocked()
		d.mu.Unlock()
		log.Infow("keeping user selected location", "geolocation", res.State)
		return nil
	}
	d.mu.Unlock()

	if res.Resolved() {
		d.changeLocation(res.Coordinate, SourceGeolocation, false)
		return nil
	}

	log.Infow("geolocation unavailable; using default location", "reason", res.Reason, "lat", d.defaultLocation.Lat, "lon", d.defaultLocation.Lon)
	d.changeLocation(d.defaultLocation, SourceDefault, false)
	return nil
}

// changeLocation must be called with opMu held. A fetch starts unless the same
// (location, unit) is already loaded or loading, or force is set.
func (d *Dashboard) changeLocation(coord weather.Coordinate, src Source, force bool) {
	d.mu.Lock()
	unit := d.preferences.Unit
	same := d.location != nil && *d.location == coord &&
		d.weather.Generation > 0 && d.weather.Coordinate == coord &&
		d.weather.Unit == unit && d.weather.Err == nil
	c := coord
	d.location = &c
	d.source = src
	if same && !force {
		d.publishLocked()
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.tracker.Start(coord, unit)
}

// onWeather runs for every tracker state, in order.
func (d *Dashboard) onWeather(s weather.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.weather = s
	d.publishLocked()
}

// SetLocation makes coord the current location, e.g. after a map click.
func (d *Dashboard) SetLocation(coord weather.Coordinate) error {
	if !coord.Valid() {
		return ErrInvalidCoordinate
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.changeLocation(coord, SourceUser, false)
	return nil
}

// UseCurrentLocation switches back to the geolocation result.
func (d *Dashboard) UseCurrentLocation() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	geo := d.geo
	d.mu.Unlock()

	if !geo.Resolved() {
		return ErrNoGeolocation
	}
	d.changeLocation(geo.Coordinate, SourceGeolocation, false)
	return nil
}

// Retry fetches the current location again. It is only ever user initiated.
func (d *Dashboard) Retry() error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	loc, src := d.location, d.source
	d.mu.Unlock()

	if loc == nil {
		return ErrNoLocation
	}
	d.changeLocation(*loc, src, true)
	return nil
}

// SelectPlace makes a search result the current location and closes the results list.
func (d *Dashboard) SelectPlace(place weather.Place) error {
	coord := place.Coordinate()
	if !coord.Valid() {
		return ErrInvalidCoordinate
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	d.searchGen++
	d.search = SearchState{Query: place.Label()}
	d.mu.Unlock()

	d.changeLocation(coord, SourceSearch, false)
	return nil
}

// SelectFavorite makes a saved favorite the current location.
func (d *Dashboard) SelectFavorite(id string) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	var (
		fav   preferences.FavoriteCity
		found bool
	)
	for _, f := range d.preferences.Favorites {
		if f.ID == id {
			fav, found = f, true
			break
		}
	}
	d.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrFavoriteNotFound, id)
	}
	d.changeLocation(fav.Coordinate, SourceFavorite, false)
	return nil
}

// ToggleUnit flips the unit system and refetches the current location with it.
func (d *Dashboard) ToggleUnit() preferences.Preferences {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	prefs := d.prefs.ToggleUnit()

	d.mu.Lock()
	d.preferences = prefs
	loc, src := d.location, d.source
	if loc == nil {
		d.publishLocked()
	}
	d.mu.Unlock()

	if loc != nil {
		d.changeLocation(*loc, src, false)
	}
	return prefs.Clone()
}

// ToggleTheme flips between light and dark.
func (d *Dashboard) ToggleTheme() preferences.Preferences {
	return d.updatePreferences(d.prefs.ToggleTheme)
}

// AddFavorite saves city as the newest favorite.
func (d *Dashboard) AddFavorite(city preferences.FavoriteCity) preferences.Preferences {
	return d.updatePreferences(func() preferences.Preferences {
		return d.prefs.AddFavorite(city)
	})
}

// RemoveFavorite deletes the favorite with id, if any.
func (d *Dashboard) RemoveFavorite(id string) preferences.Preferences {
	return d.updatePreferences(func() preferences.Preferences {
		return d.prefs.RemoveFavorite(id)
	})
}

// ToggleFavorite adds the currently displayed place to the favorites, or
// removes it when a favorite already sits at exactly the same coordinate.
func (d *Dashboard) ToggleFavorite() (preferences.Preferences, bool, error) {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	d.mu.Lock()
	snapshot := d.weather.Snapshot
	current := d.preferences
	d.mu.Unlock()

	if snapshot == nil {
		return current.Clone(), false, ErrNoSnapshot
	}

	coord := snapshot.Current.Coord
	var (
		prefs preferences.Preferences
		added bool
	)
	if fav, ok := current.FindFavorite(coord); ok {
		prefs = d.prefs.RemoveFavorite(fav.ID)
	} else {
		prefs = d.prefs.AddFavorite(preferences.NewFavorite(snapshot.Current.Name, snapshot.Current.Sys.Country, coord))
		added = true
	}

	d.mu.Lock()
	d.preferences = prefs
	d.publishLocked()
	d.mu.Unlock()

	return prefs.Clone(), added, nil
}

func (d *Dashboard) updatePreferences(fn func() preferences.Preferences) preferences.Preferences {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	prefs := fn()

	d.mu.Lock()
	d.preferences = prefs
	d.publishLocked()
	d.mu.Unlock()

	return prefs.Clone()
}

// Preferences returns a copy of the current preferences.
func (d *Dashboard) Preferences() preferences.Preferences {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.preferences.Clone()
}

// WeatherState returns the latest fetch state.
func (d *Dashboard) WeatherState() weather.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weather
}

// Wait blocks until every started fetch has settled. Intended for tests and shutdown.
func (d *Dashboard) Wait() {
	d.tracker.Wait()
}

// Close cancels the in-flight fetch and closes every subscription.
func (d *Dashboard) Close() {
	d.tracker.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for id, ch := range d.subs {
		close(ch)
		delete(d.subs, id)
	}
}
