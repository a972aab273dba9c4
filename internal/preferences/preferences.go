package preferences

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/i474232898/weathervue/internal/store"
	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

const (
	// StorageKey is the single key the preferences record is stored under.
	StorageKey = "weather-app-preferences"

	// MaxFavorites bounds the favorites list; the oldest entry is evicted on overflow.
	MaxFavorites = 10
)

var validate = validator.New()

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// FavoriteCity is a saved location. ID is unique within one Preferences.
type FavoriteCity struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	Country string `json:"country"`
	weather.Coordinate
}

// NewFavorite builds a FavoriteCity with a freshly generated ID.
func NewFavorite(name, country string, coord weather.Coordinate) FavoriteCity {
	return FavoriteCity{
		ID:         uuid.NewString(),
		Name:       name,
		Country:    country,
		Coordinate: coord,
	}
}

// Preferences is the persisted user record. Favorites are newest first.
type Preferences struct {
	Unit      weather.UnitSystem `json:"unit" validate:"oneof=metric imperial"`
	Theme     Theme              `json:"theme" validate:"oneof=light dark"`
	Favorites []FavoriteCity     `json:"favorites" validate:"dive"`
}

// Default returns the record used when nothing valid is stored.
func Default() Preferences {
	return Preferences{
		Unit:      weather.UnitMetric,
		Theme:     ThemeLight,
		Favorites: []FavoriteCity{},
	}
}

// Clone returns a copy that shares no memory with p.
func (p Preferences) Clone() Preferences {
	out := p
	out.Favorites = make([]FavoriteCity, len(p.Favorites))
	copy(out.Favorites, p.Favorites)
	return out
}

// FindFavorite returns the favorite located exactly at coord.
func (p Preferences) FindFavorite(coord weather.Coordinate) (FavoriteCity, bool) {
	for _, f := range p.Favorites {
		if f.Coordinate == coord {
			return f, true
		}
	}
	return FavoriteCity{}, false
}

// Storage is the key-value backend, e.g. store.MemoryStore or store.FileStore.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Store reads and writes the preferences record. Storage failures are logged
// and never returned: reads fall back to Default and writes are dropped.
type Store struct {
	mu      sync.Mutex
	storage Storage
}

// NewStore creates a Store over storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load returns the stored record, or Default when it is missing, unreadable or malformed.
func (s *Store) Load() Preferences {
	raw, err := s.storage.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Errorw("error getting user preferences", "error", err)
		}
		return Default()
	}
	if strings.TrimSpace(raw) == "" {
		return Default()
	}

	prefs, err := decode(raw)
	if err != nil {
		log.Warnw("stored user preferences are malformed; using defaults", "error", err)
		return Default()
	}
	return prefs
}

func decode(raw string) (Preferences, error) {
	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return Preferences{}, err
	}
	if err := validate.Struct(prefs); err != nil {
		return Preferences{}, err
	}

	// Normalize: unique IDs, bounded length, never nil.
	favorites := NewDeque[FavoriteCity](MaxFavorites)
	seen := make(map[string]struct{}, len(prefs.Favorites))
	for _, f := range prefs.Favorites {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		if !favorites.PushBack(f) {
			break
		}
	}
	prefs.Favorites = favorites.Slice()

	return prefs, nil
}

// Save persists prefs. Errors are logged, not returned.
func (s *Store) Save(prefs Preferences) {
	if prefs.Favorites == nil {
		prefs.Favorites = []FavoriteCity{}
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		log.Errorw("error encoding user preferences", "error", err)
		return
	}
	if err := s.storage.Set(StorageKey, string(raw)); err != nil {
		log.Errorw("error saving user preferences", "error", err)
	}
}

// update runs fn on the current record and persists it when fn reports a change.
func (s *Store) update(fn func(*Preferences) bool) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.Load()
	if fn(&prefs) {
		s.Save(prefs)
	}
	return prefs
}

// AddFavorite prepends city unless a favorite with the same ID exists. A full
// list loses its oldest entry. A missing ID is generated.
func (s *Store) AddFavorite(city FavoriteCity) Preferences {
	if city.ID == "" {
		city.ID = uuid.NewString()
	}

	return s.update(func(p *Preferences) bool {
		favorites := dequeOf(p.Favorites)
		if favorites.IndexFunc(func(f FavoriteCity) bool { return f.ID == city.ID }) >= 0 {
			return false
		}

		if evicted, ok := favorites.PushFront(city); ok {
			log.Debugw("evicted oldest favorite", "id", evicted.ID, "name", evicted.Name)
		}
		p.Favorites = favorites.Slice()
		return true
	})
}

func dequeOf(favorites []FavoriteCity) *Deque[FavoriteCity] {
	d := NewDeque[FavoriteCity](MaxFavorites)
	for _, f := range favorites {
		if !d.PushBack(f) {
			break
		}
	}
	return d
}

// RemoveFavorite drops every favorite with id. Unknown ids are ignored.
func (s *Store) RemoveFavorite(id string) Preferences {
	return s.update(func(p *Preferences) bool {
		favorites := dequeOf(p.Favorites)
		favorites.RemoveFunc(func(f FavoriteCity) bool { return f.ID == id })
		p.Favorites = favorites.Slice()
		return true
	})
}

// ToggleUnit flips between metric and imperial.
func (s *Store) ToggleUnit() Preferences {
	return s.update(func(p *Preferences) bool {
		p.Unit = p.Unit.Toggle()
		return true
	})
}

// ToggleTheme flips between light and dark.
func (s *Store) ToggleTheme() Preferences {
	return s.update(func(p *Preferences) bool {
		p.Theme = p.Theme.Toggle()
		return true
	})
}
