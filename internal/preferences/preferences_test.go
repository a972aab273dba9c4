package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/weathervue/internal/store"
	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

func city(i int) FavoriteCity {
	return FavoriteCity{
		ID:         fmt.Sprintf("city-%d", i),
		Name:       fmt.Sprintf("City %d", i),
		Country:    "IN",
		Coordinate: weather.Coordinate{Lat: float64(i), Lon: float64(i)},
	}
}

func ids(p Preferences) []string {
	out := make([]string, 0, len(p.Favorites))
	for _, f := range p.Favorites {
		out = append(out, f.ID)
	}
	return out
}

func TestLoadDefaultsWhenNothingStored(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	require.Equal(t, Default(), s.Load())
}

func TestLoadDefaultsOnMalformedRecord(t *testing.T) {
	tests := map[string]string{
		"not json":      "{oops",
		"blank":         "   ",
		"bad unit":      `{"unit":"kelvin","theme":"light","favorites":[]}`,
		"bad theme":     `{"unit":"metric","theme":"blue","favorites":[]}`,
		"favorite id":   `{"unit":"metric","theme":"light","favorites":[{"name":"x","lat":1,"lon":1}]}`,
		"wrong type":    `{"unit":"metric","theme":"light","favorites":"none"}`,
		"out of bounds": `{"unit":"metric","theme":"light","favorites":[{"id":"a","lat":100,"lon":1}]}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			kv := store.NewMemoryStore()
			require.NoError(t, kv.Set(StorageKey, raw))

			got := NewStore(kv).Load()
			require.Equal(t, Default(), got)
		})
	}
}

func TestLoadWarnsOnMalformedRecord(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	orig := log.Logger
	log.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { log.Logger = orig })

	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(StorageKey, "{oops"))
	require.Equal(t, Default(), NewStore(kv).Load())

	entries := logs.FilterMessage("stored user preferences are malformed; using defaults").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestLoadNormalizesFavorites(t *testing.T) {
	p := Default()
	for i := 0; i < MaxFavorites+3; i++ {
		p.Favorites = append(p.Favorites, city(i))
	}
	p.Favorites = append([]FavoriteCity{city(0)}, p.Favorites...)
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(StorageKey, string(raw)))

	got := NewStore(kv).Load()
	require.Len(t, got.Favorites, MaxFavorites)
	require.Equal(t, "city-0", got.Favorites[0].ID)
	require.Equal(t, "city-1", got.Favorites[1].ID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	p := Preferences{Unit: weather.UnitImperial, Theme: ThemeDark, Favorites: []FavoriteCity{city(1)}}

	s.Save(p)
	require.Equal(t, p, s.Load())
}

func TestFavoriteJSONShape(t *testing.T) {
	raw, err := json.Marshal(city(7))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"city-7","name":"City 7","country":"IN","lat":7,"lon":7}`, string(raw))
}

func TestAddFavoriteBoundedNewestFirst(t *testing.T) {
	s := NewStore(store.NewMemoryStore())

	for i := 0; i < MaxFavorites+2; i++ {
		s.AddFavorite(city(i))
	}

	got := s.Load()
	require.Len(t, got.Favorites, MaxFavorites)
	require.Equal(t, "city-11", got.Favorites[0].ID)
	require.Equal(t, "city-2", got.Favorites[MaxFavorites-1].ID)
	require.NotContains(t, ids(got), "city-0")
	require.NotContains(t, ids(got), "city-1")
}

func TestAddFavoriteDuplicateIsNoop(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	s.AddFavorite(city(1))
	s.AddFavorite(city(2))

	before := s.Load()
	dup := city(1)
	dup.Name = "Renamed"
	after := s.AddFavorite(dup)

	require.Equal(t, before, after)
	require.Equal(t, []string{"city-2", "city-1"}, ids(after))
	require.Equal(t, "City 1", after.Favorites[1].Name)
}

func TestAddFavoriteGeneratesID(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	got := s.AddFavorite(FavoriteCity{Name: "Paris", Coordinate: weather.Coordinate{Lat: 48.85, Lon: 2.35}})
	require.Len(t, got.Favorites, 1)
	require.NotEmpty(t, got.Favorites[0].ID)

	f, ok := got.FindFavorite(weather.Coordinate{Lat: 48.85, Lon: 2.35})
	require.True(t, ok)
	require.Equal(t, "Paris", f.Name)
	_, ok = got.FindFavorite(weather.Coordinate{Lat: 48.85, Lon: 2.351})
	require.False(t, ok)
}

func TestRemoveFavoriteIdempotent(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	for i := 1; i <= 3; i++ {
		s.AddFavorite(city(i))
	}

	once := s.RemoveFavorite("city-2")
	twice := s.RemoveFavorite("city-2")
	require.Equal(t, once, twice)
	require.Equal(t, []string{"city-3", "city-1"}, ids(twice))

	unknown := s.RemoveFavorite("nope")
	require.Equal(t, once, unknown)
}

func TestTogglesAreInvolutions(t *testing.T) {
	s := NewStore(store.NewMemoryStore())
	start := s.Load()

	p := s.ToggleUnit()
	require.Equal(t, weather.UnitImperial, p.Unit)
	p = s.ToggleUnit()
	require.Equal(t, start, p)

	p = s.ToggleTheme()
	require.Equal(t, ThemeDark, p.Theme)
	p = s.ToggleTheme()
	require.Equal(t, start, p)
}

type failingStorage struct {
	sets int
}

func (f *failingStorage) Get(string) (string, error) { return "", errors.New("storage unavailable") }

func (f *failingStorage) Set(string, string) error {
	f.sets++
	return errors.New("quota exceeded")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	fs := &failingStorage{}
	s := NewStore(fs)

	require.Equal(t, Default(), s.Load())

	var p Preferences
	require.NotPanics(t, func() { p = s.ToggleTheme() })
	require.Equal(t, ThemeDark, p.Theme)
	require.Equal(t, 1, fs.sets)

	// The write was lost, so the next read falls back to defaults again.
	require.Equal(t, Default(), s.Load())
}

func TestCloneIsIndependent(t *testing.T) {
	p := Default()
	p.Favorites = append(p.Favorites, city(1))

	c := p.Clone()
	c.Favorites[0].Name = "changed"
	require.Equal(t, "City 1", p.Favorites[0].Name)
}
