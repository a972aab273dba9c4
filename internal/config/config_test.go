package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/weathervue/internal/weather"
)

var envKeys = []string{
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "HTTP_TIMEOUT", "PROVIDER_RATE_LIMIT",
	"PREFERENCES_PATH", "GEOLOCATION_MODE", "GEOLOCATION_URL", "GEOLOCATION_STATIC",
	"GEOLOCATION_TIMEOUT", "DEFAULT_LAT", "DEFAULT_LON", "PORT", "LOG_LEVEL",
	"TRACING_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", " key ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "key", cfg.OpenWeatherAPIKey)
	require.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 1.0, cfg.ProviderRateLimit)
	require.Equal(t, GeolocationIP, cfg.GeolocationMode)
	require.Equal(t, 5*time.Second, cfg.GeolocationTimeout)
	require.Equal(t, weather.Coordinate{Lat: 28.6139, Lon: 77.2090}, cfg.DefaultLocation)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.TracingEnabled)
	require.NotEmpty(t, cfg.PreferencesPath)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "key")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("PROVIDER_RATE_LIMIT", "0")
	t.Setenv("PREFERENCES_PATH", "/tmp/prefs.json")
	t.Setenv("GEOLOCATION_MODE", "Static")
	t.Setenv("GEOLOCATION_STATIC", "48.8566, 2.3522")
	t.Setenv("GEOLOCATION_TIMEOUT", "250ms")
	t.Setenv("DEFAULT_LAT", "51.5074")
	t.Setenv("DEFAULT_LON", "-0.1278")
	t.Setenv("PORT", "9090")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.ProviderRateLimit)
	require.Equal(t, "/tmp/prefs.json", cfg.PreferencesPath)
	require.Equal(t, GeolocationStatic, cfg.GeolocationMode)
	require.Equal(t, weather.Coordinate{Lat: 48.8566, Lon: 2.3522}, cfg.GeolocationStatic)
	require.Equal(t, 250*time.Millisecond, cfg.GeolocationTimeout)
	require.Equal(t, weather.Coordinate{Lat: 51.5074, Lon: -0.1278}, cfg.DefaultLocation)
	require.Equal(t, "9090", cfg.Port)
	require.True(t, cfg.TracingEnabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"timeout":         {"HTTP_TIMEOUT": "soon"},
		"rate":            {"PROVIDER_RATE_LIMIT": "fast"},
		"mode":            {"GEOLOCATION_MODE": "gps"},
		"static":          {"GEOLOCATION_MODE": "static", "GEOLOCATION_STATIC": "48.8"},
		"static range":    {"GEOLOCATION_MODE": "static", "GEOLOCATION_STATIC": "100,0"},
		"default lat":     {"DEFAULT_LAT": "north"},
		"default range":   {"DEFAULT_LON": "200"},
		"geo timeout fmt": {"GEOLOCATION_TIMEOUT": "5"},
		"tracing":         {"TRACING_ENABLED": "maybe"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OPENWEATHER_API_KEY", "key")
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}
