package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/pkg/log"
)

// Geolocation modes.
const (
	GeolocationIP     = "ip"
	GeolocationStatic = "static"
	GeolocationOff    = "off"
)

var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required")

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration
	// ProviderRateLimit is requests per second to the provider (0 = unlimited).
	ProviderRateLimit float64

	PreferencesPath string

	GeolocationMode    string
	GeolocationURL     string
	GeolocationStatic  weather.Coordinate
	GeolocationTimeout time.Duration

	DefaultLocation weather.Coordinate

	Port     string
	LogLevel string

	// TracingEnabled writes finished spans to stdout.
	TracingEnabled bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file found or error loading it", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	if cfg.OpenWeatherAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderRateLimit, err = getenvFloat("PROVIDER_RATE_LIMIT", 1); err != nil {
		return nil, err
	}

	cfg.PreferencesPath = getenvDefault("PREFERENCES_PATH", defaultPreferencesPath())

	cfg.GeolocationMode = strings.ToLower(getenvDefault("GEOLOCATION_MODE", GeolocationIP))
	switch cfg.GeolocationMode {
	case GeolocationIP, GeolocationOff:
	case GeolocationStatic:
		coord, err := parseCoordinate(os.Getenv("GEOLOCATION_STATIC"))
		if err != nil {
			return nil, fmt.Errorf("invalid GEOLOCATION_STATIC: %w", err)
		}
		cfg.GeolocationStatic = coord
	default:
		return nil, fmt.Errorf("invalid GEOLOCATION_MODE %q", cfg.GeolocationMode)
	}
	cfg.GeolocationURL = os.Getenv("GEOLOCATION_URL")
	if cfg.GeolocationTimeout, err = getenvDuration("GEOLOCATION_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	lat, err := getenvFloat("DEFAULT_LAT", 28.6139)
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("DEFAULT_LON", 77.2090)
	if err != nil {
		return nil, err
	}
	cfg.DefaultLocation = weather.Coordinate{Lat: lat, Lon: lon}
	if !cfg.DefaultLocation.Valid() {
		return nil, fmt.Errorf("default location %v is out of range", cfg.DefaultLocation)
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	if cfg.TracingEnabled, err = getenvBool("TRACING_ENABLED", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultPreferencesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "preferences.json"
	}
	return filepath.Join(dir, "weathervue", "preferences.json")
}

// parseCoordinate reads "lat,lon".
func parseCoordinate(s string) (weather.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return weather.Coordinate{}, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return weather.Coordinate{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return weather.Coordinate{}, err
	}
	c := weather.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return weather.Coordinate{}, fmt.Errorf("coordinate %q is out of range", s)
	}
	return c, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
