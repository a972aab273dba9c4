package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weathervue/internal/weather"
)

const (
	defaultOpenWeatherBaseURL = "https://api.openweathermap.org"

	currentPath    = "/data/2.5/weather"
	forecastPath   = "/data/2.5/forecast"
	airPath        = "/data/2.5/air_pollution"
	directGeoPath  = "/geo/1.0/direct"
	reverseGeoPath = "/geo/1.0/reverse"
)

// OpenWeatherOptions tunes the provider. Zero values select defaults.
type OpenWeatherOptions struct {
	BaseURL string
	// RateLimit is the sustained number of requests per second; <= 0 disables limiting.
	RateLimit float64
	Burst     int
}

// OpenWeatherProvider implements weather.Provider and weather.Geocoder for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts OpenWeatherOptions) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A cancelled or expired caller context says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || callerGaveUp(err)
		},
	})

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenWeatherBaseURL
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			// One snapshot issues four calls at once.
			burst = 4
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Limiter: limiter,
		},
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) CurrentConditions(ctx context.Context, coord weather.Coordinate, unit weather.UnitSystem) (weather.CurrentConditions, error) {
	var payload weather.CurrentConditions
	if err := p.get(ctx, currentPath, coordValues(coord, unit), &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, coord weather.Coordinate, unit weather.UnitSystem) (weather.Forecast, error) {
	var payload weather.Forecast
	if err := p.get(ctx, forecastPath, coordValues(coord, unit), &payload); err != nil {
		return weather.Forecast{}, err
	}
	return payload, nil
}

// AirQuality has no unit parameter; the index is always on the 1-5 scale.
func (p *OpenWeatherProvider) AirQuality(ctx context.Context, coord weather.Coordinate) (weather.AirQuality, error) {
	var payload weather.AirQuality
	if err := p.get(ctx, airPath, coordValues(coord, ""), &payload); err != nil {
		return weather.AirQuality{}, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) ReverseGeocode(ctx context.Context, coord weather.Coordinate) ([]weather.Place, error) {
	values := coordValues(coord, "")
	values.Set("limit", "1")

	var payload []weather.Place
	if err := p.get(ctx, reverseGeoPath, values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) Geocode(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	values := url.Values{}
	values.Set("q", query)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var payload []weather.Place
	if err := p.get(ctx, directGeoPath, values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	started := time.Now()
	err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest, out)
	observeRequest(p.name, path, started, err)
	if err != nil {
		return fmt.Errorf("openweather %s: %w", path, err)
	}
	return nil
}

func coordValues(coord weather.Coordinate, unit weather.UnitSystem) url.Values {
	values := url.Values{}
	values.Set("lat", formatCoord(coord.Lat))
	values.Set("lon", formatCoord(coord.Lon))
	if unit != "" {
		values.Set("units", string(unit))
	}
	return values
}

var (
	_ weather.Provider = (*OpenWeatherProvider)(nil)
	_ weather.Geocoder = (*OpenWeatherProvider)(nil)
)
