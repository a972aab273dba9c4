package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weathervue/pkg/log"
)

var tracer = otel.Tracer("weathervue/weather")

// FetchFailedMessage is the only failure text shown to users for a weather fetch.
const FetchFailedMessage = "Failed to fetch weather data. Please try again."

var (
	// ErrFetchFailed wraps every failure of a snapshot fetch.
	ErrFetchFailed = errors.New("failed to fetch weather data")

	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidUnit       = errors.New("invalid unit system")
)

// Fetcher issues the four provider calls of a snapshot concurrently and
// exposes either all of their results or a single failure.
type Fetcher struct {
	provider Provider
	now      func() time.Time
}

// NewFetcher creates a new Fetcher.
func NewFetcher(provider Provider) *Fetcher {
	return &Fetcher{
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch runs current conditions, forecast, air quality and reverse geocoding in
// parallel. The first failure cancels the remaining calls and fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, coord Coordinate, unit UnitSystem) (Snapshot, error) {
	if !coord.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, ErrInvalidCoordinate)
	}
	if !unit.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, ErrInvalidUnit)
	}

	ctx, span := tracer.Start(ctx, "weather.Fetch", trace.WithAttributes(
		attribute.String("weather.provider", f.provider.Name()),
		attribute.Float64("weather.lat", coord.Lat),
		attribute.Float64("weather.lon", coord.Lon),
		attribute.String("weather.unit", string(unit)),
	))
	defer span.End()

	log.Debugw("fetching weather snapshot", "provider", f.provider.Name(), "lat", coord.Lat, "lon", coord.Lon, "unit", unit)

	var (
		current  CurrentConditions
		forecast Forecast
		air      AirQuality
		places   []Place
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := f.provider.CurrentConditions(gctx, coord, unit)
		if err != nil {
			return fmt.Errorf("current conditions: %w", err)
		}
		current = r
		return nil
	})

	g.Go(func() error {
		r, err := f.provider.Forecast(gctx, coord, unit)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		forecast = r
		return nil
	})

	g.Go(func() error {
		r, err := f.provider.AirQuality(gctx, coord)
		if err != nil {
			return fmt.Errorf("air quality: %w", err)
		}
		air = r
		return nil
	})

	g.Go(func() error {
		r, err := f.provider.ReverseGeocode(gctx, coord)
		if err != nil {
			return fmt.Errorf("reverse geocode: %w", err)
		}
		places = r
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot fetch failed")
		log.Errorw("weather snapshot fetch failed", "provider", f.provider.Name(), "lat", coord.Lat, "lon", coord.Lon, "error", err)
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	snapshot := Snapshot{
		Coordinate: coord,
		Unit:       unit,
		Current:    current,
		Forecast:   forecast,
		AirQuality: air,
		FetchedAt:  f.now(),
		Hourly:     Hourly(forecast, HourlyEntries),
		Daily:      DailySummaries(forecast, ForecastDays),
	}
	// Only the best match is kept.
	if len(places) > 0 {
		p := places[0]
		snapshot.Place = &p
	}

	return snapshot, nil
}
