package weather

import (
	"context"
)

// Provider abstracts the remote weather source (OpenWeatherMap in production).
// Every call for one snapshot uses the same coordinate and unit system.
type Provider interface {
	Name() string
	CurrentConditions(ctx context.Context, coord Coordinate, unit UnitSystem) (CurrentConditions, error)
	Forecast(ctx context.Context, coord Coordinate, unit UnitSystem) (Forecast, error)
	AirQuality(ctx context.Context, coord Coordinate) (AirQuality, error)
	ReverseGeocode(ctx context.Context, coord Coordinate) ([]Place, error)
}

// Geocoder resolves free text to candidate places.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]Place, error)
}

// SnapshotFetcher produces one complete snapshot for a coordinate and unit system.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, coord Coordinate, unit UnitSystem) (Snapshot, error)
}
