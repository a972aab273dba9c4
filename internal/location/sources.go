package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/i474232898/weathervue/internal/weather"
)

const defaultIPLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// StaticSource always reports the same position, e.g. a configured device location.
type StaticSource struct {
	Coordinate weather.Coordinate
}

func (s StaticSource) Position(ctx context.Context) (weather.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}
	return s.Coordinate, nil
}

// IPSource approximates the position from the public IP address.
type IPSource struct {
	url        string
	httpClient *http.Client
}

// NewIPSource builds an IP geolocation source. An empty url selects ip-api.com.
func NewIPSource(url string, client *http.Client) *IPSource {
	u := strings.TrimSpace(url)
	if u == "" {
		u = defaultIPLookupURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &IPSource{url: u, httpClient: client}
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (s *IPSource) Position(ctx context.Context) (weather.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("build ip lookup request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return weather.Coordinate{}, ErrPermissionDenied
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return weather.Coordinate{}, fmt.Errorf("%w: status=%d body=%s", ErrPositionUnavailable, resp.StatusCode, string(payload))
	}

	var raw ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return weather.Coordinate{}, fmt.Errorf("decode ip lookup response: %w", err)
	}
	if raw.Status != "" && raw.Status != "success" {
		return weather.Coordinate{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, raw.Message)
	}

	return weather.Coordinate{Lat: raw.Lat, Lon: raw.Lon}, nil
}
