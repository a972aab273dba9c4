package weather

import (
	"math"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// ConditionFromCode maps an OpenWeatherMap condition id to a Condition.
// See https://openweathermap.org/weather-conditions for the code ranges.
func ConditionFromCode(id int) Condition {
	switch {
	case id >= 200 && id < 300:
		return ConditionStorm
	case (id >= 300 && id < 400) || (id >= 500 && id < 600):
		return ConditionRain
	case id >= 600 && id < 700:
		return ConditionSnow
	case id >= 700 && id < 800:
		return ConditionMist
	case id == 800:
		return ConditionClear
	case id > 800 && id < 900:
		return ConditionCloudy
	default:
		return ConditionUnknown
	}
}

// UnitSystem selects the measurement system sent to the provider.
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// Valid reports whether u is one of the known unit systems.
func (u UnitSystem) Valid() bool {
	return u == UnitMetric || u == UnitImperial
}

// Toggle returns the other unit system.
func (u UnitSystem) Toggle() UnitSystem {
	if u == UnitMetric {
		return UnitImperial
	}
	return UnitMetric
}

// Coordinate is a WGS84 position. Two coordinates are the same place only when
// both fields are exactly equal.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Valid reports whether both fields are finite and inside their ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Description is one entry of the provider's "weather" array.
type Description struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Readings holds the "main" block shared by current conditions and forecast entries.
type Readings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

type Clouds struct {
	All int `json:"all"`
}

// CurrentConditions mirrors the provider's current weather payload.
type CurrentConditions struct {
	Coord      Coordinate    `json:"coord"`
	Weather    []Description `json:"weather"`
	Main       Readings      `json:"main"`
	Visibility int           `json:"visibility"`
	Wind       Wind          `json:"wind"`
	Clouds     Clouds        `json:"clouds"`
	Dt         int64         `json:"dt"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

// Condition returns the normalized condition of the first weather entry.
func (c CurrentConditions) Condition() Condition {
	if len(c.Weather) == 0 {
		return ConditionUnknown
	}
	return ConditionFromCode(c.Weather[0].ID)
}

// IsDaytime reports whether the observation time lies between sunrise and sunset.
func (c CurrentConditions) IsDaytime() bool {
	return IsDaytime(c.Dt, c.Sys.Sunrise, c.Sys.Sunset)
}

// ForecastEntry is one 3-hour step of the forecast series.
type ForecastEntry struct {
	Dt      int64         `json:"dt"`
	Main    Readings      `json:"main"`
	Weather []Description `json:"weather"`
	Wind    Wind          `json:"wind"`
	Clouds  Clouds        `json:"clouds"`
	Pop     float64       `json:"pop"`
	DtTxt   string        `json:"dt_txt"`
}

// Time returns the entry's timestamp in UTC.
func (e ForecastEntry) Time() time.Time {
	return time.Unix(e.Dt, 0).UTC()
}

// Forecast mirrors the provider's 5-day/3-hour forecast payload.
type Forecast struct {
	List []ForecastEntry `json:"list"`
	City struct {
		Name     string     `json:"name"`
		Country  string     `json:"country"`
		Coord    Coordinate `json:"coord"`
		Timezone int        `json:"timezone"`
		Sunrise  int64      `json:"sunrise"`
		Sunset   int64      `json:"sunset"`
	} `json:"city"`
}

// AirQualityEntry is one air-pollution sample. AQI is on the provider's 1-5 scale.
type AirQualityEntry struct {
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components map[string]float64 `json:"components"`
	Dt         int64              `json:"dt"`
}

// AirQuality mirrors the provider's air pollution payload.
type AirQuality struct {
	Coord Coordinate        `json:"coord"`
	List  []AirQualityEntry `json:"list"`
}

// Index returns the AQI of the first sample, or 0 when there is none.
func (a AirQuality) Index() int {
	if len(a.List) == 0 {
		return 0
	}
	return a.List[0].Main.AQI
}

// Place is a geocoding result.
type Place struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"local_names,omitempty"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Country    string            `json:"country"`
	State      string            `json:"state,omitempty"`
}

// Coordinate returns the place position.
func (p Place) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// Label renders "Name, State, Country", skipping an empty state.
func (p Place) Label() string {
	label := p.Name
	if p.State != "" {
		label += ", " + p.State
	}
	if p.Country != "" {
		label += ", " + p.Country
	}
	return label
}

// Snapshot is the merged result of one fetch cycle. It is replaced wholesale by
// the next fetch and never merged with an older one.
type Snapshot struct {
	Coordinate Coordinate        `json:"coordinate"`
	Unit       UnitSystem        `json:"unit"`
	Current    CurrentConditions `json:"current"`
	Forecast   Forecast          `json:"forecast"`
	AirQuality AirQuality        `json:"airQuality"`
	// Place is the best reverse-geocoding match, if the provider returned any.
	Place     *Place    `json:"place"`
	FetchedAt time.Time `json:"fetchedAt"`

	Hourly []ForecastEntry `json:"hourly"`
	Daily  []DailySummary  `json:"daily"`
}
