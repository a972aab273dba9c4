package weather

import (
	"fmt"
	"math"
	"strconv"
)

var (
	airQualityLabels = []string{"Good", "Fair", "Moderate", "Poor", "Very Poor"}
	airQualityColors = []string{"#4CAF50", "#8BC34A", "#FFC107", "#FF9800", "#F44336"}
)

// FormatTemperature rounds to a whole degree and appends the unit symbol.
func FormatTemperature(temp float64, unit UnitSystem) string {
	symbol := "C"
	if unit == UnitImperial {
		symbol = "F"
	}
	return fmt.Sprintf("%d°%s", int(math.Round(temp)), symbol)
}

// FormatWindSpeed appends m/s or mph depending on unit.
func FormatWindSpeed(speed float64, unit UnitSystem) string {
	suffix := "m/s"
	if unit == UnitImperial {
		suffix = "mph"
	}
	return strconv.FormatFloat(speed, 'f', -1, 64) + " " + suffix
}

// AirQualityLabel names an AQI on the 1-5 scale.
func AirQualityLabel(aqi int) string {
	if aqi < 1 || aqi > len(airQualityLabels) {
		return "Unknown"
	}
	return airQualityLabels[aqi-1]
}

// AirQualityColor returns the display color for an AQI on the 1-5 scale.
func AirQualityColor(aqi int) string {
	if aqi < 1 || aqi > len(airQualityColors) {
		return "#9E9E9E"
	}
	return airQualityColors[aqi-1]
}

// IsDaytime reports whether ts lies within [sunrise, sunset]. All values are unix seconds.
func IsDaytime(ts, sunrise, sunset int64) bool {
	return ts >= sunrise && ts <= sunset
}

// PageTitle renders the dashboard title for a snapshot, or the generic title when there is none.
func PageTitle(s *Snapshot) string {
	if s == nil || s.Current.Name == "" {
		return "WeatherVue - Real-time Weather Forecasts"
	}
	return fmt.Sprintf("%s Weather - %s", s.Current.Name, FormatTemperature(s.Current.Main.Temp, s.Unit))
}
