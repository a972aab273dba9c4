package dashboard

import (
	"github.com/i474232898/weathervue/internal/location"
	"github.com/i474232898/weathervue/internal/preferences"
	"github.com/i474232898/weathervue/internal/weather"
)

// WeatherView is the rendered fetch state. On settle exactly one of Error and
// Snapshot is set.
type WeatherView struct {
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
	Snapshot *weather.Snapshot `json:"snapshot,omitempty"`

	Temperature     string            `json:"temperature,omitempty"`
	WindSpeed       string            `json:"windSpeed,omitempty"`
	Condition       weather.Condition `json:"condition,omitempty"`
	Daytime         bool              `json:"daytime"`
	AirQualityLabel string            `json:"airQualityLabel,omitempty"`
	AirQualityColor string            `json:"airQualityColor,omitempty"`
}

// View is an immutable copy of the dashboard state.
type View struct {
	Title          string                  `json:"title"`
	Preferences    preferences.Preferences `json:"preferences"`
	Location       *weather.Coordinate     `json:"location"`
	LocationSource Source                  `json:"locationSource,omitempty"`
	Geolocation    location.Result         `json:"geolocation"`
	Weather        WeatherView             `json:"weather"`
	Search         SearchState             `json:"search"`
	IsFavorite     bool                    `json:"isFavorite"`
}

// viewLocked must be called with d.mu held.
func (d *Dashboard) viewLocked() View {
	v := View{
		Title:          weather.PageTitle(nil),
		Preferences:    d.preferences.Clone(),
		LocationSource: d.source,
		Geolocation:    d.geo,
		Search:         d.search.clone(),
	}
	if d.location != nil {
		loc := *d.location
		v.Location = &loc
	}

	v.Weather = WeatherView{
		Loading:  d.weather.Loading,
		Error:    d.weather.ErrorMessage(),
		Snapshot: d.weather.Snapshot,
	}
	if s := d.weather.Snapshot; s != nil {
		v.Title = weather.PageTitle(s)
		v.Weather.Temperature = weather.FormatTemperature(s.Current.Main.Temp, s.Unit)
		v.Weather.WindSpeed = weather.FormatWindSpeed(s.Current.Wind.Speed, s.Unit)
		v.Weather.Condition = s.Current.Condition()
		v.Weather.Daytime = s.Current.IsDaytime()
		v.Weather.AirQualityLabel = weather.AirQualityLabel(s.AirQuality.Index())
		v.Weather.AirQualityColor = weather.AirQualityColor(s.AirQuality.Index())
		_, v.IsFavorite = d.preferences.FindFavorite(s.Current.Coord)
	}
	return v
}

// View returns the current state.
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

// Subscribe returns a channel that receives the current View immediately and
// the latest View after every change. A slow reader only misses intermediate
// views. The returned func cancels the subscription.
func (d *Dashboard) Subscribe() (<-chan View, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan View, 1)
	if d.closed {
		close(ch)
		return ch, func() {}
	}

	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	ch <- d.viewLocked()

	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if c, ok := d.subs[id]; ok {
			close(c)
			delete(d.subs, id)
		}
	}
}

// publishLocked must be called with d.mu held.
func (d *Dashboard) publishLocked() {
	if len(d.subs) == 0 {
		return
	}

	v := d.viewLocked()
	for _, ch := range d.subs {
		select {
		case ch <- v:
		default:
			// Replace the unread view with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}
