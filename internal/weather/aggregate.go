package weather

import (
	"time"
)

const (
	// HourlyEntries is how many 3-hour steps make up the hourly strip (24h).
	HourlyEntries = 8
	// ForecastDays caps the daily view.
	ForecastDays = 5
)

// DailySummary condenses the forecast entries of one calendar day.
type DailySummary struct {
	Date      time.Time `json:"date"` // midnight UTC
	TempMin   float64   `json:"tempMin"`
	TempMax   float64   `json:"tempMax"`
	TempAvg   float64   `json:"tempAvg"`
	Humidity  float64   `json:"humidity"`
	MaxPop    float64   `json:"maxPop"`
	Condition Condition `json:"condition"`

	// Representative is the middle entry of the day, used for the icon and description.
	Representative ForecastEntry `json:"representative"`
}

// GroupForecastByDay groups entries by the date part of dt_txt, keeping the
// provider order both across and within days.
func GroupForecastByDay(entries []ForecastEntry) [][]ForecastEntry {
	var (
		groups [][]ForecastEntry
		index  = make(map[string]int)
	)

	for _, e := range entries {
		key := dayKey(e)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}

	return groups
}

func dayKey(e ForecastEntry) string {
	if len(e.DtTxt) >= len("2006-01-02") {
		return e.DtTxt[:len("2006-01-02")]
	}
	return e.Time().Format("2006-01-02")
}

// SummarizeDay combines one day's entries. Temperature and humidity are averaged;
// the condition is selected by majority, the earliest seen winning ties.
func SummarizeDay(entries []ForecastEntry) DailySummary {
	if len(entries) == 0 {
		return DailySummary{Condition: ConditionUnknown}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		maxPop      float64
		minTemp     = entries[0].Main.TempMin
		maxTemp     = entries[0].Main.TempMax
	)

	conditionCounts := make(map[Condition]int)
	var order []Condition

	for _, e := range entries {
		sumTemp += e.Main.Temp
		sumHumidity += e.Main.Humidity
		if e.Main.TempMin < minTemp {
			minTemp = e.Main.TempMin
		}
		if e.Main.TempMax > maxTemp {
			maxTemp = e.Main.TempMax
		}
		if e.Pop > maxPop {
			maxPop = e.Pop
		}

		cond := ConditionUnknown
		if len(e.Weather) > 0 {
			cond = ConditionFromCode(e.Weather[0].ID)
		}
		if _, seen := conditionCounts[cond]; !seen {
			order = append(order, cond)
		}
		conditionCounts[cond]++
	}

	n := float64(len(entries))

	// Pick majority condition.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range order {
		if conditionCounts[cond] > bestCount {
			bestCount = conditionCounts[cond]
			bestCond = cond
		}
	}

	ts, err := time.Parse("2006-01-02", dayKey(entries[0]))
	if err != nil {
		t := entries[0].Time()
		ts = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	return DailySummary{
		Date:           ts,
		TempMin:        minTemp,
		TempMax:        maxTemp,
		TempAvg:        sumTemp / n,
		Humidity:       sumHumidity / n,
		MaxPop:         maxPop,
		Condition:      bestCond,
		Representative: entries[len(entries)/2],
	}
}

// DailySummaries returns at most days summaries, today first.
func DailySummaries(f Forecast, days int) []DailySummary {
	groups := GroupForecastByDay(f.List)
	if days > 0 && len(groups) > days {
		groups = groups[:days]
	}

	out := make([]DailySummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, SummarizeDay(g))
	}
	return out
}

// Hourly returns the first n forecast steps.
func Hourly(f Forecast, n int) []ForecastEntry {
	if n <= 0 || len(f.List) <= n {
		return f.List
	}
	return f.List[:n]
}
