// Package climate evaluates wheel storage temperature and humidity samples.
package climate

import (
	"time"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/model"
)

// Thresholds are the acceptable storage ranges, inclusive.
type Thresholds struct {
	TemperatureMin float64 `json:"temperatureMin"`
	TemperatureMax float64 `json:"temperatureMax"`
	HumidityMin    float64 `json:"humidityMin"`
	HumidityMax    float64 `json:"humidityMax"`
}

// Metric names a measured quantity.
type Metric string

const (
	Temperature Metric = "temperature"
	Humidity    Metric = "humidity"
)

// Violation reports a reading outside its range.
type Violation struct {
	Metric Metric  `json:"metric"`
	Value  float64 `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Direction is the movement of a metric between two windows.
type Direction string

const (
	Rising  Direction = "rising"
	Falling Direction = "falling"
	Stable  Direction = "stable"
)

// Evaluate returns every metric of r outside t.
func (t Thresholds) Evaluate(r model.ClimateReading) []Violation {
	var out []Violation
	if r.Temperature < t.TemperatureMin || r.Temperature > t.TemperatureMax {
		out = append(out, Violation{Metric: Temperature, Value: r.Temperature, Min: t.TemperatureMin, Max: t.TemperatureMax})
	}
	if r.Humidity < t.HumidityMin || r.Humidity > t.HumidityMax {
		out = append(out, Violation{Metric: Humidity, Value: r.Humidity, Min: t.HumidityMin, Max: t.HumidityMax})
	}
	return out
}

// Trend compares the mean of metric over (end-window, end] with the mean over
// the window before it. A difference within tolerance, or a window with no
// samples, is Stable.
func Trend(readings []model.ClimateReading, metric Metric, end time.Time, window time.Duration, tolerance float64) Direction {
	recentStart := end.Add(-window)
	previousStart := recentStart.Add(-window)

	var recentSum, previousSum float64
	var recentN, previousN int
	for _, r := range readings {
		v := value(r, metric)
		switch {
		case r.RecordedAt.After(recentStart) && !r.RecordedAt.After(end):
			recentSum += v
			recentN++
		case r.RecordedAt.After(previousStart) && !r.RecordedAt.After(recentStart):
			previousSum += v
			previousN++
		}
	}
	if recentN == 0 || previousN == 0 {
		return Stable
	}

	delta := recentSum/float64(recentN) - previousSum/float64(previousN)
	switch {
	case delta > tolerance:
		return Rising
	case delta < -tolerance:
		return Falling
	default:
		return Stable
	}
}

func value(r model.ClimateReading, m Metric) float64 {
	if m == Humidity {
		return r.Humidity
	}
	return r.Temperature
}

// Summary is the current climate state of one location.
type Summary struct {
	Location         string                `json:"location"`
	Samples          int                   `json:"samples"`
	Latest           *model.ClimateReading `json:"latest"`
	Violations       []Violation           `json:"violations"`
	TemperatureTrend Direction             `json:"temperatureTrend"`
	HumidityTrend    Direction             `json:"humidityTrend"`
	Thresholds       Thresholds            `json:"thresholds"`
}

// Analyzer summarizes readings with fixed thresholds and trend settings.
type Analyzer struct {
	Thresholds Thresholds
	Window     time.Duration
	Tolerance  float64
	MaxSamples int
}

// NewAnalyzer builds an Analyzer from configuration.
func NewAnalyzer(cfg config.ClimateConfig) *Analyzer {
	return &Analyzer{
		Thresholds: Thresholds{
			TemperatureMin: cfg.TemperatureMin,
			TemperatureMax: cfg.TemperatureMax,
			HumidityMin:    cfg.HumidityMin,
			HumidityMax:    cfg.HumidityMax,
		},
		Window:     time.Duration(cfg.TrendWindowHours) * time.Hour,
		Tolerance:  cfg.TrendTolerance,
		MaxSamples: cfg.SummaryMaxSamples,
	}
}

// Since returns the earliest sample time a summary at now looks at.
func (a *Analyzer) Since(now time.Time) time.Time {
	return now.Add(-2 * a.Window)
}

// Summarize builds the summary for location from readings ordered oldest
// first. Violations are those of the latest reading.
func (a *Analyzer) Summarize(location string, readings []model.ClimateReading, now time.Time) Summary {
	s := Summary{
		Location:         location,
		Samples:          len(readings),
		Violations:       []Violation{},
		TemperatureTrend: Trend(readings, Temperature, now, a.Window, a.Tolerance),
		HumidityTrend:    Trend(readings, Humidity, now, a.Window, a.Tolerance),
		Thresholds:       a.Thresholds,
	}
	if len(readings) > 0 {
		latest := readings[len(readings)-1]
		s.Latest = &latest
		if v := a.Thresholds.Evaluate(latest); v != nil {
			s.Violations = v
		}
	}
	return s
}
