package analytics

import (
	"sort"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/calculations"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// metricProfile describes how results of one metric are named and measured
type metricProfile struct {
	prefix    string
	unit      string
	slopeUnit string
}

var profiles = map[models.Metric]metricProfile{
	models.Temperature:    {prefix: "temperature", unit: "°C", slopeUnit: "°C/h"},
	models.AirHumidity:    {prefix: "air_humidity", unit: "%", slopeUnit: "%/h"},
	models.SoilHumidity:   {prefix: "soil_humidity", unit: "", slopeUnit: "fraction/h"},
	models.LightIntensity: {prefix: "light_intensity", unit: "lux", slopeUnit: "lux/h"},
}

// Derived indicator names
const (
	MetricGrowingDegreeDays    = "growing_degree_days"
	MetricDewPoint             = "dew_point"
	MetricVaporPressureDeficit = "vapor_pressure_deficit"
	MetricWaterDeficitIndex    = "water_deficit_index"
	MetricDailyLightIntegral   = "daily_light_integral"
)

// bundleBuilder accumulates the results of one metric for one controller
type bundleBuilder struct {
	controllerID string
	at           time.Time
	results      []models.MetricResult
}

func (b *bundleBuilder) add(name string, value float64, unit, description string) {
	b.results = append(b.results, models.MetricResult{
		MetricName:   name,
		Value:        value,
		Unit:         unit,
		CalculatedAt: b.at,
		ControllerID: b.controllerID,
		Description:  description,
	})
}

// metricBundle computes statistics, derived indicators and the trend
// annotation of one metric. It returns nil when no measurement carries the field.
func (s *Service) metricBundle(metric models.Metric, ms []*models.Measurement, controllerID string, at time.Time) []models.MetricResult {
	values := metricValues(ms, metric)
	if len(values) == 0 {
		return nil
	}
	profile := profiles[metric]
	b := &bundleBuilder{controllerID: controllerID, at: at}

	stats := calculations.BasicStatistics(values)
	b.add(profile.prefix+"_avg", stats.Mean, profile.unit, "")
	b.add(profile.prefix+"_min", stats.Min, profile.unit, "")
	b.add(profile.prefix+"_max", stats.Max, profile.unit, "")
	b.add(profile.prefix+"_std_dev", stats.StdDev, profile.unit, "")

	switch metric {
	case models.Temperature:
		s.temperatureIndicators(b, ms)
	case models.SoilHumidity:
		wdi, err := calculations.WaterDeficitIndex(stats.Mean, 1.0, 0.0)
		if err == nil {
			b.add(MetricWaterDeficitIndex, wdi, "%", "Crop water stress indicator")
		}
	case models.LightIntensity:
		dli, err := calculations.DailyLightIntegral(stats.Mean)
		if err == nil {
			b.add(MetricDailyLightIntegral, dli, "mol/m²/day", "Total daily photosynthetic radiation")
		}
	}

	if trend := calculations.TrendMetrics(timeSeries(ms, controllerID, metric)); trend != nil {
		b.add(profile.prefix+"_trend_change", trend.Change, profile.unit, "Absolute change over the analysed period")
		b.add(profile.prefix+"_trend_percent", trend.PercentChange, "%", "Percent change relative to the first reading")
		b.add(profile.prefix+"_trend_slope", trend.SlopePerHour, profile.slopeUnit, "Average change per hour")
	}
	return b.results
}

// temperatureIndicators adds GDD, and dew point and VPD from the means over
// measurements that carry both temperature and air humidity.
func (s *Service) temperatureIndicators(b *bundleBuilder, ms []*models.Measurement) {
	b.add(MetricGrowingDegreeDays, calculations.GrowingDegreeDays(ms, s.baseTemperature), "GDD", "Predicts crop development stages")

	var sumT, sumRH float64
	n := 0
	for _, m := range ms {
		if m.HasTemperature() && m.HasAirHumidity() {
			sumT += *m.Temperature
			sumRH += *m.AirHumidity
			n++
		}
	}
	if n == 0 {
		return
	}
	avgT, avgRH := sumT/float64(n), sumRH/float64(n)
	dewPoint, err := calculations.DewPoint(avgT, avgRH)
	if err != nil {
		// 0% mean humidity has no dew point
		nuts.L.Debugf("[Analytics] Skipping dew point for controller %s: %v", b.controllerID, err)
	} else {
		b.add(MetricDewPoint, dewPoint, "°C", "Condensation temperature")
	}
	b.add(MetricVaporPressureDeficit, calculations.VaporPressureDeficit(avgT, avgRH), "kPa", "Plant transpiration driver")
}

func metricValues(ms []*models.Measurement, metric models.Metric) []float64 {
	values := make([]float64, 0, len(ms))
	for _, m := range ms {
		if v, ok := m.Value(metric); ok {
			values = append(values, v)
		}
	}
	return values
}

// timeSeries returns the ascending (timestamp, value) series of one controller field
func timeSeries(ms []*models.Measurement, controllerID string, metric models.Metric) []calculations.TimePoint {
	series := make([]calculations.TimePoint, 0, len(ms))
	for _, m := range ms {
		if m.ControllerID != controllerID {
			continue
		}
		if v, ok := m.Value(metric); ok {
			series = append(series, calculations.TimePoint{Timestamp: m.Timestamp, Value: v})
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
	return series
}
