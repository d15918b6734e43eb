// Package calculations holds the pure agronomic formulas and statistics used by
// the analytics engine. Nothing here performs I/O or keeps state.
package calculations

import (
	"math"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

// DefaultBaseTemperature is the GDD base temperature for most crops in °C
const DefaultBaseTemperature = 10.0

const (
	magnusA = 17.62
	magnusB = 243.12

	secondsPerDay  = 86400.0
	microMolPerMol = 1_000_000.0
)

// GrowingDegreeDays returns (Tmax+Tmin)/2 - tBase over the measurements that
// carry a temperature, clamped at zero.
func GrowingDegreeDays(measurements []*models.Measurement, tBase float64) float64 {
	found := false
	var tMax, tMin float64
	for _, m := range measurements {
		if !m.HasTemperature() {
			continue
		}
		t := *m.Temperature
		if !found {
			tMax, tMin = t, t
			found = true
			continue
		}
		tMax = math.Max(tMax, t)
		tMin = math.Min(tMin, t)
	}
	if !found {
		return 0
	}
	return math.Max(0, (tMax+tMin)/2-tBase)
}

// DewPoint uses the Magnus approximation. Humidity must be in (0, 100].
func DewPoint(temperature, humidity float64) (float64, error) {
	if humidity <= 0 || humidity > 100 {
		return 0, errors.NewValidationError("humidity must be between 0 and 100", nil)
	}
	alpha := math.Log(humidity/100) + (magnusA*temperature)/(magnusB+temperature)
	return magnusB * alpha / (magnusA - alpha), nil
}

// WaterDeficitIndex returns the soil water shortfall as a percentage of the
// usable range.
func WaterDeficitIndex(current, max, min float64) (float64, error) {
	if max <= min {
		return 0, errors.NewValidationError("max moisture must be greater than min moisture", nil)
	}
	current = clamp(current, min, max)
	wdi := (max - current) / (max - min) * 100
	return clamp(wdi, 0, 100), nil
}

// DailyLightIntegral converts an average µmol·m⁻²·s⁻¹ reading to mol·m⁻²·day⁻¹.
func DailyLightIntegral(avgLight float64) (float64, error) {
	if avgLight < 0 {
		return 0, errors.NewValidationError("light reading cannot be negative", nil)
	}
	return avgLight * secondsPerDay / microMolPerMol, nil
}

// SaturatedVaporPressure in kPa
func SaturatedVaporPressure(temperature float64) float64 {
	return 0.6108 * math.Exp(17.27*temperature/(temperature+237.3))
}

// ActualVaporPressure in kPa
func ActualVaporPressure(temperature, humidity float64) float64 {
	return humidity / 100 * SaturatedVaporPressure(temperature)
}

// VaporPressureDeficit in kPa, never negative
func VaporPressureDeficit(temperature, humidity float64) float64 {
	vpd := SaturatedVaporPressure(temperature) - ActualVaporPressure(temperature, humidity)
	return math.Max(0, vpd)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
