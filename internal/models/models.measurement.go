// FilePath: server/analytics/internal/models/models.measurement.go
package models

import (
	"fmt"
	"time"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

// Metric identifies a sensor field that can be analysed
type Metric string

const (
	Temperature    Metric = "temperature"
	AirHumidity    Metric = "air_humidity"
	SoilHumidity   Metric = "soil_humidity"
	LightIntensity Metric = "light_intensity"
)

// SupportedMetrics lists the analysable metrics in their canonical order
var SupportedMetrics = []Metric{Temperature, AirHumidity, SoilHumidity, LightIntensity}

// SupportedMetricNames returns the supported metrics as plain strings
func SupportedMetricNames() []string {
	names := make([]string, len(SupportedMetrics))
	for i, m := range SupportedMetrics {
		names[i] = string(m)
	}
	return names
}

// ParseMetric resolves a metric name, failing with an InvalidMetric error
func ParseMetric(name string) (Metric, error) {
	for _, m := range SupportedMetrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", errors.NewInvalidMetricError(name, SupportedMetricNames())
}

// Measurement is a validated sensor snapshot for one controller at one instant.
// Optional readings are nil when the controller did not report them.
type Measurement struct {
	ControllerID   string    `json:"controller_id" db:"controller_id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	SoilHumidity   *float64  `json:"soil_humidity,omitempty" db:"soil_humidity"`
	AirHumidity    *float64  `json:"air_humidity,omitempty" db:"air_humidity"`
	Temperature    *float64  `json:"temperature,omitempty" db:"temperature"`
	LightIntensity *float64  `json:"light_intensity,omitempty" db:"light_intensity"`
	SensorID       string    `json:"sensor_id,omitempty" db:"sensor_id"`
	Zone           string    `json:"zone,omitempty" db:"zone"`
}

// NewMeasurement builds a measurement and checks the physical ranges of every present field
func NewMeasurement(m Measurement) (*Measurement, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural and physical-range invariants
func (m *Measurement) Validate() error {
	if m.ControllerID == "" {
		return errors.NewValidationError("controller_id is required", nil)
	}
	if m.SoilHumidity != nil && (*m.SoilHumidity < 0 || *m.SoilHumidity > 1) {
		return rangeError("soil_humidity", *m.SoilHumidity, "between 0 and 1")
	}
	if m.AirHumidity != nil && (*m.AirHumidity < 0 || *m.AirHumidity > 100) {
		return rangeError("air_humidity", *m.AirHumidity, "between 0 and 100")
	}
	if m.Temperature != nil && (*m.Temperature < -50 || *m.Temperature > 60) {
		return rangeError("temperature", *m.Temperature, "between -50 and 60 degrees Celsius")
	}
	if m.LightIntensity != nil && *m.LightIntensity < 0 {
		return rangeError("light_intensity", *m.LightIntensity, "non-negative")
	}
	return nil
}

func rangeError(field string, value float64, constraint string) error {
	return errors.NewValidationError(fmt.Sprintf("%s must be %s (got %g)", field, constraint, value), nil)
}

func (m *Measurement) HasTemperature() bool  { return m.Temperature != nil }
func (m *Measurement) HasAirHumidity() bool  { return m.AirHumidity != nil }
func (m *Measurement) HasSoilHumidity() bool { return m.SoilHumidity != nil }
func (m *Measurement) HasLight() bool        { return m.LightIntensity != nil }

// Value returns the reading for a metric and whether it is present
func (m *Measurement) Value(metric Metric) (float64, bool) {
	var v *float64
	switch metric {
	case Temperature:
		v = m.Temperature
	case AirHumidity:
		v = m.AirHumidity
	case SoilHumidity:
		v = m.SoilHumidity
	case LightIntensity:
		v = m.LightIntensity
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Float returns a pointer to v, handy for building measurements
func Float(v float64) *float64 {
	return &v
}
