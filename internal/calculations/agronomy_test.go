package calculations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

func temps(values ...float64) []*models.Measurement {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Measurement, len(values))
	for i, v := range values {
		out[i] = &models.Measurement{
			ControllerID: "dev-1",
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			Temperature:  models.Float(v),
		}
	}
	return out
}

func TestGrowingDegreeDays(t *testing.T) {
	t.Run("mean of extremes minus base", func(t *testing.T) {
		assert.InDelta(t, 10.0, GrowingDegreeDays(temps(15, 25, 20), DefaultBaseTemperature), 1e-9)
	})

	t.Run("never negative", func(t *testing.T) {
		assert.Equal(t, 0.0, GrowingDegreeDays(temps(-5, 2, 4), DefaultBaseTemperature))
	})

	t.Run("no temperatures yields zero", func(t *testing.T) {
		ms := []*models.Measurement{{ControllerID: "dev-1", SoilHumidity: models.Float(0.4)}}
		assert.Equal(t, 0.0, GrowingDegreeDays(ms, DefaultBaseTemperature))
		assert.Equal(t, 0.0, GrowingDegreeDays(nil, DefaultBaseTemperature))
	})

	t.Run("skips measurements without temperature", func(t *testing.T) {
		ms := append(temps(12, 18), &models.Measurement{ControllerID: "dev-1", AirHumidity: models.Float(50)})
		assert.InDelta(t, 5.0, GrowingDegreeDays(ms, DefaultBaseTemperature), 1e-9)
	})
}

func TestDewPoint(t *testing.T) {
	dp, err := DewPoint(20, 100)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, dp, 1e-9)

	dp, err = DewPoint(25, 60)
	require.NoError(t, err)
	assert.InDelta(t, 16.69, dp, 0.05)

	for _, rh := range []float64{0, -1, 100.5} {
		_, err := DewPoint(20, rh)
		assert.True(t, errors.IsValidation(err), "humidity %v", rh)
	}
}

func TestWaterDeficitIndex(t *testing.T) {
	wdi, err := WaterDeficitIndex(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, wdi)

	wdi, err = WaterDeficitIndex(0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, wdi)

	wdi, err = WaterDeficitIndex(0.25, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, wdi, 1e-9)

	t.Run("clamps out of range moisture", func(t *testing.T) {
		wdi, err := WaterDeficitIndex(2, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, wdi)
		wdi, err = WaterDeficitIndex(-1, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 100.0, wdi)
	})

	t.Run("monotonically decreasing", func(t *testing.T) {
		prev := 101.0
		for cur := 0.0; cur <= 1.0; cur += 0.05 {
			wdi, err := WaterDeficitIndex(cur, 1, 0)
			require.NoError(t, err)
			assert.LessOrEqual(t, wdi, prev)
			prev = wdi
		}
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		_, err := WaterDeficitIndex(0.5, 0.2, 0.2)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestDailyLightIntegral(t *testing.T) {
	dli, err := DailyLightIntegral(500)
	require.NoError(t, err)
	assert.InDelta(t, 43.2, dli, 1e-9)

	_, err = DailyLightIntegral(-0.1)
	assert.True(t, errors.IsValidation(err))
}

func TestVaporPressure(t *testing.T) {
	assert.InDelta(t, 2.338, SaturatedVaporPressure(20), 0.001)

	for _, temp := range []float64{-30, -5, 0, 12.5, 25, 40, 60} {
		for _, rh := range []float64{0.5, 10, 45, 80, 100} {
			svp := SaturatedVaporPressure(temp)
			avp := ActualVaporPressure(temp, rh)
			assert.GreaterOrEqual(t, svp, avp)
			assert.GreaterOrEqual(t, avp, 0.0)
			assert.GreaterOrEqual(t, VaporPressureDeficit(temp, rh), 0.0)
		}
	}

	assert.InDelta(t, 0.0, VaporPressureDeficit(22, 100), 1e-12)
}
