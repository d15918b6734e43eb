package timescale

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

var now = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func testRepo() *MeasurementRepo {
	return &MeasurementRepo{
		defaultWindow: 30 * 24 * time.Hour,
		latestWindow:  10 * time.Minute,
		now:           func() time.Time { return now },
	}
}

func TestBuildQueryDefaultsToThirtyDayWindow(t *testing.T) {
	query, args, err := testRepo().buildQuery(repository.MeasurementQuery{ControllerID: "dev-1"})
	require.NoError(t, err)

	assert.Contains(t, query, "timestamp >= $1")
	assert.Contains(t, query, "controller_id = $2")
	assert.NotContains(t, query, "LIMIT")
	require.Len(t, args, 2)
	assert.Equal(t, now.Add(-30*24*time.Hour), args[0])
	assert.Equal(t, "dev-1", args[1])
}

func TestBuildQueryWithAllFilters(t *testing.T) {
	start, end := now.Add(-time.Hour), now
	query, args, err := testRepo().buildQuery(repository.MeasurementQuery{
		ControllerID: "dev-1",
		StartTime:    &start,
		EndTime:      &end,
		SensorID:     "s-9",
		Zone:         "north",
		Parameter:    "soil_humidity",
		Limit:        50,
	})
	require.NoError(t, err)

	for _, clause := range []string{
		"timestamp >= $1", "timestamp <= $2", "sensor_id = $3", "zone = $4",
		"soil_humidity IS NOT NULL", "controller_id = $5", "LIMIT $6",
	} {
		assert.Contains(t, query, clause)
	}
	assert.Equal(t, []interface{}{start, end, "s-9", "north", "dev-1", 50}, args)
}

func TestBuildQueryRejectsUnknownParameter(t *testing.T) {
	_, _, err := testRepo().buildQuery(repository.MeasurementQuery{Parameter: "co2; DROP TABLE"})
	assert.True(t, errors.IsInvalidMetric(err))
}

func TestBuildControllersQuery(t *testing.T) {
	controllers := []string{"a", "b", "c"}

	query, args, err := testRepo().buildControllersQuery(controllers, repository.MeasurementQuery{Limit: 10})
	require.NoError(t, err)
	assert.Contains(t, query, "controller_id = ANY($2)")
	assert.Contains(t, query, "rn <= $3")
	assert.Contains(t, query, "LIMIT $4")
	require.Len(t, args, 4)
	assert.Equal(t, pq.Array(controllers), args[1])
	assert.Equal(t, 3, args[2])
	assert.Equal(t, 10, args[3])

	_, args, err = testRepo().buildControllersQuery(controllers, repository.MeasurementQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, args[2])

	query, _, err = testRepo().buildControllersQuery(controllers, repository.MeasurementQuery{})
	require.NoError(t, err)
	assert.NotContains(t, query, "ROW_NUMBER")
}

func TestValidRowsSkipsInvalidMeasurements(t *testing.T) {
	rows := []models.Measurement{
		{ControllerID: "a", Timestamp: now, Temperature: models.Float(21)},
		{ControllerID: "a", Timestamp: now, Temperature: models.Float(99)},
		{ControllerID: "", Timestamp: now},
	}
	ms := validRows(rows)
	require.Len(t, ms, 1)
	assert.Equal(t, 21.0, *ms[0].Temperature)
}
