// FilePath: server/analytics/internal/repository/timescale/timescale.measurements.go
package timescale

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/database"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
	"github.com/itsatony/w4b_v3/server/analytics/internal/repository"
)

const measurementColumns = `controller_id, COALESCE(sensor_id, '') AS sensor_id, COALESCE(zone, '') AS zone,
	timestamp, temperature, air_humidity, soil_humidity, light_intensity`

// MeasurementRepo reads agricultural measurements from a TimescaleDB hypertable
type MeasurementRepo struct {
	TimeScaleBaseRepo
	defaultWindow time.Duration
	latestWindow  time.Duration
	now           func() time.Time
}

// NewMeasurementRepository prepares the hypertable and returns the repository.
// defaultWindow applies when a query has no start time, latestWindow bounds
// the latest-measurement lookup.
func NewMeasurementRepository(db database.DB, defaultWindow, latestWindow time.Duration) (*MeasurementRepo, error) {
	if defaultWindow <= 0 {
		defaultWindow = 30 * 24 * time.Hour
	}
	if latestWindow <= 0 {
		latestWindow = 10 * time.Minute
	}
	repo := &MeasurementRepo{
		TimeScaleBaseRepo: TimeScaleBaseRepo{db: db},
		defaultWindow:     defaultWindow,
		latestWindow:      latestWindow,
		now:               time.Now,
	}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MeasurementRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS agricultural_measurements (
			controller_id TEXT NOT NULL,
			sensor_id TEXT,
			zone TEXT,
			timestamp TIMESTAMPTZ NOT NULL,
			temperature DOUBLE PRECISION,
			air_humidity DOUBLE PRECISION,
			soil_humidity DOUBLE PRECISION,
			light_intensity DOUBLE PRECISION
		)`,
		`SELECT create_hypertable('agricultural_measurements', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agricultural_measurements_controller_timestamp
         ON agricultural_measurements(controller_id, timestamp DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewRepositoryError("failed to initialize schema", err)
		}
	}
	return nil
}

// queryBuilder collects WHERE clauses with positional arguments
type queryBuilder struct {
	where []string
	args  []interface{}
}

func (b *queryBuilder) add(clause string, arg interface{}) {
	b.args = append(b.args, arg)
	b.where = append(b.where, fmt.Sprintf(clause, len(b.args)))
}

func (b *queryBuilder) placeholder(arg interface{}) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

// filters translates everything but controller and limit into clauses
func (r *MeasurementRepo) filters(q repository.MeasurementQuery) (*queryBuilder, error) {
	b := &queryBuilder{}
	start := r.now().Add(-r.defaultWindow)
	if q.StartTime != nil {
		start = *q.StartTime
	}
	b.add("timestamp >= $%d", start)
	if q.EndTime != nil {
		b.add("timestamp <= $%d", *q.EndTime)
	}
	if q.SensorID != "" {
		b.add("sensor_id = $%d", q.SensorID)
	}
	if q.Zone != "" {
		b.add("zone = $%d", q.Zone)
	}
	if q.Parameter != "" {
		metric, err := models.ParseMetric(q.Parameter)
		if err != nil {
			return nil, err
		}
		// column name comes from the closed metric set
		b.where = append(b.where, string(metric)+" IS NOT NULL")
	}
	return b, nil
}

func (r *MeasurementRepo) buildQuery(q repository.MeasurementQuery) (string, []interface{}, error) {
	b, err := r.filters(q)
	if err != nil {
		return "", nil, err
	}
	if q.ControllerID != "" {
		b.add("controller_id = $%d", q.ControllerID)
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM agricultural_measurements
		WHERE %s
		ORDER BY timestamp ASC, controller_id`, measurementColumns, strings.Join(b.where, " AND "))
	if q.Limit > 0 {
		query += " LIMIT " + b.placeholder(q.Limit)
	}
	return query, b.args, nil
}

func (r *MeasurementRepo) buildControllersQuery(controllers []string, q repository.MeasurementQuery) (string, []interface{}, error) {
	b, err := r.filters(q)
	if err != nil {
		return "", nil, err
	}
	b.add("controller_id = ANY($%d)", pq.Array(controllers))

	if q.Limit <= 0 {
		query := fmt.Sprintf(`
		SELECT %s
		FROM agricultural_measurements
		WHERE %s
		ORDER BY timestamp ASC, controller_id`, measurementColumns, strings.Join(b.where, " AND "))
		return query, b.args, nil
	}

	// per-controller share first, then the overall limit
	perController := max(1, q.Limit/len(controllers))
	query := fmt.Sprintf(`
		WITH ranked AS (
			SELECT %s,
				ROW_NUMBER() OVER (PARTITION BY controller_id ORDER BY timestamp ASC) AS rn
			FROM agricultural_measurements
			WHERE %s
		)
		SELECT controller_id, sensor_id, zone, timestamp, temperature, air_humidity, soil_humidity, light_intensity
		FROM ranked
		WHERE rn <= %s
		ORDER BY timestamp ASC, controller_id
		LIMIT %s`,
		measurementColumns, strings.Join(b.where, " AND "), b.placeholder(perController), b.placeholder(q.Limit))
	return query, b.args, nil
}

// validRows drops rows that violate the measurement invariants
func validRows(rows []models.Measurement) []*models.Measurement {
	out := make([]*models.Measurement, 0, len(rows))
	for i := range rows {
		m, err := models.NewMeasurement(rows[i])
		if err != nil {
			nuts.L.Warnf("[TimescaleDB] Skipping invalid measurement of controller %s at %v: %v",
				rows[i].ControllerID, rows[i].Timestamp, err)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *MeasurementRepo) GetMeasurements(ctx context.Context, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	query, args, err := r.buildQuery(q)
	if err != nil {
		return nil, err
	}
	rows := []models.Measurement{}
	if err := r.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	ms := validRows(rows)
	nuts.L.Debugf("[TimescaleDB] Fetched %d measurements for controller '%s'", len(ms), q.ControllerID)
	return ms, nil
}

func (r *MeasurementRepo) GetMeasurementsByControllers(ctx context.Context, controllers []string, q repository.MeasurementQuery) ([]*models.Measurement, error) {
	if len(controllers) == 0 {
		return []*models.Measurement{}, nil
	}
	query, args, err := r.buildControllersQuery(controllers, q)
	if err != nil {
		return nil, err
	}
	rows := []models.Measurement{}
	if err := r.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	ms := validRows(rows)
	nuts.L.Debugf("[TimescaleDB] Fetched %d measurements from %d controllers", len(ms), len(controllers))
	return ms, nil
}

func (r *MeasurementRepo) GetLatestMeasurement(ctx context.Context, controllerID string) (*models.Measurement, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM agricultural_measurements
        WHERE controller_id = $1 AND timestamp >= $2
        ORDER BY timestamp DESC
        LIMIT 1`, measurementColumns)

	row := models.Measurement{}
	err := r.db.GetDB().GetContext(ctx, &row, query, controllerID, r.now().Add(-r.latestWindow))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewRepositoryError("failed to get latest measurement", err)
	}
	m, err := models.NewMeasurement(row)
	if err != nil {
		nuts.L.Warnf("[TimescaleDB] Latest measurement of controller %s is invalid: %v", controllerID, err)
		return nil, nil
	}
	return m, nil
}

func (r *MeasurementRepo) HealthCheck(ctx context.Context) bool {
	if err := r.Ping(ctx); err != nil {
		nuts.L.Warnf("[TimescaleDB] Health check failed: %v", err)
		return false
	}
	return true
}
