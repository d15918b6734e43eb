package timescale

import (
	"context"

	"github.com/itsatony/w4b_v3/server/analytics/internal/database"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
)

type TimeScaleBaseRepo struct {
	db database.DB
}

func (r *TimeScaleBaseRepo) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := r.db.GetDB().SelectContext(ctx, dest, query, args...); err != nil {
		return errors.NewRepositoryError("failed to execute query", err)
	}
	return nil
}

func (r *TimeScaleBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewRepositoryError("failed to ping database", err)
	}
	return nil
}

func (r *TimeScaleBaseRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.NewRepositoryError("failed to close database", err)
	}
	return nil
}
