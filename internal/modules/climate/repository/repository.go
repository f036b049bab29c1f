package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/types"
)

//go:embed sql/latest-date.sql
var latestDateSQL string

//go:embed sql/precipitation.sql
var precipitationSQL string

//go:embed sql/most-active-station.sql
var mostActiveStationSQL string

//go:embed sql/temperature-observations.sql
var temperatureObservationsSQL string

//go:embed sql/stations.sql
var stationsSQL string

//go:embed sql/temperature-stats.sql
var temperatureStatsSQL string

//go:embed sql/summary.sql
var summarySQL string

// ErrNoData is returned when the measurement table has no rows.
var ErrNoData = errors.New("no measurements in store")

// ClimateRepository is the read-only query surface over the measurement and
// station tables. Rows come back in store order; callers must not assume any
// particular ordering.
type ClimateRepository interface {
	LatestDate(ctx context.Context) (string, error)
	Precipitation(ctx context.Context, r types.DateRange) ([]types.DatePrecipitation, error)
	MostActiveStation(ctx context.Context) (string, error)
	TemperatureObservations(ctx context.Context, station string, r types.DateRange) ([]types.DateTemperature, error)
	Stations(ctx context.Context) ([]string, error)
	TemperatureStats(ctx context.Context, r types.DateRange) (types.TemperatureStats, error)
	Summary(ctx context.Context) (types.Summary, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (string, error) {
	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx, latestDateSQL).Scan(&latest); err != nil {
		return "", fmt.Errorf("latest date: %w", err)
	}
	if !latest.Valid {
		return "", ErrNoData
	}
	return latest.String, nil
}

func (r *repositoryImpl) Precipitation(ctx context.Context, dr types.DateRange) ([]types.DatePrecipitation, error) {
	rows, err := r.db.QueryContext(ctx, precipitationSQL, dr.Start, endArg(dr))
	if err != nil {
		return nil, fmt.Errorf("precipitation: %w", err)
	}
	defer closeRows(rows, "precipitation")

	var out []types.DatePrecipitation
	for rows.Next() {
		var (
			rec  types.DatePrecipitation
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, fmt.Errorf("scan precipitation: %w", err)
		}
		if prcp.Valid {
			v := prcp.Float64
			rec.Prcp = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, error) {
	var station string
	err := r.db.QueryRowContext(ctx, mostActiveStationSQL).Scan(&station)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoData
	}
	if err != nil {
		return "", fmt.Errorf("most active station: %w", err)
	}
	return station, nil
}

func (r *repositoryImpl) TemperatureObservations(ctx context.Context, station string, dr types.DateRange) ([]types.DateTemperature, error) {
	rows, err := r.db.QueryContext(ctx, temperatureObservationsSQL, station, dr.Start, endArg(dr))
	if err != nil {
		return nil, fmt.Errorf("temperature observations: %w", err)
	}
	defer closeRows(rows, "temperature observations")

	var out []types.DateTemperature
	for rows.Next() {
		var rec types.DateTemperature
		if err := rows.Scan(&rec.Date, &rec.Tobs); err != nil {
			return nil, fmt.Errorf("scan temperature observation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Stations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, stationsSQL)
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	defer closeRows(rows, "stations")

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, dr types.DateRange) (types.TemperatureStats, error) {
	var lo, avg, hi sql.NullFloat64
	err := r.db.QueryRowContext(ctx, temperatureStatsSQL, dr.Start, endArg(dr)).Scan(&lo, &avg, &hi)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats: %w", err)
	}
	return types.TemperatureStats{
		Min: nullableFloat(lo),
		Avg: nullableFloat(avg),
		Max: nullableFloat(hi),
	}, nil
}

func (r *repositoryImpl) Summary(ctx context.Context) (types.Summary, error) {
	var (
		s             types.Summary
		first, latest sql.NullString
	)
	err := r.db.QueryRowContext(ctx, summarySQL).Scan(&s.Measurements, &s.Stations, &first, &latest)
	if err != nil {
		return types.Summary{}, fmt.Errorf("summary: %w", err)
	}
	if first.Valid {
		s.FirstDate = &first.String
	}
	if latest.Valid {
		s.LatestDate = &latest.String
	}
	return s, nil
}

func endArg(dr types.DateRange) any {
	if dr.End == nil {
		return nil
	}
	return *dr.End
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
