package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/repository"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/types"
)

const (
	tracerName = "github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/service"

	dateLayout = "2006-01-02"
	windowDays = 365
)

var (
	// ErrDataUnavailable means the store holds no usable measurements to anchor a window on.
	ErrDataUnavailable = errors.New("climate data unavailable")
	// ErrStoreUnavailable means the store could not answer the query.
	ErrStoreUnavailable = errors.New("climate store unavailable")
)

type Service struct {
	repository repository.ClimateRepository
	tracer     trace.Tracer
}

type Option func(*Service)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func NewService(repository repository.ClimateRepository, opts ...Option) *Service {
	s := &Service{repository: repository, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrailingYearStart returns the calendar date 365 days before latest, both
// formatted YYYY-MM-DD.
func TrailingYearStart(latest string) (string, error) {
	t, err := time.Parse(dateLayout, latest)
	if err != nil {
		return "", fmt.Errorf("parse latest date %q: %w", latest, err)
	}
	return t.AddDate(0, 0, -windowDays).Format(dateLayout), nil
}

// Precipitation maps every date in the trailing-year window to its
// precipitation. When several stations report the same date the row read
// last wins.
func (s *Service) Precipitation(ctx context.Context) (_ map[string]*float64, err error) {
	ctx, span := s.tracer.Start(ctx, "climate.Precipitation")
	defer func() { endSpan(span, err) }()

	window, err := s.trailingWindow(ctx, span)
	if err != nil {
		return nil, err
	}
	rows, err := s.repository.Precipitation(ctx, window)
	if err != nil {
		return nil, classify("precipitation", err)
	}

	out := make(map[string]*float64, len(rows))
	for _, row := range rows {
		out[row.Date] = row.Prcp
	}
	span.SetAttributes(attribute.Int("climate.rows", len(rows)))
	return out, nil
}

func (s *Service) Stations(ctx context.Context) (_ []string, err error) {
	ctx, span := s.tracer.Start(ctx, "climate.Stations")
	defer func() { endSpan(span, err) }()

	ids, err := s.repository.Stations(ctx)
	if err != nil {
		return nil, classify("stations", err)
	}
	if ids == nil {
		ids = []string{}
	}
	span.SetAttributes(attribute.Int("climate.rows", len(ids)))
	return ids, nil
}

// Tobs maps dates in the trailing-year window to the temperature observed
// by the most active station.
func (s *Service) Tobs(ctx context.Context) (_ map[string]float64, err error) {
	ctx, span := s.tracer.Start(ctx, "climate.Tobs")
	defer func() { endSpan(span, err) }()

	window, err := s.trailingWindow(ctx, span)
	if err != nil {
		return nil, err
	}
	station, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, classify("most active station", err)
	}
	span.SetAttributes(attribute.String("climate.station", station))

	rows, err := s.repository.TemperatureObservations(ctx, station, window)
	if err != nil {
		return nil, classify("temperature observations", err)
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Date] = row.Tobs
	}
	span.SetAttributes(attribute.Int("climate.rows", len(rows)))
	return out, nil
}

// StartDate returns [min, avg, max] of tobs over date >= start. start is
// compared as a string and never validated.
func (s *Service) StartDate(ctx context.Context, start string) ([3]*float64, error) {
	return s.temperatureStats(ctx, "climate.StartDate", types.Since(start))
}

// StartEndDate is StartDate bounded by date <= end.
func (s *Service) StartEndDate(ctx context.Context, start, end string) ([3]*float64, error) {
	return s.temperatureStats(ctx, "climate.StartEndDate", types.Between(start, end))
}

func (s *Service) temperatureStats(ctx context.Context, name string, dr types.DateRange) (_ [3]*float64, err error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("climate.start", dr.Start)))
	defer func() { endSpan(span, err) }()
	if dr.End != nil {
		span.SetAttributes(attribute.String("climate.end", *dr.End))
	}

	stats, err := s.repository.TemperatureStats(ctx, dr)
	if err != nil {
		return [3]*float64{}, classify("temperature stats", err)
	}
	return [3]*float64{stats.Min, stats.Avg, stats.Max}, nil
}

// Summary reports store contents for health checks and the operator CLI.
func (s *Service) Summary(ctx context.Context) (_ types.Summary, err error) {
	ctx, span := s.tracer.Start(ctx, "climate.Summary")
	defer func() { endSpan(span, err) }()

	sum, err := s.repository.Summary(ctx)
	if err != nil {
		return types.Summary{}, classify("summary", err)
	}
	return sum, nil
}

// MostActiveStation is exposed for the operator CLI.
func (s *Service) MostActiveStation(ctx context.Context) (_ string, err error) {
	ctx, span := s.tracer.Start(ctx, "climate.MostActiveStation")
	defer func() { endSpan(span, err) }()

	station, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return "", classify("most active station", err)
	}
	return station, nil
}

func (s *Service) trailingWindow(ctx context.Context, span trace.Span) (types.DateRange, error) {
	latest, err := s.repository.LatestDate(ctx)
	if err != nil {
		return types.DateRange{}, classify("latest date", err)
	}
	start, err := TrailingYearStart(latest)
	if err != nil {
		return types.DateRange{}, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	span.SetAttributes(
		attribute.String("climate.window.start", start),
		attribute.String("climate.window.end", latest),
	)
	return types.Between(start, latest), nil
}

func classify(op string, err error) error {
	if errors.Is(err, repository.ErrNoData) {
		return fmt.Errorf("%s: %w: %w", op, ErrDataUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
