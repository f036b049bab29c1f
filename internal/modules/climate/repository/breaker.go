package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/types"
)

// ErrCircuitOpen is returned without touching the store while the breaker is open.
var ErrCircuitOpen = errors.New("store circuit breaker open")

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

type breakerRepository struct {
	inner ClimateRepository
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerRepository guards inner with a circuit breaker so that a failing
// store is reported quickly instead of every request waiting on it.
func NewBreakerRepository(inner ClimateRepository, s BreakerSettings) ClimateRepository {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "climate-store",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakerRepository{inner: inner, cb: cb}
}

// isSuccessful keeps an empty table or a caller hanging up from counting
// against the store.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func guard[T any](b *breakerRepository, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrCircuitOpen
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (b *breakerRepository) LatestDate(ctx context.Context) (string, error) {
	return guard(b, func() (string, error) { return b.inner.LatestDate(ctx) })
}

func (b *breakerRepository) Precipitation(ctx context.Context, r types.DateRange) ([]types.DatePrecipitation, error) {
	return guard(b, func() ([]types.DatePrecipitation, error) { return b.inner.Precipitation(ctx, r) })
}

func (b *breakerRepository) MostActiveStation(ctx context.Context) (string, error) {
	return guard(b, func() (string, error) { return b.inner.MostActiveStation(ctx) })
}

func (b *breakerRepository) TemperatureObservations(ctx context.Context, station string, r types.DateRange) ([]types.DateTemperature, error) {
	return guard(b, func() ([]types.DateTemperature, error) { return b.inner.TemperatureObservations(ctx, station, r) })
}

func (b *breakerRepository) Stations(ctx context.Context) ([]string, error) {
	return guard(b, func() ([]string, error) { return b.inner.Stations(ctx) })
}

func (b *breakerRepository) TemperatureStats(ctx context.Context, r types.DateRange) (types.TemperatureStats, error) {
	return guard(b, func() (types.TemperatureStats, error) { return b.inner.TemperatureStats(ctx, r) })
}

func (b *breakerRepository) Summary(ctx context.Context) (types.Summary, error) {
	return guard(b, func() (types.Summary, error) { return b.inner.Summary(ctx) })
}
