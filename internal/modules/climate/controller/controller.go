package controller

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// ClimateService is the query surface the handlers depend on.
type ClimateService interface {
	Precipitation(ctx context.Context) (map[string]*float64, error)
	Stations(ctx context.Context) ([]string, error)
	Tobs(ctx context.Context) (map[string]float64, error)
	StartDate(ctx context.Context, start string) ([3]*float64, error)
	StartEndDate(ctx context.Context, start, end string) ([3]*float64, error)
}

type ClimateController interface {
	RegisterRoutes(r chi.Router)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

// RegisterRoutes mounts the API. chi matches static segments before
// {start}, so /api/v1.0/stations never reaches the stats handler.
func (c *climateControllerImpl) RegisterRoutes(r chi.Router) {
	r.Get("/", c.handleHome)
	r.Route("/api/v1.0", func(r chi.Router) {
		r.Get("/precipitation", c.handlePrecipitation)
		r.Get("/stations", c.handleStations)
		r.Get("/tobs", c.handleTobs)
		r.Get("/{start}", c.handleStartDate)
		r.Get("/{start}/{end}", c.handleStartEndDate)
	})
}
