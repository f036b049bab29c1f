package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/service"
)

type Deps struct {
	DB      *sql.DB
	Climate *service.Service
	Metrics *Metrics
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

func NewRouter(deps Deps) http.Handler {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(deps.DB)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(tracing(deps.TracerProvider))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	var summary summarizer
	if deps.Climate != nil {
		summary = deps.Climate
	}
	registerHealthcheck(r, deps.DB, summary)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	climate.RegisterFeature(r, deps.Climate)

	return r
}
