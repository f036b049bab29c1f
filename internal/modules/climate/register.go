package climate

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/controller"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/repository"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/service"
)

// NewService builds the query service over db, with store calls guarded by
// a circuit breaker.
func NewService(db *sql.DB, cfg config.Config) *service.Service {
	climateRepository := repository.NewBreakerRepository(repository.NewRepository(db), repository.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailureThreshold,
		OpenTimeout:         cfg.BreakerOpenTimeout,
	})
	return service.NewService(climateRepository)
}

func RegisterFeature(r chi.Router, climateService *service.Service) {
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(r)
}
