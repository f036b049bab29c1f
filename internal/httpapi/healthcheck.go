package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/types"
	"github.com/MS1352/sqlalchemy-challenge/internal/utils"
)

const healthTimeout = 2 * time.Second

type summarizer interface {
	Summary(ctx context.Context) (types.Summary, error)
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db      *sql.DB
	summary summarizer
}

type healthResponse struct {
	Status string         `json:"status"`
	Store  *types.Summary `json:"store,omitempty"`
}

func NewHealthchecker(db *sql.DB, summary summarizer) healthchecker {
	return &healthcheckerImpl{db: db, summary: summary}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "failed to check database connectivity")
		return
	}

	resp := healthResponse{Status: "ok"}
	if h.summary != nil {
		sum, err := h.summary.Summary(ctx)
		if err != nil {
			slog.WarnContext(ctx, "healthz: store summary failed", "error", err)
		} else {
			resp.Store = &sum
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func registerHealthcheck(r chi.Router, db *sql.DB, summary summarizer) {
	healthchecker := NewHealthchecker(db, summary)
	r.Get("/healthz", healthchecker.handleHealthz)
}
