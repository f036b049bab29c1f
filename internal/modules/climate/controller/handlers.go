package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/service"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/views"
	"github.com/MS1352/sqlalchemy-challenge/internal/utils"
)

const homeTitle = "Climate API"

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderHome(&buf, &views.HomeData{Title: homeTitle, Routes: views.Routes}); err != nil {
		slog.ErrorContext(r.Context(), "home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.ErrorContext(r.Context(), "home: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeServiceError(w, r, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, r, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	tobs, err := c.service.Tobs(r.Context())
	if err != nil {
		writeServiceError(w, r, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tobs)
}

func (c *climateControllerImpl) handleStartDate(w http.ResponseWriter, r *http.Request) {
	start := chi.URLParam(r, "start")
	stats, err := c.service.StartDate(r.Context(), start)
	if err != nil {
		writeServiceError(w, r, "start date stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStartEndDate(w http.ResponseWriter, r *http.Request) {
	start, end := chi.URLParam(r, "start"), chi.URLParam(r, "end")
	stats, err := c.service.StartEndDate(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, "start/end date stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// writeServiceError maps service failures to status codes: no data to
// anchor on is a 500, an unreachable store a 503.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrDataUnavailable):
		msg = service.ErrDataUnavailable.Error()
	case errors.Is(err, service.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, service.ErrStoreUnavailable.Error()
	}
	slog.ErrorContext(r.Context(), op+" failed", "status", status, "error", err)
	utils.WriteError(w, status, msg)
}
