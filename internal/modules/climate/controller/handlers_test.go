package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/service"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/views"
)

type mockService struct {
	precipitation    map[string]*float64
	precipitationErr error
	stations         []string
	stationsErr      error
	tobs             map[string]float64
	tobsErr          error
	stats            [3]*float64
	statsErr         error

	gotStart, gotEnd string
}

func (m *mockService) Precipitation(context.Context) (map[string]*float64, error) {
	return m.precipitation, m.precipitationErr
}

func (m *mockService) Stations(context.Context) ([]string, error) {
	return m.stations, m.stationsErr
}

func (m *mockService) Tobs(context.Context) (map[string]float64, error) {
	return m.tobs, m.tobsErr
}

func (m *mockService) StartDate(_ context.Context, start string) ([3]*float64, error) {
	m.gotStart = start
	return m.stats, m.statsErr
}

func (m *mockService) StartEndDate(_ context.Context, start, end string) ([3]*float64, error) {
	m.gotStart, m.gotEnd = start, end
	return m.stats, m.statsErr
}

func newRouter(svc ClimateService) http.Handler {
	r := chi.NewRouter()
	NewClimateController(svc).RegisterRoutes(r)
	return r
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ptr(v float64) *float64 { return &v }

func Test_handleHome(t *testing.T) {
	t.Run("returns 500 and error body when render fails", func(t *testing.T) {
		// RenderHome fails until templates are loaded.
		ctrl := NewClimateController(&mockService{}).(*climateControllerImpl)
		rec := httptest.NewRecorder()
		ctrl.handleHome(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if body := rec.Body.String(); !strings.Contains(body, "failed to render page") {
			t.Errorf("body = %q; expected 'failed to render page'", body)
		}
	})

	t.Run("returns HTML route listing", func(t *testing.T) {
		if err := views.LoadTemplates(); err != nil {
			t.Fatalf("LoadTemplates(): %v", err)
		}
		rec := serve(t, newRouter(&mockService{}), "/")

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q; want text/html; charset=utf-8", ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Welcome to the Climate API!") || !strings.Contains(body, "/api/v1.0/&lt;start&gt;/&lt;end&gt;") {
			t.Errorf("body = %q; expected welcome text and routes", body)
		}
	})
}

func Test_handlePrecipitation(t *testing.T) {
	t.Run("returns date map with nulls", func(t *testing.T) {
		svc := &mockService{precipitation: map[string]*float64{
			"2017-08-23": ptr(0),
			"2016-08-24": nil,
			"2017-01-01": ptr(0.29),
		}}
		rec := serve(t, newRouter(svc), "/api/v1.0/precipitation")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json", ct)
		}
		want := `{"2016-08-24":null,"2017-01-01":0.29,"2017-08-23":0}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
	})

	t.Run("identical calls are byte-identical", func(t *testing.T) {
		svc := &mockService{precipitation: map[string]*float64{}}
		for d := 10; d < 30; d++ {
			svc.precipitation[fmt.Sprintf("2017-08-%d", d)] = ptr(float64(d) / 100)
		}
		h := newRouter(svc)
		first := serve(t, h, "/api/v1.0/precipitation").Body.String()
		for i := 0; i < 5; i++ {
			if got := serve(t, h, "/api/v1.0/precipitation").Body.String(); got != first {
				t.Fatalf("response %d differs:\n%s\nvs\n%s", i, got, first)
			}
		}
	})

	t.Run("returns 500 when no data", func(t *testing.T) {
		svc := &mockService{precipitationErr: fmt.Errorf("latest date: %w", service.ErrDataUnavailable)}
		rec := serve(t, newRouter(svc), "/api/v1.0/precipitation")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if body := rec.Body.String(); !strings.Contains(body, service.ErrDataUnavailable.Error()) {
			t.Errorf("body = %q; expected data unavailable message", body)
		}
	})
}

func Test_handleStations(t *testing.T) {
	t.Run("returns station ids in order", func(t *testing.T) {
		svc := &mockService{stations: []string{"USC00519397", "USC00513117"}}
		rec := serve(t, newRouter(svc), "/api/v1.0/stations")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var got []string
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[0] != "USC00519397" || got[1] != "USC00513117" {
			t.Errorf("stations = %v", got)
		}
	})

	t.Run("returns 503 when store unavailable", func(t *testing.T) {
		svc := &mockService{stationsErr: fmt.Errorf("stations: %w: %w", service.ErrStoreUnavailable, errors.New("database is locked"))}
		rec := serve(t, newRouter(svc), "/api/v1.0/stations")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] != http.StatusText(http.StatusServiceUnavailable) {
			t.Errorf("error = %q", body["error"])
		}
		if strings.Contains(body["message"], "locked") {
			t.Errorf("message leaks store detail: %q", body["message"])
		}
	})
}

func Test_handleTobs(t *testing.T) {
	t.Run("returns temperature map", func(t *testing.T) {
		svc := &mockService{tobs: map[string]float64{"2017-08-18": 79, "2017-08-22": 76}}
		rec := serve(t, newRouter(svc), "/api/v1.0/tobs")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		want := `{"2017-08-18":79,"2017-08-22":76}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
	})

	t.Run("unclassified error is a 500", func(t *testing.T) {
		svc := &mockService{tobsErr: errors.New("boom")}
		rec := serve(t, newRouter(svc), "/api/v1.0/tobs")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_handleStartDate(t *testing.T) {
	t.Run("passes start through and returns triple", func(t *testing.T) {
		svc := &mockService{stats: [3]*float64{ptr(68), ptr(74.8), ptr(81)}}
		rec := serve(t, newRouter(svc), "/api/v1.0/2017-01-01")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if svc.gotStart != "2017-01-01" {
			t.Errorf("start = %q; want 2017-01-01", svc.gotStart)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[68,74.8,81]" {
			t.Errorf("body = %s; want [68,74.8,81]", got)
		}
	})

	t.Run("empty range serializes nulls", func(t *testing.T) {
		rec := serve(t, newRouter(&mockService{}), "/api/v1.0/2099-01-01")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[null,null,null]" {
			t.Errorf("body = %s; want [null,null,null]", got)
		}
	})

	t.Run("malformed start is not rejected", func(t *testing.T) {
		svc := &mockService{}
		rec := serve(t, newRouter(svc), "/api/v1.0/not-a-date")

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if svc.gotStart != "not-a-date" {
			t.Errorf("start = %q; want not-a-date", svc.gotStart)
		}
	})

	t.Run("static routes win over start", func(t *testing.T) {
		svc := &mockService{stations: []string{"USC00519281"}}
		serve(t, newRouter(svc), "/api/v1.0/stations")
		if svc.gotStart != "" {
			t.Errorf("stats handler called with start %q", svc.gotStart)
		}
	})
}

func Test_handleStartEndDate(t *testing.T) {
	t.Run("passes both bounds", func(t *testing.T) {
		svc := &mockService{stats: [3]*float64{ptr(76), ptr(78), ptr(81)}}
		rec := serve(t, newRouter(svc), "/api/v1.0/2016-08-22/2016-08-24")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if svc.gotStart != "2016-08-22" || svc.gotEnd != "2016-08-24" {
			t.Errorf("bounds = %q..%q", svc.gotStart, svc.gotEnd)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[76,78,81]" {
			t.Errorf("body = %s; want [76,78,81]", got)
		}
	})

	t.Run("returns 503 when store unavailable", func(t *testing.T) {
		svc := &mockService{statsErr: service.ErrStoreUnavailable}
		rec := serve(t, newRouter(svc), "/api/v1.0/2016-08-22/2016-08-24")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := serve(t, newRouter(&mockService{}), "/api/v1.0/a/b/c")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
	}
}
