package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flightmanagement/flight-archive/internal/handlers"
	"github.com/flightmanagement/flight-archive/internal/models"
)

type fakeArchive struct{}

func (fakeArchive) GetFlightHistory(context.Context, string, time.Time) ([]*models.FlightArchive, error) {
	return []*models.FlightArchive{}, nil
}

func (fakeArchive) GetFlightsByDateRange(context.Context, time.Time, time.Time, int, int) (*models.PagedArchives, error) {
	return &models.PagedArchives{}, nil
}

func (fakeArchive) GetFlightsByAirline(context.Context, int64, time.Time, time.Time) ([]*models.FlightArchive, error) {
	return []*models.FlightArchive{}, nil
}

func (fakeArchive) GetFlightsByStatus(context.Context, string, time.Time) ([]*models.FlightArchive, error) {
	return []*models.FlightArchive{}, nil
}

func (fakeArchive) GetDelayedFlights(context.Context, int, time.Time) ([]*models.FlightArchive, error) {
	return []*models.FlightArchive{}, nil
}

func (fakeArchive) GetRecentEvents(context.Context, int) ([]*models.FlightArchive, error) {
	return []*models.FlightArchive{}, nil
}

func (fakeArchive) GetFlightStatistics(context.Context, time.Time) (*models.DailyStats, error) {
	return &models.DailyStats{}, nil
}

type fakeKpi struct{}

func (fakeKpi) CalculateForDate(context.Context, time.Time) (*models.DailyKpi, error) {
	return &models.DailyKpi{}, nil
}

func (fakeKpi) Recompute(context.Context, time.Time) (*models.DailyKpi, error) {
	return &models.DailyKpi{}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(handlers.NewHandler(fakeArchive{}, fakeKpi{}))
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/healthz", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/v1/archive/flights?startDate=2026-08-01&endDate=2026-08-31", http.StatusOK},
		{"GET", "/api/v1/archive/flights/history?flightNumber=LH123&date=2026-08-30", http.StatusOK},
		{"GET", "/api/v1/archive/flights/delayed?date=2026-08-30", http.StatusOK},
		{"GET", "/api/v1/archive/flights/recent", http.StatusOK},
		{"GET", "/api/v1/archive/flights/status/CANCELLED?date=2026-08-30", http.StatusOK},
		{"GET", "/api/v1/archive/flights/airline/1?startDate=2026-08-01&endDate=2026-08-31", http.StatusOK},
		{"GET", "/api/v1/archive/stats/2026-08-30", http.StatusOK},
		{"GET", "/api/v1/kpi/2026-08-30", http.StatusOK},
		{"POST", "/api/v1/kpi/calculate/2026-08-30", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
	}{
		{"DELETE", "/api/v1/archive/flights"},
		{"POST", "/api/v1/archive/flights/history"},
		{"GET", "/api/v1/kpi/calculate/2026-08-30"},
		{"PUT", "/api/v1/kpi/2026-08-30"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
