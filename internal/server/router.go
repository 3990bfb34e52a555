package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightmanagement/flight-archive/internal/handlers"
	"github.com/flightmanagement/flight-archive/internal/middleware"
)

// NewRouter constructs a ServeMux with archive API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	// Archive query API
	mux.HandleFunc("/api/v1/archive/flights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetFlightsByDateRange(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/archive/flights/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetFlightHistory(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/archive/flights/delayed", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetDelayedFlights(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/archive/flights/recent", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetRecentEvents(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /api/v1/archive/flights/status/:status
	mux.HandleFunc("/api/v1/archive/flights/status/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetFlightsByStatus(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /api/v1/archive/flights/airline/:id
	mux.HandleFunc("/api/v1/archive/flights/airline/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetFlightsByAirline(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /api/v1/archive/stats/:date
	mux.HandleFunc("/api/v1/archive/stats/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetFlightStatistics(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// KPI API. The calculate prefix must be routed before the date match.
	mux.HandleFunc("/api/v1/kpi/calculate/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.RecalculateKpi(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /api/v1/kpi/:date
	mux.HandleFunc("/api/v1/kpi/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetKpi(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return middleware.RequestID(middleware.Logging(mux))
}
