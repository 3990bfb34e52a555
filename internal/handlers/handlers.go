package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/flightmanagement/flight-archive/internal/httputil"
	"github.com/flightmanagement/flight-archive/internal/models"
)

const dateLayout = "2006-01-02"

// ArchiveService defines the archive query surface the handlers use
type ArchiveService interface {
	GetFlightHistory(ctx context.Context, flightNumber string, date time.Time) ([]*models.FlightArchive, error)
	GetFlightsByDateRange(ctx context.Context, start, end time.Time, page, size int) (*models.PagedArchives, error)
	GetFlightsByAirline(ctx context.Context, airlineID int64, start, end time.Time) ([]*models.FlightArchive, error)
	GetFlightsByStatus(ctx context.Context, status string, date time.Time) ([]*models.FlightArchive, error)
	GetDelayedFlights(ctx context.Context, minDelayMinutes int, date time.Time) ([]*models.FlightArchive, error)
	GetRecentEvents(ctx context.Context, limit int) ([]*models.FlightArchive, error)
	GetFlightStatistics(ctx context.Context, date time.Time) (*models.DailyStats, error)
}

// KpiService defines the KPI derivation surface the handlers use
type KpiService interface {
	CalculateForDate(ctx context.Context, date time.Time) (*models.DailyKpi, error)
	Recompute(ctx context.Context, date time.Time) (*models.DailyKpi, error)
}

type Handler struct {
	archive ArchiveService
	kpi     KpiService
	logger  *slog.Logger
}

func NewHandler(archive ArchiveService, kpi KpiService) *Handler {
	return &Handler{
		archive: archive,
		kpi:     kpi,
		logger:  slog.Default().With(slog.String("component", "handlers")),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetFlightHistory handles GET /api/v1/archive/flights/history?flightNumber=LH123&date=2026-08-30
func (h *Handler) GetFlightHistory(w http.ResponseWriter, r *http.Request) {
	flightNumber := r.URL.Query().Get("flightNumber")
	if flightNumber == "" {
		httputil.WriteError(w, http.StatusBadRequest, "flightNumber required")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	events, err := h.archive.GetFlightHistory(r.Context(), flightNumber, date)
	if err != nil {
		h.logger.Error("flight history query failed",
			slog.String("flight_number", flightNumber),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query flight history")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// GetFlightsByDateRange handles GET /api/v1/archive/flights?startDate=...&endDate=...&page=0&size=20
func (h *Handler) GetFlightsByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		httputil.WriteError(w, http.StatusBadRequest, "endDate before startDate")
		return
	}

	page := parseInt(r.URL.Query().Get("page"), 0)
	size := parseInt(r.URL.Query().Get("size"), 20)
	if size < 1 || size > 200 {
		size = 20
	}

	result, err := h.archive.GetFlightsByDateRange(r.Context(), start, end, page, size)
	if err != nil {
		h.logger.Error("date range query failed", slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query flights")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetFlightsByAirline handles GET /api/v1/archive/flights/airline/:id?startDate=...&endDate=...
func (h *Handler) GetFlightsByAirline(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Path[len("/api/v1/archive/flights/airline/"):]
	airlineID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "airline id must be numeric")
		return
	}

	start, err := parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}

	events, err := h.archive.GetFlightsByAirline(r.Context(), airlineID, start, end)
	if err != nil {
		h.logger.Error("airline query failed",
			slog.Int64("airline_id", airlineID),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query flights")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// GetFlightsByStatus handles GET /api/v1/archive/flights/status/:status?date=2026-08-30
func (h *Handler) GetFlightsByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Path[len("/api/v1/archive/flights/status/"):]
	if status == "" {
		httputil.WriteError(w, http.StatusBadRequest, "status required")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	events, err := h.archive.GetFlightsByStatus(r.Context(), status, date)
	if err != nil {
		h.logger.Error("status query failed",
			slog.String("status", status),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query flights")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// GetDelayedFlights handles GET /api/v1/archive/flights/delayed?minDelayMinutes=15&date=2026-08-30
func (h *Handler) GetDelayedFlights(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	minDelay := parseInt(r.URL.Query().Get("minDelayMinutes"), 15)

	events, err := h.archive.GetDelayedFlights(r.Context(), minDelay, date)
	if err != nil {
		h.logger.Error("delayed flights query failed", slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query delayed flights")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// GetRecentEvents handles GET /api/v1/archive/flights/recent?limit=50
func (h *Handler) GetRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.archive.GetRecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent events query failed", slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query recent events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// GetFlightStatistics handles GET /api/v1/archive/stats/:date
func (h *Handler) GetFlightStatistics(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Path[len("/api/v1/archive/stats/"):])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	stats, err := h.archive.GetFlightStatistics(r.Context(), date)
	if err != nil {
		h.logger.Error("statistics query failed",
			slog.Time("date", date),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to query statistics")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// GetKpi handles GET /api/v1/kpi/:date
func (h *Handler) GetKpi(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Path[len("/api/v1/kpi/"):])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	kpi, err := h.kpi.CalculateForDate(r.Context(), date)
	if err != nil {
		h.logger.Error("kpi derivation failed",
			slog.Time("date", date),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to derive kpi")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, kpi)
}

// RecalculateKpi handles POST /api/v1/kpi/calculate/:date
func (h *Handler) RecalculateKpi(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Path[len("/api/v1/kpi/calculate/"):])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	kpi, err := h.kpi.Recompute(r.Context(), date)
	if err != nil {
		h.logger.Error("kpi recompute failed",
			slog.Time("date", date),
			slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to recompute kpi")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, kpi)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Helper function to parse integer query parameters
func parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}
