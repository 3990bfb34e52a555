// Package kpi derives daily operational KPIs from the archived event
// ledger. Snapshots are recomputable at any time; the cache only avoids
// repeated aggregate queries and is always safe to overwrite.
package kpi

import (
	"context"
	"log/slog"
	"time"

	"github.com/flightmanagement/flight-archive/internal/cache"
	"github.com/flightmanagement/flight-archive/internal/metrics"
	"github.com/flightmanagement/flight-archive/internal/models"
	"github.com/flightmanagement/flight-archive/internal/notifier"
)

// StatsProvider supplies the aggregate counts the KPI derivation needs.
type StatsProvider interface {
	GetFlightStatistics(ctx context.Context, date time.Time) (*models.DailyStats, error)
}

// Service computes daily KPI snapshots.
type Service struct {
	stats    StatsProvider
	cache    *cache.KpiCache
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewService creates the KPI service. cache and notifier may be nil.
func NewService(stats StatsProvider, c *cache.KpiCache, n *notifier.Notifier) *Service {
	return &Service{
		stats:    stats,
		cache:    c,
		notifier: n,
		logger:   slog.Default().With(slog.String("component", "kpi")),
	}
}

// CalculateForDate returns the KPI snapshot for a date, serving a cached
// snapshot when one exists.
func (s *Service) CalculateForDate(ctx context.Context, date time.Time) (*models.DailyKpi, error) {
	if kpi, ok := s.cache.Get(ctx, date); ok {
		return kpi, nil
	}
	return s.compute(ctx, date, "on_demand")
}

// Recompute re-derives the snapshot from current archive state, overwrites
// any cached snapshot, and announces the update. Recomputation is
// idempotent: with no intervening archive changes it yields identical
// results.
func (s *Service) Recompute(ctx context.Context, date time.Time) (*models.DailyKpi, error) {
	kpi, err := s.compute(ctx, date, "recompute")
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SendKpiUpdate(ctx, "DAILY", kpi)
	}

	return kpi, nil
}

func (s *Service) compute(ctx context.Context, date time.Time, trigger string) (*models.DailyKpi, error) {
	start := time.Now()
	stats, err := s.stats.GetFlightStatistics(ctx, date)
	metrics.KpiDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.KpiComputations.WithLabelValues(trigger, "error").Inc()
		return nil, err
	}

	kpi := &models.DailyKpi{
		Date:                stats.Date,
		TotalFlights:        stats.TotalFlights,
		ArrivedFlights:      stats.ArrivedFlights,
		DepartedFlights:     stats.DepartedFlights,
		CancelledFlights:    stats.CancelledFlights,
		DelayedFlights:      stats.DelayedFlights,
		AverageDelayMinutes: stats.AverageDelayMinutes,
		OnTimePerformance:   onTimePerformance(stats),
		CancellationRate:    cancellationRate(stats),
		CompletionRate:      completionRate(stats),
	}

	s.cache.Set(ctx, date, kpi)
	metrics.KpiComputations.WithLabelValues(trigger, "ok").Inc()

	s.logger.Debug("kpi computed",
		slog.Time("date", date),
		slog.Int64("total_flights", kpi.TotalFlights))

	return kpi, nil
}

// Ratios are pure functions of the counts, defined as 0 when the day has
// no flights.

func onTimePerformance(stats *models.DailyStats) float64 {
	if stats.TotalFlights == 0 {
		return 0
	}
	onTime := stats.TotalFlights - stats.DelayedFlights
	return float64(onTime) / float64(stats.TotalFlights) * 100
}

func cancellationRate(stats *models.DailyStats) float64 {
	if stats.TotalFlights == 0 {
		return 0
	}
	return float64(stats.CancelledFlights) / float64(stats.TotalFlights) * 100
}

func completionRate(stats *models.DailyStats) float64 {
	if stats.TotalFlights == 0 {
		return 0
	}
	return float64(stats.ArrivedFlights) / float64(stats.TotalFlights) * 100
}
