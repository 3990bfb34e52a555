// Package scheduler runs the periodic maintenance cycle: recompute the
// previous day's KPI snapshot, then sweep archive records past retention.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flightmanagement/flight-archive/internal/models"
)

// KpiRecomputer re-derives a day's KPI snapshot from archive state.
type KpiRecomputer interface {
	Recompute(ctx context.Context, date time.Time) (*models.DailyKpi, error)
}

// Sweeper removes archive records older than the retention window.
type Sweeper interface {
	CleanupOldRecords(ctx context.Context, retentionDays int) (int64, error)
}

// Config holds scheduler configuration.
type Config struct {
	Enabled       bool
	Interval      time.Duration
	RetentionDays int
}

// DefaultConfig returns scheduler defaults: hourly cycle, two year
// retention.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Interval:      time.Hour,
		RetentionDays: 730,
	}
}

// Scheduler drives the maintenance cycle on a fixed interval.
type Scheduler struct {
	kpi     KpiRecomputer
	sweeper Sweeper
	cfg     Config
	logger  *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a Scheduler.
func New(kpi KpiRecomputer, sweeper Sweeper, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Scheduler{
		kpi:     kpi,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  slog.Default().With(slog.String("component", "scheduler")),
	}
}

// Start launches the maintenance loop. It is a no-op when the scheduler is
// disabled or already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return
	}
	if s.running {
		return
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.wg.Add(1)
	go s.loop()

	s.logger.Info("scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("retention_days", s.cfg.RetentionDays))
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunCycle(context.Background())
		}
	}
}

// RunCycle executes one maintenance cycle. A KPI failure does not block the
// retention sweep; each stage logs its own outcome and the next tick
// retries whatever failed.
func (s *Scheduler) RunCycle(ctx context.Context) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	if _, err := s.kpi.Recompute(ctx, yesterday); err != nil {
		s.logger.Error("scheduled kpi recompute failed",
			slog.Time("date", yesterday),
			slog.String("error", err.Error()))
	}

	if _, err := s.sweeper.CleanupOldRecords(ctx, s.cfg.RetentionDays); err != nil {
		s.logger.Error("retention sweep failed",
			slog.Int("retention_days", s.cfg.RetentionDays),
			slog.String("error", err.Error()))
	}
}
