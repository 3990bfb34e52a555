package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightmanagement/flight-archive/internal/models"
)

type recordingKpi struct {
	mu    sync.Mutex
	dates []time.Time
	err   error
}

func (r *recordingKpi) Recompute(_ context.Context, date time.Time) (*models.DailyKpi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
	return &models.DailyKpi{Date: date}, r.err
}

func (r *recordingKpi) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dates)
}

type recordingSweeper struct {
	mu            sync.Mutex
	retentionDays []int
	err           error
}

func (r *recordingSweeper) CleanupOldRecords(_ context.Context, retentionDays int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retentionDays = append(r.retentionDays, retentionDays)
	return 0, r.err
}

func (r *recordingSweeper) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.retentionDays)
}

func TestRunCycle(t *testing.T) {
	kpi := &recordingKpi{}
	sweeper := &recordingSweeper{}
	s := New(kpi, sweeper, Config{Enabled: true, Interval: time.Hour, RetentionDays: 90})

	s.RunCycle(context.Background())

	require.Equal(t, 1, kpi.calls())
	require.Equal(t, 1, sweeper.calls())
	assert.Equal(t, 90, sweeper.retentionDays[0])

	// The KPI target date is yesterday
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	assert.Equal(t, yesterday.Format("2006-01-02"), kpi.dates[0].Format("2006-01-02"))
}

func TestRunCycle_KpiFailureDoesNotBlockSweep(t *testing.T) {
	kpi := &recordingKpi{err: errors.New("storage unavailable")}
	sweeper := &recordingSweeper{}
	s := New(kpi, sweeper, Config{Enabled: true, Interval: time.Hour, RetentionDays: 30})

	s.RunCycle(context.Background())

	assert.Equal(t, 1, kpi.calls())
	assert.Equal(t, 1, sweeper.calls())
}

func TestRunCycle_SweepFailureIsNonFatal(t *testing.T) {
	kpi := &recordingKpi{}
	sweeper := &recordingSweeper{err: errors.New("storage unavailable")}
	s := New(kpi, sweeper, Config{Enabled: true, Interval: time.Hour, RetentionDays: 30})

	// Must not panic; the next tick retries
	s.RunCycle(context.Background())
	s.RunCycle(context.Background())

	assert.Equal(t, 2, sweeper.calls())
}

func TestStartStop(t *testing.T) {
	kpi := &recordingKpi{}
	sweeper := &recordingSweeper{}
	s := New(kpi, sweeper, Config{Enabled: true, Interval: 10 * time.Millisecond, RetentionDays: 30})

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Greater(t, kpi.calls(), 0)
	assert.Greater(t, sweeper.calls(), 0)

	// No further cycles after Stop
	calls := kpi.calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, kpi.calls())
}

func TestStart_Disabled(t *testing.T) {
	kpi := &recordingKpi{}
	sweeper := &recordingSweeper{}
	s := New(kpi, sweeper, Config{Enabled: false, Interval: 5 * time.Millisecond, RetentionDays: 30})

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	assert.Zero(t, kpi.calls())
}

func TestStart_Idempotent(t *testing.T) {
	s := New(&recordingKpi{}, &recordingSweeper{}, Config{Enabled: true, Interval: time.Hour, RetentionDays: 30})

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
