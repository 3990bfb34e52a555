// Package archiver implements the archival core: mapping incoming event
// envelopes into durable archive records with effectively-exactly-once
// semantics, and the query surface over the archived ledger.
package archiver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flightmanagement/flight-archive/internal/metrics"
	"github.com/flightmanagement/flight-archive/internal/models"
	"github.com/flightmanagement/flight-archive/internal/notifier"
	"github.com/flightmanagement/flight-archive/internal/repository"
)

// Service owns archival writes and archive queries.
type Service struct {
	repo     repository.Repository
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewService creates the archive service. notifier may be nil, in which
// case insert notifications are skipped.
func NewService(repo repository.Repository, n *notifier.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: n,
		logger:   slog.Default().With(slog.String("component", "archiver")),
	}
}

// ArchiveEvent turns one decoded envelope into at most one archive record.
// A duplicate delivery (event id already archived) returns (nil, nil): the
// caller acknowledges without re-inserting. Storage failures are returned
// for retry via non-acknowledgement.
func (s *Service) ArchiveEvent(ctx context.Context, env *models.EventEnvelope) (*models.FlightArchive, error) {
	// Dedup gate. Best-effort: a concurrent insert of the same event id is
	// caught by the store's unique index below.
	exists, err := s.repo.ExistsByEventID(ctx, env.EventID)
	if err != nil {
		metrics.StorageErrors.Inc()
		return nil, err
	}
	if exists {
		s.logger.Warn("event already archived",
			slog.String("event_id", env.EventID))
		return nil, nil
	}

	archive := MapEventToArchive(env, time.Now().UTC())

	start := time.Now()
	err = s.repo.Insert(ctx, archive)
	metrics.ArchiveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			// Lost the race to another writer; same idempotent no-op.
			s.logger.Warn("concurrent duplicate insert",
				slog.String("event_id", env.EventID))
			return nil, nil
		}
		metrics.StorageErrors.Inc()
		return nil, err
	}

	s.logger.Info("event archived",
		slog.String("event_id", env.EventID),
		slog.String("event_type", env.EventType),
		slog.String("entity_type", env.EntityType),
		slog.String("entity_id", env.EntityID))

	if s.notifier != nil {
		flightNumber := ""
		if archive.FlightNumber != nil {
			flightNumber = *archive.FlightNumber
		}
		// Best-effort; never fails the commit path.
		s.notifier.SendArchiveUpdate(ctx, flightNumber, archive.EntityID, archive.EventType, archive)
	}

	return archive, nil
}

// GetFlightHistory returns one flight's archived events for a day, ordered
// by event time.
func (s *Service) GetFlightHistory(ctx context.Context, flightNumber string, date time.Time) ([]*models.FlightArchive, error) {
	return s.repo.FindByFlightNumberAndDate(ctx, flightNumber, date)
}

// GetFlightsByDateRange returns a page of archived events for a date range.
func (s *Service) GetFlightsByDateRange(ctx context.Context, start, end time.Time, page, size int) (*models.PagedArchives, error) {
	return s.repo.FindByDateRange(ctx, start, end, page, size)
}

// GetFlightsByAirline returns one airline's archived events for a range.
func (s *Service) GetFlightsByAirline(ctx context.Context, airlineID int64, start, end time.Time) ([]*models.FlightArchive, error) {
	return s.repo.FindByAirlineAndDateRange(ctx, airlineID, start, end)
}

// GetFlightsByStatus returns events with the given status on a date.
func (s *Service) GetFlightsByStatus(ctx context.Context, status string, date time.Time) ([]*models.FlightArchive, error) {
	return s.repo.FindByStatusAndDate(ctx, status, date)
}

// GetDelayedFlights returns events delayed beyond the threshold on a date.
func (s *Service) GetDelayedFlights(ctx context.Context, minDelayMinutes int, date time.Time) ([]*models.FlightArchive, error) {
	return s.repo.FindDelayedByDate(ctx, minDelayMinutes, date)
}

// GetRecentEvents returns the most recent archived events.
func (s *Service) GetRecentEvents(ctx context.Context, limit int) ([]*models.FlightArchive, error) {
	return s.repo.FindRecent(ctx, limit)
}

// GetFlightStatistics returns the day's aggregate counts.
func (s *Service) GetFlightStatistics(ctx context.Context, date time.Time) (*models.DailyStats, error) {
	return s.repo.GetDailyStats(ctx, date)
}

// CleanupOldRecords deletes records archived more than retentionDays ago
// and returns the number removed. Partial failure leaves older records for
// the next run.
func (s *Service) CleanupOldRecords(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	s.logger.Info("cleaning up archives",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff", cutoff))

	removed, err := s.repo.DeleteArchivedBefore(ctx, cutoff)
	if err != nil {
		metrics.SweepErrors.Inc()
		return 0, err
	}

	metrics.RecordsSwept.Add(float64(removed))
	s.logger.Info("cleanup completed",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff))

	if s.notifier != nil {
		s.notifier.SendBatchUpdate(ctx, "ARCHIVE_CLEANUP", map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff,
		})
	}

	return removed, nil
}
