package repository

import (
	"context"
	"errors"
	"time"

	"github.com/flightmanagement/flight-archive/internal/models"
)

var (
	// ErrDuplicateEvent indicates the event id is already archived. The
	// unique index is the authoritative guard; the consumer treats this as
	// an idempotent no-op, never as a failure.
	ErrDuplicateEvent = errors.New("event already archived")

	// ErrStorageUnavailable indicates a transient storage failure. Consumer
	// paths retry via non-acknowledgement; scheduled paths retry on the
	// next tick.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Repository defines the interface for archive record persistence.
type Repository interface {
	// Insert atomically persists one archive record. Returns
	// ErrDuplicateEvent when the event id already exists.
	Insert(ctx context.Context, archive *models.FlightArchive) error

	// ExistsByEventID is the dedup gate checked before insert. It is a
	// race-tolerant best-effort guard; true uniqueness is enforced by the
	// store's unique index.
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)

	// Range queries used by the external query layer.
	FindByFlightNumberAndDate(ctx context.Context, flightNumber string, date time.Time) ([]*models.FlightArchive, error)
	FindByDateRange(ctx context.Context, start, end time.Time, page, size int) (*models.PagedArchives, error)
	FindByAirlineAndDateRange(ctx context.Context, airlineID int64, start, end time.Time) ([]*models.FlightArchive, error)
	FindByStatusAndDate(ctx context.Context, status string, date time.Time) ([]*models.FlightArchive, error)
	FindDelayedByDate(ctx context.Context, minDelayMinutes int, date time.Time) ([]*models.FlightArchive, error)
	FindRecent(ctx context.Context, limit int) ([]*models.FlightArchive, error)

	// GetDailyStats computes the aggregate counts for one date over the
	// latest event per flight.
	GetDailyStats(ctx context.Context, date time.Time) (*models.DailyStats, error)

	// DeleteArchivedBefore bulk-deletes records archived before the cutoff
	// and returns the number of rows removed. Used only by the retention
	// sweeper.
	DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Utility
	Close() error
}
