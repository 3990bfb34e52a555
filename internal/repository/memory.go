package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flightmanagement/flight-archive/internal/models"
)

// InMemoryRepository is a Repository backed by process memory. It mirrors
// the PostgreSQL semantics, including the unique event id constraint and
// latest-event-per-flight stats, for unit tests and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records []*models.FlightArchive
	byEvent map[string]*models.FlightArchive
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:  1,
		byEvent: map[string]*models.FlightArchive{},
	}
}

// Insert persists one record, enforcing event id uniqueness.
func (r *InMemoryRepository) Insert(_ context.Context, a *models.FlightArchive) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEvent[a.EventID]; exists {
		return ErrDuplicateEvent
	}

	stored := *a
	stored.ID = r.nextID
	r.nextID++
	r.records = append(r.records, &stored)
	r.byEvent[stored.EventID] = &stored
	a.ID = stored.ID
	return nil
}

// ExistsByEventID reports whether an event id is already archived.
func (r *InMemoryRepository) ExistsByEventID(_ context.Context, eventID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byEvent[eventID]
	return exists, nil
}

// FindByFlightNumberAndDate returns one flight's history for a day in
// event-time order.
func (r *InMemoryRepository) FindByFlightNumberAndDate(_ context.Context, flightNumber string, date time.Time) ([]*models.FlightArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(a *models.FlightArchive) bool {
		return a.FlightNumber != nil && *a.FlightNumber == flightNumber && onDate(a.FlightDate, date)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventTime.Before(matches[j].EventTime)
	})
	return matches, nil
}

// FindByDateRange returns a page of records in the range, most recent
// events first.
func (r *InMemoryRepository) FindByDateRange(_ context.Context, start, end time.Time, page, size int) (*models.PagedArchives, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	matches := r.filter(func(a *models.FlightArchive) bool {
		return inDateRange(a.FlightDate, start, end)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventTime.After(matches[j].EventTime)
	})

	total := int64(len(matches))
	from := page * size
	if from > len(matches) {
		from = len(matches)
	}
	to := from + size
	if to > len(matches) {
		to = len(matches)
	}

	return pagedResult(matches[from:to], page, size, total), nil
}

// FindByAirlineAndDateRange returns one airline's records in a date range.
func (r *InMemoryRepository) FindByAirlineAndDateRange(_ context.Context, airlineID int64, start, end time.Time) ([]*models.FlightArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(a *models.FlightArchive) bool {
		return a.AirlineID != nil && *a.AirlineID == airlineID && inDateRange(a.FlightDate, start, end)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventTime.After(matches[j].EventTime)
	})
	return matches, nil
}

// FindByStatusAndDate returns records with the given status on a date.
func (r *InMemoryRepository) FindByStatusAndDate(_ context.Context, status string, date time.Time) ([]*models.FlightArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(a *models.FlightArchive) bool {
		return a.Status != nil && *a.Status == status && onDate(a.FlightDate, date)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventTime.After(matches[j].EventTime)
	})
	return matches, nil
}

// FindDelayedByDate returns records delayed beyond the threshold on a date.
func (r *InMemoryRepository) FindDelayedByDate(_ context.Context, minDelayMinutes int, date time.Time) ([]*models.FlightArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(a *models.FlightArchive) bool {
		return a.DelayMinutes != nil && *a.DelayMinutes > minDelayMinutes && onDate(a.FlightDate, date)
	})
	sort.Slice(matches, func(i, j int) bool {
		return *matches[i].DelayMinutes > *matches[j].DelayMinutes
	})
	return matches, nil
}

// FindRecent returns the most recent records by event time.
func (r *InMemoryRepository) FindRecent(_ context.Context, limit int) ([]*models.FlightArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matches := r.filter(func(*models.FlightArchive) bool { return true })
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventTime.After(matches[j].EventTime)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetDailyStats aggregates over the latest event per flight for the date.
func (r *InMemoryRepository) GetDailyStats(_ context.Context, date time.Time) (*models.DailyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := map[string]*models.FlightArchive{}
	for _, a := range r.records {
		if a.EntityType != models.EntityFlight || a.FlightNumber == nil || !onDate(a.FlightDate, date) {
			continue
		}
		current, seen := latest[*a.FlightNumber]
		if !seen || a.EventTime.After(current.EventTime) ||
			(a.EventTime.Equal(current.EventTime) && a.ArchivedAt.After(current.ArchivedAt)) {
			latest[*a.FlightNumber] = a
		}
	}

	stats := &models.DailyStats{Date: date}
	var delaySum, delayCount int64
	for _, a := range latest {
		stats.TotalFlights++
		switch {
		case a.IsCompleted():
			stats.ArrivedFlights++
		case a.IsCancelled():
			stats.CancelledFlights++
		case a.Status != nil && *a.Status == models.StatusDeparted:
			stats.DepartedFlights++
		}
		if a.IsDelayed() {
			stats.DelayedFlights++
			delaySum += int64(*a.DelayMinutes)
			delayCount++
		}
	}
	if delayCount > 0 {
		stats.AverageDelayMinutes = float64(delaySum) / float64(delayCount)
	}

	return stats, nil
}

// DeleteArchivedBefore removes records archived before the cutoff.
func (r *InMemoryRepository) DeleteArchivedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var removed int64
	for _, a := range r.records {
		if a.ArchivedAt.Before(cutoff) {
			delete(r.byEvent, a.EventID)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.records = kept
	return removed, nil
}

// Close is a no-op for the in-memory repository.
func (r *InMemoryRepository) Close() error {
	return nil
}

func (r *InMemoryRepository) filter(pred func(*models.FlightArchive) bool) []*models.FlightArchive {
	matches := []*models.FlightArchive{}
	for _, a := range r.records {
		if pred(a) {
			copied := *a
			matches = append(matches, &copied)
		}
	}
	return matches
}

func onDate(d *time.Time, date time.Time) bool {
	if d == nil {
		return false
	}
	y1, m1, d1 := d.UTC().Date()
	y2, m2, d2 := date.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func inDateRange(d *time.Time, start, end time.Time) bool {
	if d == nil {
		return false
	}
	day := d.UTC().Truncate(24 * time.Hour)
	return !day.Before(start.UTC().Truncate(24*time.Hour)) && !day.After(end.UTC().Truncate(24*time.Hour))
}
