package archiver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightmanagement/flight-archive/internal/models"
	"github.com/flightmanagement/flight-archive/internal/notifier"
	"github.com/flightmanagement/flight-archive/internal/repository"
)

// capturePublisher records published subjects for notification assertions.
type capturePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *capturePublisher) Publish(_ context.Context, subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.subjects...)
}

func testEnvelope(t *testing.T, eventID string) *models.EventEnvelope {
	t.Helper()
	env, err := models.DecodeEnvelope([]byte(`{
		"eventId": "` + eventID + `",
		"eventType": "FLIGHT_ARRIVED",
		"eventTime": "2026-08-30T14:05:00Z",
		"entityType": "FLIGHT",
		"entityId": "42",
		"payload": {
			"id": 42,
			"flightNumber": "LH123",
			"flightDate": "2026-08-30",
			"status": "ARRIVED",
			"delayMinutes": 10
		},
		"version": "1.0"
	}`))
	require.NoError(t, err)
	return env
}

func TestArchiveEvent(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	pub := &capturePublisher{}
	svc := NewService(repo, notifier.New(pub))

	record, err := svc.ArchiveEvent(context.Background(), testEnvelope(t, "e-1"))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotZero(t, record.ID)

	exists, err := repo.ExistsByEventID(context.Background(), "e-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Insert notification went out
	assert.Contains(t, pub.published(), "archive.updates")
}

func TestArchiveEvent_DuplicateIsNoOp(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.ArchiveEvent(ctx, testEnvelope(t, "e-1"))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Redelivery of the same event id archives nothing and returns no
	// error, so the caller acknowledges.
	second, err := svc.ArchiveEvent(ctx, testEnvelope(t, "e-1"))
	require.NoError(t, err)
	assert.Nil(t, second)

	history, err := svc.GetFlightHistory(ctx, "LH123", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// failingRepo simulates an unavailable store.
type failingRepo struct {
	repository.Repository
	existsErr error
	insertErr error
}

func (r *failingRepo) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.Repository.ExistsByEventID(ctx, eventID)
}

func (r *failingRepo) Insert(ctx context.Context, a *models.FlightArchive) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	return r.Repository.Insert(ctx, a)
}

func TestArchiveEvent_StorageFailureIsReturned(t *testing.T) {
	repo := &failingRepo{
		Repository: repository.NewInMemoryRepository(),
		insertErr:  repository.ErrStorageUnavailable,
	}
	svc := NewService(repo, nil)

	_, err := svc.ArchiveEvent(context.Background(), testEnvelope(t, "e-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrStorageUnavailable)
}

func TestArchiveEvent_DedupCheckFailureIsReturned(t *testing.T) {
	repo := &failingRepo{
		Repository: repository.NewInMemoryRepository(),
		existsErr:  errors.New("connection refused"),
	}
	svc := NewService(repo, nil)

	_, err := svc.ArchiveEvent(context.Background(), testEnvelope(t, "e-1"))
	assert.Error(t, err)
}

func TestArchiveEvent_ConcurrentDuplicateInsert(t *testing.T) {
	// The dedup gate passes but the insert hits the unique constraint:
	// same idempotent no-op as the gate catching it.
	repo := &failingRepo{
		Repository: repository.NewInMemoryRepository(),
		insertErr:  repository.ErrDuplicateEvent,
	}
	svc := NewService(repo, nil)

	record, err := svc.ArchiveEvent(context.Background(), testEnvelope(t, "e-1"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCleanupOldRecords(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	pub := &capturePublisher{}
	svc := NewService(repo, notifier.New(pub))
	ctx := context.Background()

	old := MapEventToArchive(testEnvelope(t, "e-old"), time.Now().UTC().AddDate(0, 0, -40))
	fresh := MapEventToArchive(testEnvelope(t, "e-new"), time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, fresh))

	removed, err := svc.CleanupOldRecords(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The fresh record survives, the old event id is reusable
	exists, err := repo.ExistsByEventID(ctx, "e-new")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByEventID(ctx, "e-old")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Contains(t, pub.published(), "archive.batch")
}

func TestCleanupOldRecords_NothingToRemove(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	svc := NewService(repo, nil)

	removed, err := svc.CleanupOldRecords(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
