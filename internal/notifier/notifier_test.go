package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightmanagement/flight-archive/internal/messaging"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{messages: map[string][][]byte{}}
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages[subject] = append(p.messages[subject], data)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) last(subject string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.messages[subject]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func TestSendArchiveUpdate(t *testing.T) {
	pub := newFakePublisher()
	n := New(pub)

	n.SendArchiveUpdate(context.Background(), "LH123", "42", "FLIGHT_ARRIVED", map[string]string{"k": "v"})

	data := pub.last(messaging.SubjectArchiveUpdates)
	require.NotNil(t, data)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeArchived, msg.Type)
	assert.Equal(t, "FLIGHT_ARCHIVE", msg.Entity)
	assert.Equal(t, "LH123", msg.FlightNumber)
	assert.Equal(t, "42", msg.EntityID)
	assert.Equal(t, "FLIGHT_ARRIVED", msg.EventType)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestSendKpiUpdate(t *testing.T) {
	pub := newFakePublisher()
	n := New(pub)

	n.SendKpiUpdate(context.Background(), "DAILY", map[string]int{"totalFlights": 10})

	data := pub.last(messaging.SubjectKpiUpdates)
	require.NotNil(t, data)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeKpiUpdate, msg.Type)
	assert.Equal(t, "KPI", msg.Entity)
	assert.Equal(t, "DAILY", msg.EventType)
}

func TestSendBatchUpdate(t *testing.T) {
	pub := newFakePublisher()
	n := New(pub)

	n.SendBatchUpdate(context.Background(), "ARCHIVE_CLEANUP", map[string]int64{"removed": 12})

	data := pub.last(messaging.SubjectBatchUpdates)
	require.NotNil(t, data)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeBatchProcessed, msg.Type)
	assert.Equal(t, "ARCHIVE_CLEANUP", msg.EventType)
}

func TestSend_PublishFailureDoesNotPanic(t *testing.T) {
	pub := newFakePublisher()
	pub.err = errors.New("broker unavailable")
	n := New(pub)

	// Notifications are best-effort; publish failures must not surface
	n.SendArchiveUpdate(context.Background(), "LH123", "42", "FLIGHT_ARRIVED", nil)
}

func TestSend_NilNotifier(t *testing.T) {
	var n *Notifier
	n.SendKpiUpdate(context.Background(), "DAILY", nil)
}
