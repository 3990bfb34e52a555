// Package messaging provides abstractions for message broker communication.
// It defines interfaces that let the archive service publish and consume
// messages without being coupled to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to a message broker.
type Message struct {
	// Subject is the topic/channel the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs: headers plus stream
	// position (sequence, delivery count) for consumed messages.
	Metadata map[string]string

	// Timestamp is when the message was received.
	Timestamp time.Time
}

// MessageHandler processes a received message.
// Return an error to leave the message unacknowledged for redelivery;
// return nil to acknowledge it.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a fire-and-forget message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Subject names used by the archive service.
const (
	// SubjectArchiveUpdates carries per-insert notifications for live
	// dashboards.
	SubjectArchiveUpdates = "archive.updates"

	// SubjectKpiUpdates carries KPI recomputation notifications.
	SubjectKpiUpdates = "archive.kpi"

	// SubjectBatchUpdates carries batch-operation notifications such as
	// retention sweep completions.
	SubjectBatchUpdates = "archive.batch"
)
