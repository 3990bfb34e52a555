// Package notifier publishes best-effort update notifications for the
// external push layer. Publishing never blocks or fails the caller's
// commit path; failures are logged and counted only.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flightmanagement/flight-archive/internal/messaging"
	"github.com/flightmanagement/flight-archive/internal/metrics"
)

// Message types published to the update subjects.
const (
	TypeArchived       = "ARCHIVED"
	TypeKpiUpdate      = "KPI_UPDATE"
	TypeBatchProcessed = "BATCH_PROCESSED"
)

// UpdateMessage is the minimal payload live dashboards need to refresh.
type UpdateMessage struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Entity       string      `json:"entity"`
	EntityID     string      `json:"entityId,omitempty"`
	FlightNumber string      `json:"flightNumber,omitempty"`
	EventType    string      `json:"eventType,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Notifier publishes update messages over the bus.
type Notifier struct {
	pub    messaging.Publisher
	logger *slog.Logger
}

// New creates a Notifier on top of a publisher.
func New(pub messaging.Publisher) *Notifier {
	return &Notifier{
		pub:    pub,
		logger: slog.Default().With(slog.String("component", "notifier")),
	}
}

// SendArchiveUpdate announces a newly archived event.
func (n *Notifier) SendArchiveUpdate(ctx context.Context, flightNumber, entityID, eventType string, data interface{}) {
	msg := n.newMessage(TypeArchived, "FLIGHT_ARCHIVE", data)
	msg.EntityID = entityID
	msg.FlightNumber = flightNumber
	msg.EventType = eventType
	n.send(ctx, messaging.SubjectArchiveUpdates, msg)
}

// SendKpiUpdate announces a KPI recomputation.
func (n *Notifier) SendKpiUpdate(ctx context.Context, kpiType string, data interface{}) {
	msg := n.newMessage(TypeKpiUpdate, "KPI", data)
	msg.EventType = kpiType
	n.send(ctx, messaging.SubjectKpiUpdates, msg)
}

// SendBatchUpdate announces a completed batch operation such as a retention
// sweep.
func (n *Notifier) SendBatchUpdate(ctx context.Context, batchType string, data interface{}) {
	msg := n.newMessage(TypeBatchProcessed, "BATCH", data)
	msg.EventType = batchType
	n.send(ctx, messaging.SubjectBatchUpdates, msg)
}

func (n *Notifier) newMessage(msgType, entity string, data interface{}) *UpdateMessage {
	return &UpdateMessage{
		ID:        uuid.NewString(),
		Type:      msgType,
		Entity:    entity,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (n *Notifier) send(ctx context.Context, subject string, msg *UpdateMessage) {
	if n == nil || n.pub == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("failed to marshal update message",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		metrics.NotificationsSent.WithLabelValues(msg.Type, "error").Inc()
		return
	}

	if err := n.pub.Publish(ctx, subject, data); err != nil {
		n.logger.Warn("failed to publish update message",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		metrics.NotificationsSent.WithLabelValues(msg.Type, "error").Inc()
		return
	}

	metrics.NotificationsSent.WithLabelValues(msg.Type, "ok").Inc()
}
