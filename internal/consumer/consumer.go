// Package consumer drives ingestion from the event bus: two durable
// JetStream consumers (flight events, reference events) with independent
// offset tracking, manual acknowledgement, and a worker pool per stream.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flightmanagement/flight-archive/internal/messaging"
	natsclient "github.com/flightmanagement/flight-archive/internal/messaging/nats"
	"github.com/flightmanagement/flight-archive/internal/metrics"
	"github.com/flightmanagement/flight-archive/internal/models"
)

// Archiver persists decoded envelopes. A nil record with nil error means
// the event was a duplicate delivery.
type Archiver interface {
	ArchiveEvent(ctx context.Context, env *models.EventEnvelope) (*models.FlightArchive, error)
}

// Config holds consumer configuration. There is no process-wide state: the
// whole surface is passed to New and owned by the Consumer's start/stop
// lifecycle.
type Config struct {
	// GroupBase is the durable consumer name base. The reference stream
	// consumer appends "-reference" so offset tracking is independent.
	GroupBase string

	// Concurrency is the number of workers per stream.
	Concurrency int

	// AckWait is how long the broker waits for an ack before redelivery.
	AckWait time.Duration

	// MaxDeliver bounds delivery attempts per message.
	MaxDeliver int

	// NakDelay is the redelivery backoff applied after a transient
	// processing failure.
	NakDelay time.Duration
}

// DefaultConfig returns sensible consumer defaults.
func DefaultConfig() Config {
	return Config{
		GroupBase:   "flight-archive",
		Concurrency: 3,
		AckWait:     30 * time.Second,
		MaxDeliver:  -1,
		NakDelay:    5 * time.Second,
	}
}

// Consumer consumes the flight and reference event streams.
type Consumer struct {
	js       *natsclient.JetStreamClient
	archiver Archiver
	cfg      Config
	stops    []func()
	logger   *slog.Logger
}

// New creates a Consumer.
func New(js *natsclient.JetStreamClient, archiver Archiver, cfg Config) *Consumer {
	if cfg.GroupBase == "" {
		cfg.GroupBase = "flight-archive"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Consumer{
		js:       js,
		archiver: archiver,
		cfg:      cfg,
		logger:   slog.Default().With(slog.String("component", "consumer")),
	}
}

// Start provisions both streams and their durable consumers, then begins
// consuming. Call Stop to shut down.
func (c *Consumer) Start(ctx context.Context) error {
	streams := []struct {
		stream  natsclient.StreamConfig
		durable string
	}{
		{natsclient.FlightEventsStream, c.cfg.GroupBase},
		{natsclient.ReferenceEventsStream, c.cfg.GroupBase + "-reference"},
	}

	for _, s := range streams {
		if _, err := c.js.CreateOrUpdateStream(ctx, s.stream); err != nil {
			c.Stop()
			return fmt.Errorf("provision stream %s: %w", s.stream.Name, err)
		}

		consumerCfg := natsclient.ConsumerConfig{
			Name:          s.durable,
			AckWait:       c.cfg.AckWait,
			MaxDeliver:    c.cfg.MaxDeliver,
			MaxAckPending: c.cfg.Concurrency * 100,
		}
		if _, err := c.js.CreateOrUpdateConsumer(ctx, s.stream.Name, consumerCfg); err != nil {
			c.Stop()
			return fmt.Errorf("provision consumer %s: %w", s.durable, err)
		}

		streamName := s.stream.Name
		stop, err := c.js.ConsumeMessages(ctx, streamName, s.durable, c.cfg.Concurrency, c.cfg.NakDelay,
			func(ctx context.Context, msg *messaging.Message) error {
				return c.handleMessage(ctx, streamName, msg)
			})
		if err != nil {
			c.Stop()
			return fmt.Errorf("consume %s: %w", streamName, err)
		}
		c.stops = append(c.stops, stop)

		c.logger.Info("consuming stream",
			slog.String("stream", streamName),
			slog.String("durable", s.durable),
			slog.Int("workers", c.cfg.Concurrency))
	}

	return nil
}

// Stop stops all consume contexts.
func (c *Consumer) Stop() {
	for _, stop := range c.stops {
		stop()
	}
	c.stops = nil
	c.logger.Info("consumer stopped")
}

// handleMessage processes one delivery. The return value drives the ack:
// nil acknowledges (success, duplicate, or poison message), an error
// leaves the message unacknowledged for redelivery after a backoff.
func (c *Consumer) handleMessage(ctx context.Context, stream string, msg *messaging.Message) error {
	metrics.EventsConsumed.WithLabelValues(stream).Inc()

	env, err := models.DecodeEnvelope(msg.Data)
	if err != nil {
		// Non-retryable: log enough context to replay manually, then
		// acknowledge so one bad message cannot block the stream.
		c.logger.Error("malformed event skipped",
			slog.String("stream", stream),
			slog.String("subject", msg.Subject),
			slog.String("stream_seq", msg.Metadata["stream_seq"]),
			slog.String("num_delivered", msg.Metadata["num_delivered"]),
			slog.String("error", err.Error()))
		metrics.MalformedEvents.WithLabelValues(stream).Inc()
		return nil
	}

	record, err := c.archiver.ArchiveEvent(ctx, env)
	if err != nil {
		// Transient: leave unacknowledged; the broker redelivers after
		// the NAK delay.
		c.logger.Warn("archive failed, leaving for redelivery",
			slog.String("stream", stream),
			slog.String("event_id", env.EventID),
			slog.String("num_delivered", msg.Metadata["num_delivered"]),
			slog.String("error", err.Error()))
		return err
	}

	if record == nil {
		metrics.DuplicateEvents.WithLabelValues(stream).Inc()
		return nil
	}

	metrics.EventsArchived.WithLabelValues(stream).Inc()
	return nil
}
