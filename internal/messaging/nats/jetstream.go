// Package nats: JetStream support for durable, persistent event streams.
package nats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/flightmanagement/flight-archive/internal/messaging"
)

// JetStreamClient extends Client with JetStream persistence capabilities.
type JetStreamClient struct {
	*Client
	js jetstream.JetStream
}

// StreamConfig defines a JetStream stream configuration.
type StreamConfig struct {
	// Name is the stream name.
	Name string

	// Subjects are the subjects this stream captures.
	Subjects []string

	// MaxAge is the maximum age of messages in the stream.
	MaxAge time.Duration

	// MaxBytes is the maximum total size of the stream.
	MaxBytes int64

	// MaxMsgs is the maximum number of messages in the stream.
	MaxMsgs int64

	// Retention policy (LimitsPolicy, InterestPolicy, WorkQueuePolicy).
	Retention jetstream.RetentionPolicy

	// Storage type (FileStorage, MemoryStorage).
	Storage jetstream.StorageType
}

// ConsumerConfig defines a durable JetStream consumer configuration.
type ConsumerConfig struct {
	// Name is the durable consumer name; it plays the role of a consumer
	// group id, so offset tracking is independent per consumer.
	Name string

	// FilterSubject filters which messages this consumer receives.
	FilterSubject string

	// AckWait is time to wait for acknowledgment before redelivery.
	AckWait time.Duration

	// MaxDeliver is maximum delivery attempts before giving up.
	MaxDeliver int

	// MaxAckPending bounds unacknowledged messages in flight.
	MaxAckPending int
}

// Predefined stream configurations for the archive service.
var (
	// FlightEventsStream captures flight-domain change events.
	FlightEventsStream = StreamConfig{
		Name:      "FLIGHT_EVENTS",
		Subjects:  []string{"flight.events.>"},
		MaxAge:    7 * 24 * time.Hour,
		MaxBytes:  1024 * 1024 * 1024, // 1GB
		MaxMsgs:   1000000,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	}

	// ReferenceEventsStream captures reference-domain change events.
	ReferenceEventsStream = StreamConfig{
		Name:      "REFERENCE_EVENTS",
		Subjects:  []string{"reference.events.>"},
		MaxAge:    7 * 24 * time.Hour,
		MaxBytes:  256 * 1024 * 1024, // 256MB
		MaxMsgs:   1000000,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	}
)

// NewJetStreamClient creates a JetStream-enabled client.
func NewJetStreamClient(cfg Config) (*JetStreamClient, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(client.conn)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamClient{
		Client: client,
		js:     js,
	}, nil
}

// CreateOrUpdateStream creates or updates a stream.
func (c *JetStreamClient) CreateOrUpdateStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  cfg.Subjects,
		MaxAge:    cfg.MaxAge,
		MaxBytes:  cfg.MaxBytes,
		MaxMsgs:   cfg.MaxMsgs,
		Retention: cfg.Retention,
		Storage:   cfg.Storage,
	}

	stream, err := c.js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.Name, err)
	}

	return stream, nil
}

// CreateOrUpdateConsumer creates or updates a durable consumer with
// explicit acknowledgement.
func (c *JetStreamClient) CreateOrUpdateConsumer(ctx context.Context, streamName string, cfg ConsumerConfig) (jetstream.Consumer, error) {
	consumerCfg := jetstream.ConsumerConfig{
		Name:          cfg.Name,
		Durable:       cfg.Name,
		FilterSubject: cfg.FilterSubject,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: cfg.MaxAckPending,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}

	stream, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", streamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.Name, err)
	}

	return consumer, nil
}

// PublishSync publishes a message and waits for stream acknowledgment.
func (c *JetStreamClient) PublishSync(ctx context.Context, subject string, data []byte) (*jetstream.PubAck, error) {
	return c.js.Publish(ctx, subject, data)
}

// ConsumeMessages starts `workers` consume contexts on the named durable
// consumer, load-balancing deliveries across them. The handler's return
// value drives acknowledgement: nil acks, an error NAKs with nakDelay so
// the broker redelivers after a backoff. Returns a stop function.
func (c *JetStreamClient) ConsumeMessages(ctx context.Context, streamName, consumerName string, workers int, nakDelay time.Duration, handler messaging.MessageHandler) (func(), error) {
	stream, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", streamName, err)
	}

	consumer, err := stream.Consumer(ctx, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer %s: %w", consumerName, err)
	}

	if workers < 1 {
		workers = 1
	}
	if nakDelay <= 0 {
		nakDelay = 5 * time.Second
	}

	consumeCtx, cancel := context.WithCancel(ctx)

	callback := func(msg jetstream.Msg) {
		m := &messaging.Message{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: time.Now(),
			Metadata:  make(map[string]string),
		}

		if headers := msg.Headers(); headers != nil {
			for k := range headers {
				m.Metadata[k] = headers.Get(k)
			}
		}
		if meta, err := msg.Metadata(); err == nil {
			m.Metadata["stream_seq"] = strconv.FormatUint(meta.Sequence.Stream, 10)
			m.Metadata["num_delivered"] = strconv.FormatUint(meta.NumDelivered, 10)
		}

		if err := handler(consumeCtx, m); err != nil {
			// Leave unacknowledged; redeliver after a backoff.
			_ = msg.NakWithDelay(nakDelay)
			return
		}

		_ = msg.Ack()
	}

	stops := make([]jetstream.ConsumeContext, 0, workers)
	for i := 0; i < workers; i++ {
		cons, err := consumer.Consume(callback)
		if err != nil {
			for _, s := range stops {
				s.Stop()
			}
			cancel()
			return nil, fmt.Errorf("failed to start consuming: %w", err)
		}
		stops = append(stops, cons)
	}

	return func() {
		cancel()
		for _, s := range stops {
			s.Stop()
		}
	}, nil
}
