package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	defaultFetchBatch = 1000
	defaultMaxDeliver = 5
)

// StreamMessage is one retained event read back from a stream.
type StreamMessage struct {
	Subject   string
	Data      []byte
	Sequence  uint64
	Timestamp time.Time
}

// NATSStreamConfig configures a JetStream-backed event stream.
type NATSStreamConfig struct {
	URL          string
	StreamName   string
	Subjects     []string
	ConsumerName string
	MaxAge       time.Duration
	// MaxMsgs of zero keeps every message until MaxAge drops it.
	MaxMsgs int64
	// MaxDeliver bounds redeliveries of a message the handler keeps
	// rejecting. Zero means defaultMaxDeliver.
	MaxDeliver int
	// InactiveThreshold removes the consumer once nobody has read from it
	// for that long. Zero keeps it until deleted.
	InactiveThreshold time.Duration
}

// NATSStream publishes burger events to JetStream so they survive restarts,
// and lets operators replay them through a durable consumer.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	logger   aqm.Logger
}

func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger aqm.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("stream %s has no subjects", cfg.StreamName)
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: cfg.Subjects,
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	s := &NATSStream{conn: conn, js: js, logger: logger}

	if cfg.ConsumerName == "" {
		return s, nil
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig(cfg))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.ConsumerName, err)
	}
	s.consumer = consumer

	return s, nil
}

func consumerConfig(cfg NATSStreamConfig) jetstream.ConsumerConfig {
	maxDeliver := cfg.MaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = defaultMaxDeliver
	}
	return jetstream.ConsumerConfig{
		Name:              cfg.ConsumerName,
		Durable:           cfg.ConsumerName,
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		FilterSubjects:    cfg.Subjects,
		MaxDeliver:        maxDeliver,
		InactiveThreshold: cfg.InactiveThreshold,
	}
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Fetch reads up to limit retained messages through the durable consumer.
func (s *NATSStream) Fetch(ctx context.Context, limit int) ([]StreamMessage, error) {
	if s.consumer == nil {
		return nil, fmt.Errorf("stream has no consumer")
	}
	if limit <= 0 {
		limit = defaultFetchBatch
	}

	batch, err := s.consumer.Fetch(limit, jetstream.FetchMaxWait(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []StreamMessage
	for msg := range batch.Messages() {
		metadata, err := msg.Metadata()
		if err != nil {
			_ = msg.Ack()
			continue
		}

		messages = append(messages, StreamMessage{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Sequence:  metadata.Sequence.Stream,
			Timestamp: metadata.Timestamp,
		})
		_ = msg.Ack()
	}
	if err := batch.Error(); err != nil {
		return messages, fmt.Errorf("fetch interrupted: %w", err)
	}

	return messages, nil
}

// SubscribeStream delivers new messages until ctx is done. A failing handler
// gets the message redelivered, up to MaxDeliver times.
func (s *NATSStream) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	if s.consumer == nil {
		return fmt.Errorf("stream has no consumer")
	}

	consumeCtx, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed", "subject", msg.Subject(), "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()
	return nil
}

func (s *NATSStream) Close() error {
	s.conn.Close()
	return nil
}
