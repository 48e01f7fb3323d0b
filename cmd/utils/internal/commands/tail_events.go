package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/burger/pkg"
	"github.com/appetiteclub/burger/pkg/event"
)

const (
	tailConsumerPrefix = "burger-utils-tail"
	tailIdleExpiry     = 5 * time.Minute
)

// TailEvents logs every order and feed event published on NATS until ctx is
// done. With nats.stream.enabled the retained history is replayed first.
func TailEvents(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	handle := logEvent(logger)

	if config.GetStringOrDef("nats.stream.enabled", "false") == "true" {
		return tailStream(ctx, natsURL, handle, logger)
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer subscriber.Close()

	for _, topic := range event.StreamSubjects {
		if err := subscriber.Subscribe(ctx, topic, handle); err != nil {
			return err
		}
	}

	logger.Info("Tailing events", "url", natsURL, "topics", event.StreamSubjects)
	<-ctx.Done()
	return nil
}

func tailStream(ctx context.Context, natsURL string, handle func(context.Context, []byte) error, logger aqm.Logger) error {
	stream, err := pkg.NewNATSStream(ctx, tailStreamConfig(natsURL, uuid.NewString()), logger)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	defer stream.Close()

	history, err := stream.Fetch(ctx, 0)
	if err != nil {
		logger.Info("Replay incomplete", "error", err)
	}
	for _, msg := range history {
		if err := handle(ctx, msg.Data); err != nil {
			logger.Error("Cannot log replayed event", "subject", msg.Subject, "sequence", msg.Sequence, "error", err)
		}
	}
	logger.Info("Replayed retained events", "count", len(history))

	if err := stream.SubscribeStream(ctx, handle); err != nil {
		return err
	}

	logger.Info("Tailing event stream", "url", natsURL, "stream", event.StreamName)
	<-ctx.Done()
	return nil
}

// tailStreamConfig gives every run its own consumer so each run replays the
// full retained history. Abandoned consumers expire after tailIdleExpiry.
func tailStreamConfig(natsURL, runID string) pkg.NATSStreamConfig {
	return pkg.NATSStreamConfig{
		URL:               natsURL,
		StreamName:        event.StreamName,
		Subjects:          event.StreamSubjects,
		ConsumerName:      tailConsumerPrefix + "-" + runID,
		MaxAge:            24 * time.Hour,
		InactiveThreshold: tailIdleExpiry,
	}
}

type eventHeader struct {
	EventType string `json:"event_type"`
}

// logEvent decodes a bus payload by its event_type and logs its key fields.
// Unknown types are logged and acknowledged.
func logEvent(logger aqm.Logger) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var header eventHeader
		if err := json.Unmarshal(payload, &header); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}

		switch header.EventType {
		case event.EventOrderSubmitted:
			var evt event.OrderSubmittedEvent
			if err := json.Unmarshal(payload, &evt); err != nil {
				return fmt.Errorf("decode order submitted event: %w", err)
			}
			logger.Info("Order submitted",
				"number", evt.OrderNumber,
				"name", evt.OrderName,
				"ingredients", len(evt.Ingredients),
				"total_price", evt.TotalPrice,
				"occurred_at", evt.OccurredAt,
			)

		case event.EventFeedSnapshot:
			var evt event.FeedSnapshotEvent
			if err := json.Unmarshal(payload, &evt); err != nil {
				return fmt.Errorf("decode feed snapshot event: %w", err)
			}
			logger.Info("Feed snapshot",
				"feed", evt.Feed,
				"orders", len(evt.Orders),
				"total", evt.Total,
				"total_today", evt.TotalToday,
				"occurred_at", evt.OccurredAt,
			)

		default:
			logger.Info("Skipping event of unknown type", "event_type", header.EventType)
		}
		return nil
	}
}
