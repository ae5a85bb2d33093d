package services

import (
	"context"
	"fmt"
	"log/slog"

	"Reco/models"
	"Reco/shared/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// ReviewCreatedTopic is where review events are published.
const ReviewCreatedTopic = "reviews.created"

// WatermillPublisher publishes review events as JSON messages.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: ReviewCreatedTopic}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event models.ReviewCreated) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event_type", "review.created")
	msg.Metadata.Set("review_id", event.ReviewID.String())
	msg.Metadata.Set("title_id", event.TitleID.String())
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// DecodeReviewCreated parses a message produced by WatermillPublisher.
func DecodeReviewCreated(msg *message.Message) (models.ReviewCreated, error) {
	var event models.ReviewCreated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return models.ReviewCreated{}, fmt.Errorf("failed to decode review event %s: %w", msg.UUID, err)
	}
	return event, nil
}

// LogReviewEvents consumes review events until ctx is done, logging each
// one. Malformed payloads are logged and acked so they are not redelivered.
func LogReviewEvents(ctx context.Context, subscriber message.Subscriber, l *slog.Logger) error {
	l = logger.Component(l, "review-events")

	messages, err := subscriber.Subscribe(ctx, ReviewCreatedTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ReviewCreatedTopic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := DecodeReviewCreated(msg)
			if err != nil {
				l.Warn("Dropping malformed review event", "error", err)
				msg.Ack()
				continue
			}
			l.Info("Review event received",
				"review_id", event.ReviewID,
				"title_id", event.TitleID,
				"user_id", event.UserID,
				"rating", event.Rating)
			msg.Ack()
		}
	}
}
