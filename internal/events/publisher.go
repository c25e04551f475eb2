// Package events publishes domain events to a message broker. Publishing is best effort:
// callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/marketplace-backend/internal/config"
)

const (
	ReviewSubmitted     = "review.submitted"
	ReviewModerated     = "review.moderated"
	ReviewVerified      = "review.verified"
	IdentityLinked      = "identity.linked"
	ProductCreated      = "product.created"
	LaunchCreated       = "launch.created"
	LaunchDeleted       = "launch.deleted"
	LaunchUpvoteToggled = "launch.upvote.toggled"
	CommentCreated      = "comment.created"
	CommentDeleted      = "comment.deleted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
	// Key groups related events onto the same partition.
	Key string `json:"-"`
}

// New stamps an event with an id and the current time.
func New(eventType, key string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
		Key:        key,
	}
}

func (e Event) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return body, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// NewPublisher returns the publisher selected by cfg.EventBroker.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.EventBroker {
	case "", "none":
		return NopPublisher{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case "rabbitmq", "amqp":
		return NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return nil, fmt.Errorf("unknown event broker %q", cfg.EventBroker)
	}
}
