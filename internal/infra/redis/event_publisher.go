package redis

import (
	"context"
	"encoding/json"

	"freelance-marketplace/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*EventPublisher)(nil)

// EventPublisher fans out domain events over Redis pub/sub. Consumers are the
// realtime notification service; there is deliberately no delivery guarantee,
// callers treat publish failures as ignorable.
type EventPublisher struct {
	client RedisClient
}

func NewEventPublisher(client RedisClient) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channel, b)
}
