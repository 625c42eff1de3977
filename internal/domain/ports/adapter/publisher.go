package adapter

import "context"

// EventPublisher fans out domain events to interested listeners (realtime
// notifications, analytics). Delivery is best effort: callers log failures
// and move on, they never fail a payment flow over it.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}
