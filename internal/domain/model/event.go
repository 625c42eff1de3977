package model

import "time"

// ProcessedEvent is the append-only idempotency record for one upstream
// webhook event. Existence of a row for an event id means the event has been
// admitted; rows are never updated or deleted. The uniqueness constraint on
// EventID is what makes concurrent duplicate deliveries collapse to a single
// admission.
type ProcessedEvent struct {
	EventID   string // Stripe event id, unique
	EventType string
	Processed bool
	SessionID string // set for checkout.session.completed events
	CreatedAt time.Time
}
