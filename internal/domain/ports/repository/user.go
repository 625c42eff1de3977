package repository

import (
	"context"
	"time"

	"freelance-marketplace/internal/domain/model"
)

// -----------------------------
// Subscribers
// -----------------------------

type SubscriberRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscriber) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscriber, error)
	// SetStripeCustomerID persists the lazily created customer id exactly
	// once: the write is guarded so an already-set id is never overwritten.
	SetStripeCustomerID(ctx context.Context, tx Tx, userID, customerID string) error
	// ActivateSubscription writes the three subscription fields this
	// subsystem owns. Nothing else on the user row is touched.
	ActivateSubscription(ctx context.Context, tx Tx, userID string, plan model.SubscriptionPlan, endDate time.Time) error
}
