package repository

import (
	"context"

	"freelance-marketplace/internal/domain/model"
)

// -----------------------------
// Payment intents (ledger)
// -----------------------------

type PaymentIntentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentIntent) error
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.PaymentIntent, error)
	// MarkSucceededIfPending flips pending->succeeded and records the
	// authoritative amount. Returns false when the row was not pending,
	// which callers treat as "already applied", not an error.
	MarkSucceededIfPending(ctx context.Context, tx Tx, sessionID string, amount int64) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.PaymentIntent, error)
	CountByUser(ctx context.Context, tx Tx, userID string) (int, error)
	ListAll(ctx context.Context, tx Tx, offset, limit int) ([]*model.PaymentIntent, error)
	CountAll(ctx context.Context, tx Tx) (int, error)
	// ListSucceededUnapplied returns succeeded ledger rows whose subscriber
	// account does not reflect the purchase; feed for the reconciler.
	ListSucceededUnapplied(ctx context.Context, tx Tx, limit int) ([]*model.PaymentIntent, error)
}
