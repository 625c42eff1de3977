package repository

import (
	"context"

	"freelance-marketplace/internal/domain/model"
)

// -----------------------------
// Processed webhook events
// -----------------------------

// ProcessedEventRepository is the idempotency ledger for upstream events.
// Record is the single atomic admission decision: it inserts the row and
// reports whether this call was the first sighting of the event id. An
// insertion conflict means "already processed", never an error, so the
// check-and-insert race under concurrent redelivery is pushed down to the
// store's uniqueness constraint.
type ProcessedEventRepository interface {
	Record(ctx context.Context, tx Tx, ev *model.ProcessedEvent) (admitted bool, err error)
	FindByEventID(ctx context.Context, tx Tx, eventID string) (*model.ProcessedEvent, error)
}
