package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/repository"
)

var _ repository.ProcessedEventRepository = (*processedEventRepo)(nil)

type processedEventRepo struct{ pool *pgxpool.Pool }

func NewProcessedEventRepo(pool *pgxpool.Pool) *processedEventRepo {
	return &processedEventRepo{pool: pool}
}

// Record inserts the idempotency row for an event id. The unique constraint
// on event_id makes this the single atomic admission decision: under
// concurrent delivery of the same id exactly one caller sees admitted=true,
// every other caller gets a conflict, which is reported as admitted=false
// and never as an error.
func (r *processedEventRepo) Record(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error) {
	const q = `
INSERT INTO processed_events (event_id, event_type, processed, session_id, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
ON CONFLICT (event_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, ev.EventID, ev.EventType, ev.Processed, ev.SessionID, ev.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *processedEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.ProcessedEvent, error) {
	const q = `SELECT event_id, event_type, processed, COALESCE(session_id, ''), created_at FROM processed_events WHERE event_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, eventID)
	if err != nil {
		return nil, err
	}

	ev := &model.ProcessedEvent{}
	if err := row.Scan(&ev.EventID, &ev.EventType, &ev.Processed, &ev.SessionID, &ev.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return ev, nil
}
