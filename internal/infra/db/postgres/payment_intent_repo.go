package postgres

import (
	"errors"

	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentIntentRepository = (*paymentIntentRepo)(nil)

type paymentIntentRepo struct{ pool *pgxpool.Pool }

func NewPaymentIntentRepo(pool *pgxpool.Pool) *paymentIntentRepo {
	return &paymentIntentRepo{pool: pool}
}

const paymentIntentCols = `id, user_id, stripe_session_id, amount, currency, plan, status, created_at, updated_at`

func scanPaymentIntent(row pgx.Row) (*model.PaymentIntent, error) {
	p := &model.PaymentIntent{}
	if err := row.Scan(&p.ID, &p.UserID, &p.StripeSessionID, &p.Amount, &p.Currency, &p.Plan, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentIntentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	// stripe_session_id carries a unique constraint: at most one ledger row
	// per checkout session, enforced at creation.
	const q = `
INSERT INTO payment_intents (
  id, user_id, stripe_session_id, amount, currency, plan, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  amount=$4, currency=$5, plan=$6, status=$7, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.StripeSessionID, p.Amount, p.Currency, p.Plan, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentIntentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentIntent, error) {
	q := `SELECT ` + paymentIntentCols + ` FROM payment_intents WHERE stripe_session_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	return scanPaymentIntent(row)
}

// MarkSucceededIfPending atomically flips pending->succeeded, recording the
// authoritative amount from the upstream event. A zero row count means the
// intent was missing or already terminal.
func (r *paymentIntentRepo) MarkSucceededIfPending(ctx context.Context, tx repository.Tx, sessionID string, amount int64) (bool, error) {
	const q = `
UPDATE payment_intents
   SET status = 'succeeded',
       amount = $2,
       updated_at = NOW()
 WHERE stripe_session_id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, sessionID, amount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentIntentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.PaymentIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentIntentCols + ` FROM payment_intents WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	return r.list(ctx, tx, q, userID, offset, limit)
}

func (r *paymentIntentRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM payment_intents WHERE user_id=$1;`
	return r.count(ctx, tx, q, userID)
}

func (r *paymentIntentRepo) ListAll(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PaymentIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentIntentCols + ` FROM payment_intents ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	return r.list(ctx, tx, q, offset, limit)
}

func (r *paymentIntentRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM payment_intents;`
	return r.count(ctx, tx, q)
}

// ListSucceededUnapplied joins the ledger against subscriber accounts to find
// succeeded payments whose activation never landed (crash between recording
// the event and writing the account). The reconciler replays these.
func (r *paymentIntentRepo) ListSucceededUnapplied(ctx context.Context, tx repository.Tx, limit int) ([]*model.PaymentIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + paymentIntentCols + `
  FROM payment_intents p
  JOIN users u ON u.id = p.user_id
 WHERE p.status = 'succeeded'
   AND (u.is_premium = FALSE OR u.subscription_end_date IS NULL OR u.subscription_end_date < NOW())
 ORDER BY p.updated_at ASC
 LIMIT $1;`
	return r.list(ctx, tx, q, limit)
}

func (r *paymentIntentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.PaymentIntent, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentIntent
	for rows.Next() {
		p, err := scanPaymentIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentIntentRepo) count(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
