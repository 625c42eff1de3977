package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/repository"
)

var _ repository.SubscriberRepository = (*subscriberRepo)(nil)

type subscriberRepo struct{ pool *pgxpool.Pool }

func NewSubscriberRepo(pool *pgxpool.Pool) *subscriberRepo {
	return &subscriberRepo{pool: pool}
}

const subscriberCols = `id, email, name, role, is_premium, subscription_plan, subscription_end_date, stripe_customer_id, created_at, updated_at`

func (r *subscriberRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscriber) error {
	const q = `
INSERT INTO users (
  id, email, name, role, is_premium, subscription_plan, subscription_end_date, stripe_customer_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  email=$2, name=$3, role=$4, updated_at=$10;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Email, s.Name, s.Role, s.IsPremium, s.SubscriptionPlan, s.SubscriptionEndDate, s.StripeCustomerID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM users WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	s := &model.Subscriber{}
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Role, &s.IsPremium, &s.SubscriptionPlan, &s.SubscriptionEndDate, &s.StripeCustomerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// SetStripeCustomerID memoizes the lazily created customer id. The guard on
// stripe_customer_id IS NULL means a concurrent first checkout can never
// overwrite an id that already stuck.
func (r *subscriberRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	const q = `UPDATE users SET stripe_customer_id=$2, updated_at=NOW() WHERE id=$1 AND stripe_customer_id IS NULL;`
	_, err := execSQL(ctx, r.pool, tx, q, userID, customerID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// ActivateSubscription writes exactly the three subscription fields owned by
// the payment subsystem.
func (r *subscriberRepo) ActivateSubscription(ctx context.Context, tx repository.Tx, userID string, plan model.SubscriptionPlan, endDate time.Time) error {
	const q = `
UPDATE users
   SET is_premium = TRUE,
       subscription_plan = $2,
       subscription_end_date = $3,
       updated_at = NOW()
 WHERE id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, userID, plan, endDate)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
