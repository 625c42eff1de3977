package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/repository"
)

// Reconciler periodically compares the payment ledger against subscriber
// accounts and replays activations that never landed. This covers the known
// gap where the processed-event row was written but the process died before
// the account mutation committed: the ledger is authoritative, redelivery is
// blocked by the idempotency gate, so someone has to finish the job.
type Reconciler struct {
	intents     repository.PaymentIntentRepository
	subscribers repository.SubscriberRepository
	interval    time.Duration
	batch       int
	log         *zerolog.Logger
	now         func() time.Time
}

func NewReconciler(
	intents repository.PaymentIntentRepository,
	subscribers repository.SubscriberRepository,
	interval time.Duration,
	batch int,
	logger *zerolog.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &Reconciler{
		intents:     intents,
		subscribers: subscribers,
		interval:    interval,
		batch:       batch,
		log:         logger,
		now:         time.Now,
	}
}

func (w *Reconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Reconciler) tick(ctx context.Context) {
	unapplied, err := w.intents.ListSucceededUnapplied(ctx, nil, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list unapplied failed")
		return
	}
	for _, p := range unapplied {
		// Expired accounts with a succeeded ledger row within the current
		// period are repaired from the activation timestamp, so the end
		// date matches what the webhook would have written.
		expiry := model.NextExpiry(p.UpdatedAt, p.Plan)
		if !expiry.After(w.now()) {
			// The purchase has genuinely run out; nothing to repair.
			continue
		}
		if err := w.subscribers.ActivateSubscription(ctx, nil, p.UserID, p.Plan, expiry); err != nil {
			w.log.Error().Err(err).
				Str("user_id", p.UserID).
				Str("session_id", p.StripeSessionID).
				Msg("reconciler: activation replay failed")
			continue
		}
		w.log.Info().
			Str("user_id", p.UserID).
			Str("session_id", p.StripeSessionID).
			Str("plan", string(p.Plan)).
			Msg("reconciler: repaired unapplied activation")
	}
}
