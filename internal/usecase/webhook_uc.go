// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/adapter"
	"freelance-marketplace/internal/domain/ports/repository"
	"freelance-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// Channel the publisher fans successful activations out on.
const ChannelPaymentSucceeded = "payments.succeeded"

// WebhookUseCase turns a verified upstream event into ledger and account
// mutations. Process never returns an error: the HTTP layer has already
// acknowledged the delivery, so every failure is logged and swallowed here
// instead of tricking the sender into a retry storm.
type WebhookUseCase interface {
	Process(ctx context.Context, ev *adapter.WebhookEvent)
}

type webhookUC struct {
	events      repository.ProcessedEventRepository
	intents     repository.PaymentIntentRepository
	subscribers repository.SubscriberRepository
	tm          repository.TransactionManager
	publisher   adapter.EventPublisher
	log         *zerolog.Logger
	now         func() time.Time
}

func NewWebhookUseCase(
	events repository.ProcessedEventRepository,
	intents repository.PaymentIntentRepository,
	subscribers repository.SubscriberRepository,
	tm repository.TransactionManager,
	publisher adapter.EventPublisher,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{
		events:      events,
		intents:     intents,
		subscribers: subscribers,
		tm:          tm,
		publisher:   publisher,
		log:         logger,
		now:         time.Now,
	}
}

func (u *webhookUC) Process(ctx context.Context, ev *adapter.WebhookEvent) {
	log := u.log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	// Idempotency gate. Recording before applying means a crash between the
	// two leaves a recorded-but-unapplied event, which the reconciler
	// repairs from the ledger; redelivery can never double-apply.
	admitted, err := u.events.Record(ctx, nil, &model.ProcessedEvent{
		EventID:   ev.ID,
		EventType: ev.Type,
		Processed: true,
		SessionID: ev.SessionID,
		CreatedAt: u.now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("record processed event failed")
		metrics.IncWebhookEvent(ev.Type, "failed")
		return
	}
	if !admitted {
		log.Info().Msg("event already processed, skipping duplicate")
		metrics.IncWebhookEvent(ev.Type, "skipped")
		return
	}

	switch ev.Type {
	case "checkout.session.completed":
		if err := u.applySubscriptionSuccess(ctx, ev); err != nil {
			log.Error().Err(err).Str("session_id", ev.SessionID).Msg("subscription activation failed")
			metrics.IncWebhookEvent(ev.Type, "failed")
			return
		}
		metrics.IncWebhookEvent(ev.Type, "applied")
	case "payment_intent.succeeded", "invoice.payment_succeeded", "customer.subscription.deleted":
		// Recognized but no additional state change is needed; the
		// checkout completion already carries the activation.
		log.Debug().Msg("recognized event, no action")
		metrics.IncWebhookEvent(ev.Type, "ignored")
	default:
		log.Info().Msg("unhandled event type")
		metrics.IncWebhookEvent(ev.Type, "ignored")
	}
}

// applySubscriptionSuccess marks the ledger row succeeded and activates the
// subscription in one transaction. The intent-status check is a second layer
// of idempotency beyond the event-id gate: it covers a resend of the same
// session under a fresh event id.
func (u *webhookUC) applySubscriptionSuccess(ctx context.Context, ev *adapter.WebhookEvent) error {
	if ev.UserID == "" || ev.Plan == "" {
		// Redelivery cannot supply missing metadata, so this is dropped
		// for manual reconciliation rather than retried.
		return domain.ErrMissingMetadata
	}
	plan, err := model.ParsePlan(ev.Plan)
	if err != nil {
		return err
	}

	var activated bool
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		intent, err := u.intents.FindBySessionID(ctx, tx, ev.SessionID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Defensive fallback: the PENDING row is missing (should not
			// happen in steady state). Create the succeeded row instead
			// of crashing.
			now := u.now()
			currency := ev.Currency
			if currency == "" {
				currency = "usd"
			}
			if err := u.intents.Save(ctx, tx, &model.PaymentIntent{
				ID:              uuid.NewString(),
				UserID:          ev.UserID,
				StripeSessionID: ev.SessionID,
				Amount:          ev.AmountTotal,
				Currency:        currency,
				Plan:            plan,
				Status:          model.PaymentStatusSucceeded,
				CreatedAt:       now,
				UpdatedAt:       now,
			}); err != nil {
				return err
			}
			u.log.Warn().Str("session_id", ev.SessionID).Msg("pending ledger row missing, created succeeded row")
		case err != nil:
			return err
		case intent.Succeeded():
			// Same session resent under a different event id.
			u.log.Info().Str("session_id", ev.SessionID).Msg("session already succeeded, skipping")
			return nil
		default:
			ok, err := u.intents.MarkSucceededIfPending(ctx, tx, ev.SessionID, ev.AmountTotal)
			if err != nil {
				return err
			}
			if !ok {
				u.log.Info().Str("session_id", ev.SessionID).Msg("intent no longer pending, skipping")
				return nil
			}
		}

		expiry := model.NextExpiry(u.now(), plan)
		if err := u.subscribers.ActivateSubscription(ctx, tx, ev.UserID, plan, expiry); err != nil {
			return err
		}
		activated = true
		return nil
	})
	if err != nil {
		return err
	}
	if !activated {
		return nil
	}

	metrics.IncPayment(string(model.PaymentStatusSucceeded))
	metrics.AddPaymentRevenue(ev.Currency, ev.AmountTotal)
	u.log.Info().
		Str("user_id", ev.UserID).
		Str("session_id", ev.SessionID).
		Str("plan", string(plan)).
		Msg("subscription activated")

	// Best-effort fan-out; a publish failure never fails the activation.
	if u.publisher != nil {
		if err := u.publisher.Publish(ctx, ChannelPaymentSucceeded, map[string]interface{}{
			"userId":    ev.UserID,
			"sessionId": ev.SessionID,
			"plan":      string(plan),
			"amount":    ev.AmountTotal,
		}); err != nil {
			u.log.Warn().Err(err).Msg("publish payment event failed")
		}
	}
	return nil
}
