// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/adapter"
	"freelance-marketplace/internal/domain/ports/repository"
	"freelance-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// SessionStatus is the result of the polling fallback. It is computed from
// the local ledger only; the upstream processor is never consulted.
type SessionStatus struct {
	IsPaid    bool `json:"isPaid"`
	Processed bool `json:"processed"`
}

// CheckoutResult is returned to the caller for the redirect.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type PaymentUseCase interface {
	// StartCheckout lazily ensures the upstream customer, opens a recurring
	// checkout session and persists a PENDING ledger row before returning.
	StartCheckout(ctx context.Context, userID, plan string) (*CheckoutResult, error)
	// VerifySession resolves a session's payment state from the local
	// ledger. Read-only: it never mutates subscriber state and never
	// trusts a client-supplied "paid" claim.
	VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error)
	// ListMyPayments returns one subscriber's ledger rows, newest first.
	ListMyPayments(ctx context.Context, userID string, offset, limit int) ([]*model.PaymentIntent, int, error)
	// ListAllPayments is the admin view over the whole ledger.
	ListAllPayments(ctx context.Context, offset, limit int) ([]*model.PaymentIntent, int, error)
}

type paymentUC struct {
	intents     repository.PaymentIntentRepository
	subscribers repository.SubscriberRepository
	gateway     adapter.CheckoutGateway
	frontendURL string
	log         *zerolog.Logger
}

func NewPaymentUseCase(
	intents repository.PaymentIntentRepository,
	subscribers repository.SubscriberRepository,
	gateway adapter.CheckoutGateway,
	frontendURL string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		intents:     intents,
		subscribers: subscribers,
		gateway:     gateway,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         logger,
	}
}

func (u *paymentUC) StartCheckout(ctx context.Context, userID, planStr string) (*CheckoutResult, error) {
	plan, err := model.ParsePlan(planStr)
	if err != nil {
		return nil, err
	}
	price, err := model.PriceFor(plan)
	if err != nil {
		return nil, err
	}

	sub, err := u.subscribers.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	// Lazily create the upstream customer. The persisted id is guarded so a
	// concurrent first checkout cannot overwrite it; an upstream customer
	// created but never persisted is retryable, not an invariant violation.
	customerID := ""
	if sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		customerID = *sub.StripeCustomerID
	} else {
		customerID, err = u.gateway.CreateCustomer(ctx, sub.Email, sub.Name, sub.ID)
		if err != nil {
			metrics.IncCheckoutSession(string(plan), "failed")
			return nil, err
		}
		if err := u.subscribers.SetStripeCustomerID(ctx, nil, sub.ID, customerID); err != nil {
			u.log.Warn().Err(err).Str("user_id", sub.ID).Msg("persist stripe customer id failed")
		}
	}

	sessionID, redirectURL, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutSessionParams{
		CustomerID:  customerID,
		UserID:      sub.ID,
		Plan:        plan,
		Amount:      price.Amount,
		Currency:    price.Currency,
		ProductName: price.Name,
		SuccessURL:  u.frontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   u.frontendURL + "/payment/cancel",
	})
	if err != nil {
		metrics.IncCheckoutSession(string(plan), "failed")
		return nil, err
	}

	// The PENDING row is written before we return: the ledger must have a
	// record even if the subscriber abandons checkout or the webhook beats
	// this response.
	now := time.Now()
	intent := &model.PaymentIntent{
		ID:              uuid.NewString(),
		UserID:          sub.ID,
		StripeSessionID: sessionID,
		Amount:          price.Amount,
		Currency:        price.Currency,
		Plan:            plan,
		Status:          model.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.intents.Save(ctx, nil, intent); err != nil {
		return nil, err
	}

	metrics.IncCheckoutSession(string(plan), "created")
	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().
		Str("user_id", sub.ID).
		Str("session_id", sessionID).
		Str("plan", string(plan)).
		Msg("checkout session created")

	return &CheckoutResult{SessionID: sessionID, URL: redirectURL}, nil
}

func (u *paymentUC) VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	intent, err := u.intents.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No ledger row means not paid, whatever the caller claims.
			return &SessionStatus{IsPaid: false, Processed: false}, nil
		}
		return nil, err
	}
	paid := intent.Succeeded()
	return &SessionStatus{IsPaid: paid, Processed: paid}, nil
}

func (u *paymentUC) ListMyPayments(ctx context.Context, userID string, offset, limit int) ([]*model.PaymentIntent, int, error) {
	items, err := u.intents.ListByUser(ctx, nil, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.intents.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (u *paymentUC) ListAllPayments(ctx context.Context, offset, limit int) ([]*model.PaymentIntent, int, error) {
	items, err := u.intents.ListAll(ctx, nil, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.intents.CountAll(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
