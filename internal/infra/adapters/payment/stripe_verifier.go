package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"freelance-marketplace/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*StripeVerifier)(nil)

// StripeVerifier authenticates webhook deliveries with the shared signing
// secret. ConstructEvent recomputes the HMAC over the raw payload bytes, so
// the caller must hand over the request body untouched.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{secret: webhookSecret}
}

func (v *StripeVerifier) VerifyAndParse(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe signature invalid: %w", err)
	}

	out := &adapter.WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = session.ID
		out.AmountTotal = session.AmountTotal
		out.Currency = string(session.Currency)
		if session.Metadata != nil {
			out.UserID = session.Metadata["userId"]
			out.Plan = session.Metadata["plan"]
		}
	}

	return out, nil
}
