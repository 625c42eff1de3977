package adapter

import (
	"context"

	"freelance-marketplace/internal/domain/model"
)

// CheckoutSessionParams carries everything the upstream processor needs to
// open a recurring checkout. UserID and Plan are embedded as session metadata
// so the webhook payload is self-describing without a reverse lookup.
type CheckoutSessionParams struct {
	CustomerID  string
	UserID      string
	Plan        model.SubscriptionPlan
	Amount      int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// CheckoutGateway is the outbound port to the upstream payment processor.
type CheckoutGateway interface {
	Name() string
	CreateCustomer(ctx context.Context, email, name, userID string) (customerID string, err error)
	CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (sessionID, redirectURL string, err error)
}

// WebhookEvent is the processor-neutral shape of a verified upstream event.
// Metadata fields are only populated for checkout completion events.
type WebhookEvent struct {
	ID          string
	Type        string
	SessionID   string
	UserID      string
	Plan        string
	AmountTotal int64
	Currency    string
}

// WebhookVerifier authenticates an inbound delivery against the shared
// signing secret. It must be fed the exact unparsed request body bytes; any
// re-serialization invalidates the signature. A non-nil error means the
// delivery is unauthenticated and nothing may be mutated.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
