package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // checkout session created; awaiting webhook
	PaymentStatusSucceeded PaymentStatus = "succeeded" // activation applied; terminal
	PaymentStatusFailed    PaymentStatus = "failed"    // checkout expired or payment failed
)

// PaymentIntent is the local ledger row tracking one checkout attempt.
// There is at most one row per Stripe checkout session; a row is created
// PENDING before the caller is ever redirected, so the ledger has a record
// even when the subscriber abandons checkout or the webhook races the
// HTTP response.
type PaymentIntent struct {
	ID              string // UUID
	UserID          string // owning subscriber
	StripeSessionID string // unique; correlates with the checkout session
	Amount          int64  // minor currency units
	Currency        string
	Plan            SubscriptionPlan // MONTHLY | YEARLY
	Status          PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *PaymentIntent) Succeeded() bool {
	return p != nil && p.Status == PaymentStatusSucceeded
}
