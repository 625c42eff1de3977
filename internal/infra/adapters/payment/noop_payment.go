package payment

import (
	"context"
	"fmt"
	"sync/atomic"

	"freelance-marketplace/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*NoopGateway)(nil)

// NoopGateway is a stand-in for dev mode and tests: it hands out predictable
// ids without talking to any processor.
type NoopGateway struct {
	seq atomic.Int64
}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	return fmt.Sprintf("cus_noop_%s", userID), nil
}

func (g *NoopGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutSessionParams) (string, string, error) {
	n := g.seq.Add(1)
	id := fmt.Sprintf("cs_noop_%d", n)
	return id, "https://checkout.example.invalid/" + id, nil
}
