//go:build !integration

package web

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"freelance-marketplace/internal/config"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/adapter"
	payAdapters "freelance-marketplace/internal/infra/adapters/payment"
	"freelance-marketplace/internal/usecase"
)

const testJWTSecret = "test-jwt-secret"
const testWebhookSecret = "whsec_test_secret"

// --- Mock use cases ---

type mockPaymentUC struct {
	StartCheckoutFunc   func(ctx context.Context, userID, plan string) (*usecase.CheckoutResult, error)
	VerifySessionFunc   func(ctx context.Context, sessionID string) (*usecase.SessionStatus, error)
	ListMyPaymentsFunc  func(ctx context.Context, userID string, offset, limit int) ([]*model.PaymentIntent, int, error)
	ListAllPaymentsFunc func(ctx context.Context, offset, limit int) ([]*model.PaymentIntent, int, error)
}

var _ usecase.PaymentUseCase = (*mockPaymentUC)(nil)

func (m *mockPaymentUC) StartCheckout(ctx context.Context, userID, plan string) (*usecase.CheckoutResult, error) {
	if m.StartCheckoutFunc != nil {
		return m.StartCheckoutFunc(ctx, userID, plan)
	}
	return &usecase.CheckoutResult{SessionID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

func (m *mockPaymentUC) VerifySession(ctx context.Context, sessionID string) (*usecase.SessionStatus, error) {
	if m.VerifySessionFunc != nil {
		return m.VerifySessionFunc(ctx, sessionID)
	}
	return &usecase.SessionStatus{}, nil
}

func (m *mockPaymentUC) ListMyPayments(ctx context.Context, userID string, offset, limit int) ([]*model.PaymentIntent, int, error) {
	if m.ListMyPaymentsFunc != nil {
		return m.ListMyPaymentsFunc(ctx, userID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockPaymentUC) ListAllPayments(ctx context.Context, offset, limit int) ([]*model.PaymentIntent, int, error) {
	if m.ListAllPaymentsFunc != nil {
		return m.ListAllPaymentsFunc(ctx, offset, limit)
	}
	return nil, 0, nil
}

// mockWebhookUC captures processed events; Done is closed-ish via WaitGroup so
// tests can wait for the detached processing goroutine.
type mockWebhookUC struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	Events []*adapter.WebhookEvent
}

var _ usecase.WebhookUseCase = (*mockWebhookUC)(nil)

func (m *mockWebhookUC) Expect(n int) { m.wg.Add(n) }

func (m *mockWebhookUC) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *mockWebhookUC) Process(ctx context.Context, ev *adapter.WebhookEvent) {
	m.mu.Lock()
	m.Events = append(m.Events, ev)
	m.mu.Unlock()
	m.wg.Done()
}

func (m *mockWebhookUC) Processed() []*adapter.WebhookEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*adapter.WebhookEvent, len(m.Events))
	copy(out, m.Events)
	return out
}

// --- Test server assembly ---

type serverTestDeps struct {
	paymentUC *mockPaymentUC
	webhookUC *mockWebhookUC
	auth      *AuthManager
	server    *Server
}

func newTestServer() *serverTestDeps {
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{Port: 0, RequestTimeout: 5 * time.Second},
	}
	d := &serverTestDeps{
		paymentUC: &mockPaymentUC{},
		webhookUC: &mockWebhookUC{},
		auth:      NewAuthManager(testJWTSecret, time.Hour),
	}
	d.server = NewServer(cfg, d.paymentUC, d.webhookUC, payAdapters.NewStripeVerifier(testWebhookSecret), d.auth, nil, &logger)
	return d
}

func (d *serverTestDeps) bearer(userID string, role model.UserRole) string {
	tok, err := d.auth.Mint(userID, role)
	if err != nil {
		panic(err)
	}
	return "Bearer " + tok
}
