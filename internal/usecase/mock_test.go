//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/adapter"
	"freelance-marketplace/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Repositories
// =============================

// ---- Mock PaymentIntentRepository ----

type MockPaymentIntentRepo struct {
	mu      sync.Mutex
	bySess  map[string]*model.PaymentIntent
	SaveFunc               func(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error
	FindBySessionIDFunc    func(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentIntent, error)
	MarkSucceededFunc      func(ctx context.Context, tx repository.Tx, sessionID string, amount int64) (bool, error)
	ListSucceededUnappFunc func(ctx context.Context, tx repository.Tx, limit int) ([]*model.PaymentIntent, error)
}

var _ repository.PaymentIntentRepository = (*MockPaymentIntentRepo)(nil)

func NewMockPaymentIntentRepo() *MockPaymentIntentRepo {
	return &MockPaymentIntentRepo{bySess: make(map[string]*model.PaymentIntent)}
}

func (m *MockPaymentIntentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.bySess[p.StripeSessionID] = &cp
	return nil
}

func (m *MockPaymentIntentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentIntent, error) {
	if m.FindBySessionIDFunc != nil {
		return m.FindBySessionIDFunc(ctx, tx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySess[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentIntentRepo) MarkSucceededIfPending(ctx context.Context, tx repository.Tx, sessionID string, amount int64) (bool, error) {
	if m.MarkSucceededFunc != nil {
		return m.MarkSucceededFunc(ctx, tx, sessionID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySess[sessionID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusSucceeded
	p.Amount = amount
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentIntentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentIntent
	for _, p := range m.bySess {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (m *MockPaymentIntentRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.bySess {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockPaymentIntentRepo) ListAll(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentIntent
	for _, p := range m.bySess {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (m *MockPaymentIntentRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySess), nil
}

func (m *MockPaymentIntentRepo) ListSucceededUnapplied(ctx context.Context, tx repository.Tx, limit int) ([]*model.PaymentIntent, error) {
	if m.ListSucceededUnappFunc != nil {
		return m.ListSucceededUnappFunc(ctx, tx, limit)
	}
	return nil, nil
}

func page(in []*model.PaymentIntent, offset, limit int) []*model.PaymentIntent {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// ---- Mock ProcessedEventRepository ----

type MockProcessedEventRepo struct {
	mu         sync.Mutex
	seen       map[string]*model.ProcessedEvent
	RecordFunc func(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error)
}

var _ repository.ProcessedEventRepository = (*MockProcessedEventRepo)(nil)

func NewMockProcessedEventRepo() *MockProcessedEventRepo {
	return &MockProcessedEventRepo{seen: make(map[string]*model.ProcessedEvent)}
}

func (m *MockProcessedEventRepo) Record(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, tx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[ev.EventID]; ok {
		return false, nil
	}
	cp := *ev
	m.seen[ev.EventID] = &cp
	return true, nil
}

func (m *MockProcessedEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.seen[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

// ---- Mock SubscriberRepository ----

type MockSubscriberRepo struct {
	mu                sync.Mutex
	byID              map[string]*model.Subscriber
	ActivateFunc      func(ctx context.Context, tx repository.Tx, userID string, plan model.SubscriptionPlan, endDate time.Time) error
	SetCustomerIDFunc func(ctx context.Context, tx repository.Tx, userID, customerID string) error

	Activations []struct {
		UserID  string
		Plan    model.SubscriptionPlan
		EndDate time.Time
	}
}

var _ repository.SubscriberRepository = (*MockSubscriberRepo)(nil)

func NewMockSubscriberRepo() *MockSubscriberRepo {
	return &MockSubscriberRepo{byID: make(map[string]*model.Subscriber)}
}

func (m *MockSubscriberRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *MockSubscriberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriberRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	if m.SetCustomerIDFunc != nil {
		return m.SetCustomerIDFunc(ctx, tx, userID, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if s.StripeCustomerID == nil || *s.StripeCustomerID == "" {
		s.StripeCustomerID = &customerID
	}
	return nil
}

func (m *MockSubscriberRepo) ActivateSubscription(ctx context.Context, tx repository.Tx, userID string, plan model.SubscriptionPlan, endDate time.Time) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, tx, userID, plan, endDate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	s.IsPremium = true
	s.SubscriptionPlan = plan
	ed := endDate
	s.SubscriptionEndDate = &ed
	m.Activations = append(m.Activations, struct {
		UserID  string
		Plan    model.SubscriptionPlan
		EndDate time.Time
	}{userID, plan, endDate})
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the callback directly; the mocks above have no notion of
// transactional visibility, which is enough for use-case level tests.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock CheckoutGateway ----

type MockCheckoutGateway struct {
	mu sync.Mutex

	CreateCustomerFunc        func(ctx context.Context, email, name, userID string) (string, error)
	CreateCheckoutSessionFunc func(ctx context.Context, p adapter.CheckoutSessionParams) (string, string, error)

	Calls struct {
		CreateCustomer int
		CreateSession  []adapter.CheckoutSessionParams
	}
}

var _ adapter.CheckoutGateway = (*MockCheckoutGateway)(nil)

func (m *MockCheckoutGateway) Name() string { return "mock" }

func (m *MockCheckoutGateway) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	m.mu.Lock()
	m.Calls.CreateCustomer++
	m.mu.Unlock()
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, email, name, userID)
	}
	return "cus_mock_" + userID, nil
}

func (m *MockCheckoutGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutSessionParams) (string, string, error) {
	m.mu.Lock()
	m.Calls.CreateSession = append(m.Calls.CreateSession, p)
	m.mu.Unlock()
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, p)
	}
	return "cs_mock_1", "https://checkout.example.com/cs_mock_1", nil
}

// ---- Mock EventPublisher ----

type MockPublisher struct {
	mu        sync.Mutex
	Published []struct {
		Channel string
		Payload interface{}
	}
	PublishFunc func(ctx context.Context, channel string, payload interface{}) error
}

var _ adapter.EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, channel, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, struct {
		Channel string
		Payload interface{}
	}{channel, payload})
	return nil
}
