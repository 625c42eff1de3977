package model

import (
	"time"

	"freelance-marketplace/internal/domain"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleClient     UserRole = "client"
	RoleFreelancer UserRole = "freelancer"
	RoleAdmin      UserRole = "admin"
)

// Subscriber is the subset of the marketplace user this subsystem owns writes
// for: the three subscription fields plus the lazily created Stripe customer
// id. The rest of the user entity belongs to the account system.
type Subscriber struct {
	ID                  string // UUID
	Email               string
	Name                string
	Role                UserRole
	IsPremium           bool
	SubscriptionPlan    SubscriptionPlan
	SubscriptionEndDate *time.Time
	StripeCustomerID    *string // nil until first checkout
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewSubscriber(id, email, name string, role UserRole) (*Subscriber, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscriber{
		ID:               id,
		Email:            email,
		Name:             name,
		Role:             role,
		SubscriptionPlan: PlanFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// PremiumActive reports whether the account currently has a live paid
// subscription. The is_premium flag alone is not enough: expiry is a
// read-time concern, not something activation rewinds.
func (s *Subscriber) PremiumActive(now time.Time) bool {
	if s == nil || !s.IsPremium || s.SubscriptionPlan == PlanFree {
		return false
	}
	return s.SubscriptionEndDate != nil && s.SubscriptionEndDate.After(now)
}
