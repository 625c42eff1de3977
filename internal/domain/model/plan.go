package model

import (
	"strings"
	"time"

	"freelance-marketplace/internal/domain"
)

// SubscriptionPlan is the tier a subscriber is on. FREE is the default for
// every account; only MONTHLY and YEARLY are purchasable.
type SubscriptionPlan string

const (
	PlanFree    SubscriptionPlan = "FREE"
	PlanMonthly SubscriptionPlan = "MONTHLY"
	PlanYearly  SubscriptionPlan = "YEARLY"
)

// PlanPrice is one row of the static, server-side price table.
// Client-supplied amounts are never trusted; this table is authoritative.
type PlanPrice struct {
	Amount   int64 // minor currency units
	Currency string
	Name     string
}

var planPrices = map[SubscriptionPlan]PlanPrice{
	PlanMonthly: {Amount: 1900, Currency: "usd", Name: "Pro Monthly"},
	PlanYearly:  {Amount: 19000, Currency: "usd", Name: "Pro Yearly"},
}

// ParsePlan validates a client-supplied plan string against the purchasable tiers.
func ParsePlan(s string) (SubscriptionPlan, error) {
	switch SubscriptionPlan(strings.ToUpper(strings.TrimSpace(s))) {
	case PlanMonthly:
		return PlanMonthly, nil
	case PlanYearly:
		return PlanYearly, nil
	default:
		return "", domain.ErrInvalidPlan
	}
}

// PriceFor returns the authoritative price for a purchasable plan.
func PriceFor(plan SubscriptionPlan) (PlanPrice, error) {
	p, ok := planPrices[plan]
	if !ok {
		return PlanPrice{}, domain.ErrInvalidPlan
	}
	return p, nil
}

// RecurringInterval maps a plan to the billing interval used by the upstream
// checkout session ("month" or "year").
func (p SubscriptionPlan) RecurringInterval() string {
	if p == PlanYearly {
		return "year"
	}
	return "month"
}

// NextExpiry computes the subscription end date for an activation happening at
// `now`: one calendar month for MONTHLY, one calendar year for YEARLY. Unlike
// time.AddDate, a day-of-month overflow clamps to the last valid day of the
// target month (Jan 31 -> Feb 28/29, leap Feb 29 + 1y -> Feb 28) instead of
// normalizing into the following month.
func NextExpiry(now time.Time, plan SubscriptionPlan) time.Time {
	months := 1
	if plan == PlanYearly {
		months = 12
	}
	return addCalendarMonths(now, months)
}

func addCalendarMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1

	if last := lastDayOfMonth(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
