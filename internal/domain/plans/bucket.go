package plans

import (
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v75"
)

// Bucket constants (single source of truth)
const (
	BucketNone    = "none"
	BucketFree    = "free"
	BucketMonthly = "monthly"
	BucketYearly  = "yearly"
	BucketOneTime = "oneTime"
)

// TrialDaysKey is the price metadata key holding the trial length in days.
const TrialDaysKey = "trial_days"

// BucketOf returns the display bucket for a price. Paid recurring prices on
// intervals other than month or year are not shown.
func BucketOf(p *stripe.Price) string {
	if p == nil {
		return BucketNone
	}
	if p.UnitAmount == 0 {
		return BucketFree
	}
	if p.Recurring == nil {
		return BucketOneTime
	}
	switch p.Recurring.Interval {
	case stripe.PriceRecurringIntervalMonth:
		return BucketMonthly
	case stripe.PriceRecurringIntervalYear:
		return BucketYearly
	}
	return BucketNone
}

// TrialDays reads the trial length from price metadata. Missing or malformed
// values mean no trial.
func TrialDays(p *stripe.Price) int {
	if p == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Metadata[TrialDaysKey]))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ViewOf maps a processor price to its client view.
func ViewOf(p *stripe.Price) Price {
	v := Price{
		ID:         p.ID,
		Name:       p.Nickname,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}
	if days := TrialDays(p); days > 0 {
		v.Trial = &Trial{Days: days}
	}
	if p.Recurring != nil {
		v.Recurring = &Recurring{
			Interval:      string(p.Recurring.Interval),
			IntervalCount: p.Recurring.IntervalCount,
		}
	}
	return v
}
