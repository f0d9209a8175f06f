package payments

import (
	"strings"

	"github.com/stripe/stripe-go/v75"
)

// NormalizeStatus folds the processor's subscription statuses into the
// handful the dashboard displays.
func NormalizeStatus(s stripe.SubscriptionStatus) string {
	switch strings.TrimSpace(string(s)) {
	case "":
		return "none"
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(string(s))
	}
}

// IsLive reports whether a subscription in this status still grants access
// or may still be charged.
func IsLive(s stripe.SubscriptionStatus) bool {
	switch NormalizeStatus(s) {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}

// IsScheduleLive reports whether a schedule can still change its subscription.
func IsScheduleLive(s stripe.SubscriptionScheduleStatus) bool {
	return s == stripe.SubscriptionScheduleStatusActive || s == stripe.SubscriptionScheduleStatusNotStarted
}
