package access

import (
	"time"

	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
)

// ComputeEffectiveAccessState folds a customer's subscriptions and lifetime
// purchases into one state for the UI: full|trial|limited|locked.
func ComputeEffectiveAccessState(now time.Time, subs []billing.SubscriptionView, lifetime []string) AccessState {
	if len(lifetime) > 0 {
		return AccessFull
	}

	best := AccessLocked
	for _, s := range subs {
		if st := stateOf(now, s); st.rank() > best.rank() {
			best = st
		}
	}
	return best
}

func stateOf(now time.Time, s billing.SubscriptionView) AccessState {
	switch payments.NormalizeStatus(stripe.SubscriptionStatus(s.Status)) {
	case "active":
		return AccessFull
	case "trialing":
		return AccessTrial
	case "past_due":
		return AccessLimited
	case "canceled":
		// paid-through period still counts
		if s.CurrentPeriodEnd > 0 && now.Before(time.Unix(s.CurrentPeriodEnd, 0)) {
			return AccessFull
		}
		return AccessLocked
	default:
		return AccessLocked
	}
}
