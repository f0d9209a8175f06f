package billing

import (
	"context"

	"billing-dashboard/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
)

const (
	MsgUpgraded       = "Subscription upgraded successfully!"
	MsgDowngraded     = "Subscription downgraded successfully!"
	MsgAlreadyOnPrice = "Subscription is already on this price"
	MsgCancelled      = "Subscription will cancel at billing period end"
	MsgResumed        = "Subscription resumed"
)

// ChangePlan moves a subscription to newPriceID. Upgrades replace the price
// now and invoice the proration off-session; downgrades are deferred to the
// end of the current period through a two-phase schedule.
func (s *Service) ChangePlan(ctx context.Context, customerID, subscriptionID, newPriceID string) (string, error) {
	sub, err := s.ownedSubscription(ctx, customerID, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return "", notFoundError("Subscription not found", nil)
	}
	item := sub.Items.Data[0]
	current := item.Price

	next, err := s.gateway.GetPrice(ctx, newPriceID)
	if err != nil {
		return "", fromGateway(err, "Price not found", "Failed to fetch price")
	}
	if next.ID == current.ID {
		return MsgAlreadyOnPrice, nil
	}
	if next.Recurring == nil {
		return "", validationError("New price is not a recurring price")
	}
	if currentProduct, _ := productOf(current); currentProduct != "" {
		if nextProduct, _ := productOf(next); nextProduct != currentProduct {
			return "", validationError("New price belongs to a different product")
		}
	}

	logger := s.logger.With(
		"customer_id", customerID,
		"subscription_id", sub.ID,
		"from_price_id", current.ID,
		"to_price_id", next.ID,
	)

	if s.compare(current, next) {
		if err := s.dropPendingChange(ctx, customerID, sub.ID); err != nil {
			return "", err
		}
		if _, err := s.gateway.ReplaceSubscriptionPrice(ctx, sub.ID, item.ID, next.ID); err != nil {
			logger.Error("upgrade failed", "error", err)
			return "", fromGateway(err, "Subscription not found", "Failed to upgrade subscription")
		}
		logger.Info("subscription upgraded")
		return MsgUpgraded, nil
	}

	sched, err := s.gateway.FindSchedule(ctx, customerID, sub.ID)
	if err != nil {
		return "", fromGateway(err, "Subscription not found", "Failed to look up subscription schedule")
	}
	if sched == nil {
		sched, err = s.gateway.CreateScheduleFromSubscription(ctx, sub.ID)
		if err != nil {
			logger.Error("schedule create failed", "error", err)
			return "", fromGateway(err, "Subscription not found", "Failed to schedule downgrade")
		}
	}

	phases := []payments.SchedulePhase{
		{PriceID: current.ID, StartDate: sub.CurrentPeriodStart, EndDate: sub.CurrentPeriodEnd},
		{PriceID: next.ID, StartDate: sub.CurrentPeriodEnd},
	}
	if _, err := s.gateway.SetSchedulePhases(ctx, sched.ID, phases); err != nil {
		logger.Error("schedule update failed", "schedule_id", sched.ID, "error", err)
		return "", fromGateway(err, "Subscription schedule not found", "Failed to schedule downgrade")
	}
	logger.Info("downgrade scheduled", "schedule_id", sched.ID, "effective_at", sub.CurrentPeriodEnd)
	return MsgDowngraded, nil
}

// Cancel stops the subscription at the end of the current period and drops
// any pending downgrade. The schedule goes first: the processor refuses
// cancellation changes on a subscription a schedule still manages.
func (s *Service) Cancel(ctx context.Context, customerID, subscriptionID string) (string, error) {
	sub, err := s.ownedSubscription(ctx, customerID, subscriptionID)
	if err != nil {
		return "", err
	}
	if err := s.dropPendingChange(ctx, customerID, sub.ID); err != nil {
		return "", err
	}
	if _, err := s.gateway.SetCancelAtPeriodEnd(ctx, sub.ID, true); err != nil {
		return "", fromGateway(err, "Subscription not found", "Failed to cancel subscription")
	}
	s.logger.Info("subscription set to cancel", "customer_id", customerID, "subscription_id", sub.ID)
	return MsgCancelled, nil
}

func (s *Service) Resume(ctx context.Context, customerID, subscriptionID string) (string, error) {
	sub, err := s.ownedSubscription(ctx, customerID, subscriptionID)
	if err != nil {
		return "", err
	}
	if _, err := s.gateway.SetCancelAtPeriodEnd(ctx, sub.ID, false); err != nil {
		return "", fromGateway(err, "Subscription not found", "Failed to resume subscription")
	}
	s.logger.Info("subscription resumed", "customer_id", customerID, "subscription_id", sub.ID)
	return MsgResumed, nil
}

// ownedSubscription loads a subscription and hides it unless it belongs to
// customerID.
func (s *Service) ownedSubscription(ctx context.Context, customerID, subscriptionID string) (*stripe.Subscription, error) {
	sub, err := s.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fromGateway(err, "Subscription not found", "Failed to fetch subscription")
	}
	if sub.Customer == nil || sub.Customer.ID != customerID {
		s.logger.Warn("subscription requested by another customer", "customer_id", customerID, "subscription_id", subscriptionID)
		return nil, notFoundError("Subscription not found", nil)
	}
	if sub.Status == stripe.SubscriptionStatusCanceled || sub.Status == stripe.SubscriptionStatusIncompleteExpired {
		return nil, validationError("Subscription is no longer active")
	}
	return sub, nil
}

// dropPendingChange removes the live schedule attached to the subscription,
// if there is one. The schedule is released rather than cancelled: cancelling
// a schedule on Stripe also cancels the subscription it controls, while a
// release only detaches the pending phases.
func (s *Service) dropPendingChange(ctx context.Context, customerID, subscriptionID string) error {
	sched, err := s.gateway.FindSchedule(ctx, customerID, subscriptionID)
	if err != nil {
		return fromGateway(err, "Subscription not found", "Failed to look up subscription schedule")
	}
	if sched == nil {
		return nil
	}
	if err := s.gateway.ReleaseSchedule(ctx, sched.ID); err != nil {
		return fromGateway(err, "Subscription schedule not found", "Failed to remove pending plan change")
	}
	s.logger.Info("pending plan change removed", "subscription_id", subscriptionID, "schedule_id", sched.ID)
	return nil
}
