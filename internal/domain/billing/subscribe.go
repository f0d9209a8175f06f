package billing

import (
	"context"

	"billing-dashboard/internal/domain/plans"
	"billing-dashboard/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
)

// ListSubscriptions returns the customer's subscriptions as the processor
// lists them (cancelled ones excluded).
func (s *Service) ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionView, error) {
	subs, err := s.gateway.ListSubscriptions(ctx, customerID)
	if err != nil {
		return nil, fromGateway(err, "No customer found", "Failed to list subscriptions")
	}
	out := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriptionView(sub))
	}
	return out, nil
}

// Subscribe starts a subscription to priceID charged off-session to
// paymentMethodID. When the first invoice could not be paid without the
// customer, the result points at that invoice.
func (s *Service) Subscribe(ctx context.Context, customerID, priceID, paymentMethodID string) (SubscribeResult, error) {
	cust, err := s.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		return SubscribeResult{}, fromGateway(err, "Customer not found", "Failed to fetch customer")
	}
	price, err := s.gateway.GetPrice(ctx, priceID)
	if err != nil {
		return SubscribeResult{}, fromGateway(err, "Price not found", "Failed to fetch price")
	}
	if price.Recurring == nil {
		return SubscribeResult{}, validationError("Price is not a subscription price")
	}

	productID, productName := productOf(price)
	if hasLifetime(cust, productName) {
		return SubscribeResult{}, validationError("Customer already has lifetime access")
	}

	subs, err := s.gateway.ListSubscriptions(ctx, customerID)
	if err != nil {
		return SubscribeResult{}, fromGateway(err, "Customer not found", "Failed to list subscriptions")
	}
	for _, sub := range subs {
		if blocksNewSubscription(sub.Status) && subscribesTo(sub, productID) {
			return SubscribeResult{}, validationError("You already have a subscription to this product")
		}
	}

	req := payments.SubscriptionRequest{
		CustomerID:      customerID,
		PriceID:         price.ID,
		PaymentMethodID: paymentMethodID,
	}
	if days := plans.TrialDays(price); days > 0 {
		req.TrialEnd = s.now().AddDate(0, 0, days).Unix()
	}

	sub, err := s.gateway.CreateSubscription(ctx, req)
	if err != nil {
		s.logger.Error("subscription create failed", "customer_id", customerID, "price_id", price.ID, "error", err)
		return SubscribeResult{}, fromGateway(err, "Price not found", "Failed to create subscription")
	}

	if inv := sub.LatestInvoice; inv != nil && inv.Status == stripe.InvoiceStatusOpen {
		s.logger.Info("subscription awaiting payment", "subscription_id", sub.ID, "invoice_id", inv.ID)
		return SubscribeResult{Success: true, RequiresPayment: &RequiresPayment{InvoiceID: inv.ID}}, nil
	}
	return SubscribeResult{
		Success: sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing,
	}, nil
}

func blocksNewSubscription(status stripe.SubscriptionStatus) bool {
	return payments.IsLive(status) || status == stripe.SubscriptionStatusIncomplete
}
