package billing

import (
	"context"

	"billing-dashboard/internal/infra/payments"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
)

const (
	MsgPurchased      = "Purchase successful"
	MsgPaymentSuccess = "Payment successful"
	MsgRequiresAuth   = "Payment requires additional authentication"
)

// Purchase charges the price's unit amount once, off-session, and grants
// lifetime access to its product. The price may be recurring or free; a zero
// amount is still sent to the processor. Recurring subscriptions to the same
// product are cancelled immediately once the charge succeeds.
func (s *Service) Purchase(ctx context.Context, customerID, priceID, paymentMethodID string) (string, error) {
	cust, err := s.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		return "", fromGateway(err, "No customer found", "Failed to fetch customer")
	}
	price, err := s.gateway.GetPrice(ctx, priceID)
	if err != nil {
		return "", fromGateway(err, "Price not found", "Failed to fetch price")
	}

	productID, productName := productOf(price)
	if hasLifetime(cust, productName) {
		return "", validationError("Customer already has lifetime access")
	}

	if paymentMethodID == "" && cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		paymentMethodID = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}
	if paymentMethodID == "" {
		return "", validationError("A payment method is required")
	}

	subs, err := s.gateway.ListSubscriptions(ctx, customerID)
	if err != nil {
		return "", fromGateway(err, "No customer found", "Failed to list subscriptions")
	}

	logger := s.logger.With("customer_id", customerID, "price_id", price.ID, "product_id", productID)

	pi, err := s.gateway.CreatePaymentIntent(ctx, payments.PaymentRequest{
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		Amount:          price.UnitAmount,
		Currency:        string(price.Currency),
		Metadata:        map[string]string{"price_id": price.ID, "product_id": productID},
		IdempotencyKey:  uuid.NewString(),
	})
	if err != nil {
		logger.Error("payment intent failed", "error", err)
		return "", fromGateway(err, "Payment method not found", "Failed to process payment")
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		logger.Warn("purchase payment not completed", "payment_intent_id", pi.ID, "status", pi.Status)
		return "", paymentFailed("Payment failed", paymentDetail(pi), nil)
	}

	// The charge has gone through; failures from here on leave it in place.
	for _, sub := range subs {
		if !payments.IsLive(sub.Status) || !subscribesTo(sub, productID) {
			continue
		}
		if _, err := s.gateway.CancelSubscription(ctx, sub.ID); err != nil {
			logger.Error("failed to cancel superseded subscription", "subscription_id", sub.ID, "payment_intent_id", pi.ID, "error", err)
			return "", fromGateway(err, "Subscription not found", "Failed to cancel existing subscription")
		}
		logger.Info("superseded subscription cancelled", "subscription_id", sub.ID)
	}

	if _, err := s.gateway.SetCustomerMetadata(ctx, customerID, LifetimeAccessKey, withLifetime(cust, productName)); err != nil {
		logger.Error("failed to grant lifetime access", "payment_intent_id", pi.ID, "error", err)
		return "", fromGateway(err, "No customer found", "Failed to grant lifetime access")
	}

	s.record(ctx, &Purchase{
		CustomerID:      customerID,
		PriceID:         price.ID,
		ProductID:       productID,
		ProductName:     productName,
		PaymentIntentID: pi.ID,
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
		Status:          string(pi.Status),
	})
	logger.Info("lifetime purchase completed", "payment_intent_id", pi.ID)
	return MsgPurchased, nil
}

func (s *Service) record(ctx context.Context, p *Purchase) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.RecordPurchase(ctx, p); err != nil {
		s.logger.Error("failed to record purchase", "payment_intent_id", p.PaymentIntentID, "error", err)
	}
}

// PayInvoice settles an invoice whose payment is outstanding. A payment that
// needs the customer to authenticate is handed back with its client secret
// instead of being retried.
func (s *Service) PayInvoice(ctx context.Context, customerID, invoiceID string) (PayInvoiceResult, error) {
	const missing = "Invoice not found or missing payment intent"

	inv, err := s.gateway.GetInvoice(ctx, invoiceID)
	if err != nil {
		return PayInvoiceResult{}, fromGateway(err, missing, "Failed to fetch invoice")
	}
	if inv.Customer == nil || inv.Customer.ID != customerID || inv.PaymentIntent == nil {
		return PayInvoiceResult{}, notFoundError(missing, nil)
	}
	pi := inv.PaymentIntent
	logger := s.logger.With("customer_id", customerID, "invoice_id", inv.ID, "payment_intent_id", pi.ID)

	switch {
	case pi.Status == stripe.PaymentIntentStatusRequiresAction && pi.NextAction != nil:
		logger.Info("invoice payment needs authentication")
		return PayInvoiceResult{
			Message:      MsgRequiresAuth,
			ClientSecret: pi.ClientSecret,
			NextAction:   pi.NextAction,
		}, nil

	case pi.Status == stripe.PaymentIntentStatusSucceeded:
		if inv.Status == stripe.InvoiceStatusPaid || pi.PaymentMethod == nil {
			return PayInvoiceResult{Message: MsgPaymentSuccess}, nil
		}
		paid, err := s.gateway.PayInvoice(ctx, inv.ID, pi.PaymentMethod.ID)
		if err != nil {
			logger.Error("invoice pay failed", "error", err)
			return PayInvoiceResult{}, fromGateway(err, missing, "Failed to pay invoice")
		}
		if paid.Status != stripe.InvoiceStatusPaid {
			return PayInvoiceResult{}, paymentFailed("Payment failed", paymentDetail(pi), nil)
		}
		logger.Info("invoice paid")
		return PayInvoiceResult{Message: MsgPaymentSuccess}, nil
	}

	logger.Warn("invoice payment not completed", "status", pi.Status)
	return PayInvoiceResult{}, paymentFailed("Payment failed", paymentDetail(pi), nil)
}

// ListInvoices returns the customer's invoices that have at least one line.
func (s *Service) ListInvoices(ctx context.Context, customerID string) ([]InvoiceView, error) {
	invoices, err := s.gateway.ListInvoices(ctx, customerID)
	if err != nil {
		return nil, fromGateway(err, "No customer found", "Failed to list invoices")
	}
	out := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Lines == nil || len(inv.Lines.Data) == 0 {
			continue
		}
		out = append(out, invoiceView(inv))
	}
	return out, nil
}
