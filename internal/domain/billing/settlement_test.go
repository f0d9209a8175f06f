package billing_test

import (
	"context"
	"testing"

	"billing-dashboard/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
)

func TestPurchaseGrantsLifetimeAccess(t *testing.T) {
	ledger := &memLedger{}
	svc, f := fixture(t, billing.Options{Ledger: ledger})
	sub := f.AddSubscription(customerID, priceSmall)
	f.Customers[customerID].Metadata[billing.LifetimeAccessKey] = "Other Tool"

	msg, err := svc.Purchase(context.Background(), customerID, priceLifetime, "pm_visa")
	require.NoError(t, err)
	assert.Equal(t, billing.MsgPurchased, msg)

	assert.Equal(t, []string{"Other Tool", "Studio"}, billing.LifetimeProducts(f.Customers[customerID]))
	assert.Equal(t, stripe.SubscriptionStatusCanceled, sub.Status)

	require.Len(t, f.Intents, 1)
	pi := f.Intents[0]
	assert.Equal(t, int64(90000), pi.Amount)
	assert.Equal(t, "pm_visa", pi.PaymentMethod.ID)
	assert.Equal(t, map[string]string{"price_id": priceLifetime, "product_id": "prod_studio"}, pi.Metadata)

	require.Len(t, ledger.purchases, 1)
	rec := ledger.purchases[0]
	assert.Equal(t, pi.ID, rec.PaymentIntentID)
	assert.Equal(t, "Studio", rec.ProductName)
	assert.Equal(t, "succeeded", rec.Status)
}

func TestPurchaseZeroAmount(t *testing.T) {
	tests := []struct {
		name     string
		interval string
	}{
		{"one-time", ""},
		{"recurring free tier", "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &memLedger{}
			svc, f := fixture(t, billing.Options{Ledger: ledger})
			f.AddPrice("price_free", "prod_studio", 0, "usd", tt.interval)

			msg, err := svc.Purchase(context.Background(), customerID, "price_free", "pm_visa")
			require.NoError(t, err)
			assert.Equal(t, billing.MsgPurchased, msg)

			require.Len(t, f.Intents, 1)
			assert.Equal(t, int64(0), f.Intents[0].Amount)
			assert.Equal(t, []string{"Studio"}, billing.LifetimeProducts(f.Customers[customerID]))
			require.Len(t, ledger.purchases, 1)
			assert.Equal(t, int64(0), ledger.purchases[0].Amount)
		})
	}
}

func TestPurchaseUsesDefaultCard(t *testing.T) {
	svc, f := fixture(t, billing.Options{})

	_, err := svc.Purchase(context.Background(), customerID, priceLifetime, "")
	require.NoError(t, err)
	require.Len(t, f.Intents, 1)
	assert.Equal(t, "pm_visa", f.Intents[0].PaymentMethod.ID)
}

func TestPurchaseDeclined(t *testing.T) {
	ledger := &memLedger{}
	svc, f := fixture(t, billing.Options{Ledger: ledger})
	sub := f.AddSubscription(customerID, priceSmall)
	f.NextIntentStatus = stripe.PaymentIntentStatusRequiresPaymentMethod

	_, err := svc.Purchase(context.Background(), customerID, priceLifetime, "pm_visa")
	require.Error(t, err)
	assert.Equal(t, billing.KindPaymentFailed, billing.KindOf(err))

	var be *billing.Error
	require.ErrorAs(t, err, &be)
	detail, ok := be.Detail.(billing.PaymentDetail)
	require.True(t, ok)
	assert.Equal(t, "card_declined", detail.Code)
	assert.Equal(t, "requires_payment_method", detail.Status)

	assert.Empty(t, billing.LifetimeProducts(f.Customers[customerID]))
	assert.Equal(t, stripe.SubscriptionStatusActive, sub.Status)
	assert.Empty(t, ledger.purchases)
}

func TestPurchaseLedgerFailureIsNotFatal(t *testing.T) {
	svc, f := fixture(t, billing.Options{Ledger: &memLedger{err: errBoom}})

	msg, err := svc.Purchase(context.Background(), customerID, priceLifetime, "pm_visa")
	require.NoError(t, err)
	assert.Equal(t, billing.MsgPurchased, msg)
	assert.Equal(t, []string{"Studio"}, billing.LifetimeProducts(f.Customers[customerID]))
}

func TestPurchaseRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("already owned", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		f.Customers[customerID].Metadata[billing.LifetimeAccessKey] = "Studio"
		_, err := svc.Purchase(ctx, customerID, priceLifetime, "pm_visa")
		assert.Equal(t, billing.KindValidation, billing.KindOf(err))
		assert.Empty(t, f.Intents)
	})

	t.Run("no payment method", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		_, err := svc.Purchase(ctx, otherID, priceLifetime, "")
		assert.Equal(t, billing.KindValidation, billing.KindOf(err))
		assert.Empty(t, f.Intents)
	})

	t.Run("unknown price", func(t *testing.T) {
		svc, _ := fixture(t, billing.Options{})
		_, err := svc.Purchase(ctx, customerID, "price_missing", "pm_visa")
		assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
	})
}

func openInvoice(f interface{ AddInvoice(*stripe.Invoice) }, id, customer string, pi *stripe.PaymentIntent) *stripe.Invoice {
	inv := &stripe.Invoice{
		ID:            id,
		Customer:      &stripe.Customer{ID: customer},
		Status:        stripe.InvoiceStatusOpen,
		AmountDue:     2500,
		Currency:      "usd",
		PaymentIntent: pi,
		Lines:         &stripe.InvoiceLineItemList{Data: []*stripe.InvoiceLineItem{{ID: "il_1", Amount: 2500}}},
	}
	f.AddInvoice(inv)
	return inv
}

func TestPayInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("needs authentication", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		openInvoice(f, "in_auth", customerID, &stripe.PaymentIntent{
			ID:           "pi_auth",
			Status:       stripe.PaymentIntentStatusRequiresAction,
			ClientSecret: "pi_auth_secret",
			NextAction:   &stripe.PaymentIntentNextAction{Type: "use_stripe_sdk"},
		})
		res, err := svc.PayInvoice(ctx, customerID, "in_auth")
		require.NoError(t, err)
		assert.Equal(t, billing.MsgRequiresAuth, res.Message)
		assert.Equal(t, "pi_auth_secret", res.ClientSecret)
		require.NotNil(t, res.NextAction)
		assert.Zero(t, f.CallCount("PayInvoice"))
	})

	t.Run("confirmed intent pays invoice", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		inv := openInvoice(f, "in_ok", customerID, &stripe.PaymentIntent{
			ID:            "pi_ok",
			Status:        stripe.PaymentIntentStatusSucceeded,
			PaymentMethod: &stripe.PaymentMethod{ID: "pm_visa"},
		})
		res, err := svc.PayInvoice(ctx, customerID, "in_ok")
		require.NoError(t, err)
		assert.Equal(t, billing.MsgPaymentSuccess, res.Message)
		assert.Equal(t, 1, f.CallCount("PayInvoice"))
		assert.Equal(t, stripe.InvoiceStatusPaid, inv.Status)
	})

	t.Run("already paid", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		inv := openInvoice(f, "in_paid", customerID, &stripe.PaymentIntent{
			ID:            "pi_paid",
			Status:        stripe.PaymentIntentStatusSucceeded,
			PaymentMethod: &stripe.PaymentMethod{ID: "pm_visa"},
		})
		inv.Status = stripe.InvoiceStatusPaid
		res, err := svc.PayInvoice(ctx, customerID, "in_paid")
		require.NoError(t, err)
		assert.Equal(t, billing.MsgPaymentSuccess, res.Message)
		assert.Zero(t, f.CallCount("PayInvoice"))
	})

	t.Run("invoice stays unpaid", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		f.PayInvoiceStatus = stripe.InvoiceStatusOpen
		openInvoice(f, "in_open", customerID, &stripe.PaymentIntent{
			ID:            "pi_open",
			Status:        stripe.PaymentIntentStatusSucceeded,
			PaymentMethod: &stripe.PaymentMethod{ID: "pm_visa"},
		})
		_, err := svc.PayInvoice(ctx, customerID, "in_open")
		assert.Equal(t, billing.KindPaymentFailed, billing.KindOf(err))
	})

	t.Run("failed intent", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		openInvoice(f, "in_fail", customerID, &stripe.PaymentIntent{
			ID:     "pi_fail",
			Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
			LastPaymentError: &stripe.Error{
				Code: stripe.ErrorCodeCardDeclined,
				Msg:  "Your card was declined.",
			},
		})
		_, err := svc.PayInvoice(ctx, customerID, "in_fail")
		require.Equal(t, billing.KindPaymentFailed, billing.KindOf(err))
		var be *billing.Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "Your card was declined.", be.Detail.(billing.PaymentDetail).Reason)
	})

	t.Run("foreign invoice", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		openInvoice(f, "in_other", otherID, &stripe.PaymentIntent{ID: "pi_other", Status: stripe.PaymentIntentStatusSucceeded})
		_, err := svc.PayInvoice(ctx, customerID, "in_other")
		assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
	})

	t.Run("missing intent", func(t *testing.T) {
		svc, f := fixture(t, billing.Options{})
		openInvoice(f, "in_nopi", customerID, nil)
		_, err := svc.PayInvoice(ctx, customerID, "in_nopi")
		assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		svc, _ := fixture(t, billing.Options{})
		_, err := svc.PayInvoice(ctx, customerID, "in_missing")
		assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
	})
}

func TestListInvoicesSkipsEmptyInvoices(t *testing.T) {
	svc, f := fixture(t, billing.Options{})
	openInvoice(f, "in_lines", customerID, &stripe.PaymentIntent{ID: "pi_lines"})
	f.AddInvoice(&stripe.Invoice{ID: "in_empty", Customer: &stripe.Customer{ID: customerID}, Lines: &stripe.InvoiceLineItemList{}})
	openInvoice(f, "in_foreign", otherID, nil)

	views, err := svc.ListInvoices(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "in_lines", views[0].ID)
	assert.Equal(t, "pi_lines", views[0].PaymentIntentID)
	assert.Equal(t, int64(2500), views[0].AmountDue)
}
