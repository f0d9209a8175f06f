package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/infra/payments/paymentstest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	customerID = "cus_owner"
	otherID    = "cus_other"

	priceSmall    = "price_small_monthly"
	priceBig      = "price_big_monthly"
	priceYearly   = "price_yearly"
	priceLifetime = "price_lifetime"
)

// fixture seeds one product ("Studio") sold monthly at two tiers, yearly and
// outright, plus a customer with a default card.
func fixture(t *testing.T, opts billing.Options) (*billing.Service, *paymentstest.Fake) {
	t.Helper()
	f := paymentstest.New()
	f.Now = func() time.Time { return testNow }

	f.AddCustomer(customerID, "owner@example.com")
	f.AddCustomer(otherID, "other@example.com")
	f.AddCard(customerID, "pm_visa", "visa", "4242")

	f.AddProduct("prod_studio", "Studio")
	f.AddPrice(priceSmall, "prod_studio", 1000, "usd", "month")
	f.AddPrice(priceBig, "prod_studio", 2500, "usd", "month")
	f.AddPrice(priceYearly, "prod_studio", 25000, "usd", "year")
	f.AddPrice(priceLifetime, "prod_studio", 90000, "usd", "")

	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return billing.NewService(f, opts), f
}

type memLedger struct {
	mu        sync.Mutex
	purchases []*billing.Purchase
	err       error
}

func (l *memLedger) RecordPurchase(_ context.Context, p *billing.Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.purchases = append(l.purchases, p)
	return nil
}

var errBoom = errors.New("boom")
