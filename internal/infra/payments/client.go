package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client implements Gateway on top of an explicitly configured Stripe API
// client. It never touches the package level stripe.Key.
type Client struct {
	api    *client.API
	logger *slog.Logger
}

func NewClient(secretKey string) *Client {
	return NewClientWithAPI(client.New(secretKey, nil))
}

// NewClientWithAPI wraps a preconfigured API, e.g. one pointed at a mock backend.
func NewClientWithAPI(api *client.API) *Client {
	return &Client{
		api:    api,
		logger: slog.With("service", "PaymentsClient"),
	}
}

/* ---------------- customers ---------------- */

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, classify("get customer", err)
	}
	if cust.Deleted {
		return nil, fmt.Errorf("get customer %s: %w", customerID, ErrNotFound)
	}
	return cust, nil
}

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("email:'%s'", strings.ReplaceAll(email, "'", `\'`)),
		},
	}
	iter := c.api.Customers.Search(params)
	for iter.Next() {
		if cust := iter.Customer(); cust != nil && !cust.Deleted {
			return cust, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, classify("search customer", err)
	}
	return nil, fmt.Errorf("search customer: %w", ErrNotFound)
}

func (c *Client) CreateCustomer(ctx context.Context, email, name, idempotencyKey string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	cust, err := c.api.Customers.New(params)
	if err != nil {
		return nil, classify("create customer", err)
	}
	c.logger.Info("customer created", "customer_id", cust.ID)
	return cust, nil
}

func (c *Client) UpdateCustomerAddress(ctx context.Context, customerID string, addr Address) (*stripe.Customer, error) {
	// only the given fields are sent so the rest of the address is kept
	ap := &stripe.AddressParams{}
	for _, f := range []struct {
		dst **string
		val string
	}{
		{&ap.Line1, addr.Line1},
		{&ap.Line2, addr.Line2},
		{&ap.City, addr.City},
		{&ap.State, addr.State},
		{&ap.PostalCode, addr.PostalCode},
		{&ap.Country, addr.Country},
	} {
		if f.val != "" {
			*f.dst = stripe.String(f.val)
		}
	}
	params := &stripe.CustomerParams{Address: ap}
	params.Context = ctx
	cust, err := c.api.Customers.Update(customerID, params)
	return cust, classify("update customer address", err)
}

func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	cust, err := c.api.Customers.Update(customerID, params)
	return cust, classify("set default payment method", err)
}

func (c *Client) SetCustomerMetadata(ctx context.Context, customerID, key, value string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddMetadata(key, value)
	cust, err := c.api.Customers.Update(customerID, params)
	return cust, classify("set customer metadata", err)
}

/* ---------------- cards ---------------- */

func (c *Client) ListCards(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	params := &stripe.CustomerListPaymentMethodsParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx
	var out []*stripe.PaymentMethod
	iter := c.api.Customers.ListPaymentMethods(params)
	for iter.Next() {
		out = append(out, iter.PaymentMethod())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list cards", err)
	}
	return out, nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	_, err := c.api.PaymentMethods.Detach(paymentMethodID, params)
	return classify("detach payment method", err)
}

func (c *Client) CreateSetupIntent(ctx context.Context, customerID string) (*stripe.SetupIntent, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	si, err := c.api.SetupIntents.New(params)
	return si, classify("create setup intent", err)
}

/* ---------------- catalog ---------------- */

func (c *Client) GetPrice(ctx context.Context, priceID string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")
	p, err := c.api.Prices.Get(priceID, params)
	return p, classify("get price", err)
}

func (c *Client) ListProducts(ctx context.Context) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	var out []*stripe.Product
	iter := c.api.Products.List(params)
	for iter.Next() {
		out = append(out, iter.Product())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list products", err)
	}
	return out, nil
}

func (c *Client) ListPrices(ctx context.Context) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	var out []*stripe.Price
	iter := c.api.Prices.List(params)
	for iter.Next() {
		out = append(out, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list prices", err)
	}
	return out, nil
}

/* ---------------- subscriptions ---------------- */

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	return sub, classify("get subscription", err)
}

func (c *Client) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	var out []*stripe.Subscription
	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		out = append(out, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list subscriptions", err)
	}
	return out, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(req.PriceID)},
		},
		OffSession: stripe.Bool(true),
	}
	if req.PaymentMethodID != "" {
		params.DefaultPaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if req.TrialEnd > 0 {
		params.TrialEnd = stripe.Int64(req.TrialEnd)
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, classify("create subscription", err)
	}
	c.logger.Info("subscription created", "customer_id", req.CustomerID, "subscription_id", sub.ID, "status", sub.Status)
	return sub, nil
}

func (c *Client) ReplaceSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("always_invoice"),
		OffSession:        stripe.Bool(true),
	}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	return sub, classify("replace subscription price", err)
}

func (c *Client) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(cancel)}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	return sub, classify("set cancel at period end", err)
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Cancel(subscriptionID, params)
	return sub, classify("cancel subscription", err)
}

/* ---------------- schedules ---------------- */

func (c *Client) FindSchedule(ctx context.Context, customerID, subscriptionID string) (*stripe.SubscriptionSchedule, error) {
	params := &stripe.SubscriptionScheduleListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	iter := c.api.SubscriptionSchedules.List(params)
	for iter.Next() {
		s := iter.SubscriptionSchedule()
		if s.Subscription != nil && s.Subscription.ID == subscriptionID && IsScheduleLive(s.Status) {
			return s, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list schedules", err)
	}
	return nil, nil
}

func (c *Client) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*stripe.SubscriptionSchedule, error) {
	params := &stripe.SubscriptionScheduleParams{FromSubscription: stripe.String(subscriptionID)}
	params.Context = ctx
	s, err := c.api.SubscriptionSchedules.New(params)
	if err != nil {
		return nil, classify("create schedule", err)
	}
	c.logger.Info("schedule created", "subscription_id", subscriptionID, "schedule_id", s.ID)
	return s, nil
}

func (c *Client) SetSchedulePhases(ctx context.Context, scheduleID string, phases []SchedulePhase) (*stripe.SubscriptionSchedule, error) {
	params := &stripe.SubscriptionScheduleParams{
		EndBehavior: stripe.String("release"),
	}
	for _, ph := range phases {
		pp := &stripe.SubscriptionSchedulePhaseParams{
			StartDate: stripe.Int64(ph.StartDate),
			Items: []*stripe.SubscriptionSchedulePhaseItemParams{
				{Price: stripe.String(ph.PriceID), Quantity: stripe.Int64(1)},
			},
		}
		if ph.EndDate > 0 {
			pp.EndDate = stripe.Int64(ph.EndDate)
		}
		params.Phases = append(params.Phases, pp)
	}
	params.Context = ctx
	s, err := c.api.SubscriptionSchedules.Update(scheduleID, params)
	return s, classify("update schedule phases", err)
}

// ReleaseSchedule uses the release endpoint: cancelling a schedule through
// the processor would cancel its subscription along with it.
func (c *Client) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	params := &stripe.SubscriptionScheduleReleaseParams{}
	params.Context = ctx
	_, err := c.api.SubscriptionSchedules.Release(scheduleID, params)
	if err != nil {
		return classify("release schedule", err)
	}
	c.logger.Info("schedule released", "schedule_id", scheduleID)
	return nil
}

/* ---------------- invoices & payments ---------------- */

func (c *Client) ListInvoices(ctx context.Context, customerID string) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	var out []*stripe.Invoice
	iter := c.api.Invoices.List(params)
	for iter.Next() {
		out = append(out, iter.Invoice())
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list invoices", err)
	}
	return out, nil
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	inv, err := c.api.Invoices.Get(invoiceID, params)
	return inv, classify("get invoice", err)
}

func (c *Client) PayInvoice(ctx context.Context, invoiceID, paymentMethodID string) (*stripe.Invoice, error) {
	params := &stripe.InvoicePayParams{}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}
	params.Context = ctx
	inv, err := c.api.Invoices.Pay(invoiceID, params)
	return inv, classify("pay invoice", err)
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentRequest) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		// Off-session declines come back as card errors carrying the intent.
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard && serr.PaymentIntent != nil {
			c.logger.Warn("payment declined", "customer_id", req.CustomerID, "payment_intent_id", serr.PaymentIntent.ID, "code", serr.Code)
			pi := serr.PaymentIntent
			if pi.LastPaymentError == nil {
				last := *serr
				last.PaymentIntent = nil
				pi.LastPaymentError = &last
			}
			return pi, nil
		}
		return nil, classify("create payment intent", err)
	}
	return pi, nil
}
