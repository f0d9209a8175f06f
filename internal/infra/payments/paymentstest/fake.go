// Package paymentstest provides an in-memory payments.Gateway for tests.
package paymentstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"billing-dashboard/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
)

// Fake is a goroutine-safe stand-in for the processor. It keeps just enough
// state to exercise the billing workflows, records every call by method name
// and lets tests inject failures per method through Errs.
type Fake struct {
	mu sync.Mutex

	Customers     map[string]*stripe.Customer
	Cards         map[string][]*stripe.PaymentMethod
	Products      map[string]*stripe.Product
	Prices        map[string]*stripe.Price
	Subscriptions map[string]*stripe.Subscription
	Schedules     map[string]*stripe.SubscriptionSchedule
	Invoices      map[string]*stripe.Invoice
	Intents       []*stripe.PaymentIntent

	// Errs maps a Gateway method name to the error it should return.
	Errs map[string]error
	// Calls lists method names in call order.
	Calls []string

	// NextIntentStatus is the status given to created payment intents.
	NextIntentStatus stripe.PaymentIntentStatus
	// PayInvoiceStatus is the status an invoice ends in after PayInvoice.
	PayInvoiceStatus stripe.InvoiceStatus
	// NewSubscriptionInvoiceStatus is the status of a new subscription's first invoice.
	NewSubscriptionInvoiceStatus stripe.InvoiceStatus

	// SearchDelay slows FindCustomerByEmail down to widen race windows.
	SearchDelay time.Duration

	Now func() time.Time

	idempotent map[string]*stripe.Customer
	seq        int
}

func New() *Fake {
	return &Fake{
		Customers:                    make(map[string]*stripe.Customer),
		Cards:                        make(map[string][]*stripe.PaymentMethod),
		Products:                     make(map[string]*stripe.Product),
		Prices:                       make(map[string]*stripe.Price),
		Subscriptions:                make(map[string]*stripe.Subscription),
		Schedules:                    make(map[string]*stripe.SubscriptionSchedule),
		Invoices:                     make(map[string]*stripe.Invoice),
		Errs:                         make(map[string]error),
		NextIntentStatus:             stripe.PaymentIntentStatusSucceeded,
		PayInvoiceStatus:             stripe.InvoiceStatusPaid,
		NewSubscriptionInvoiceStatus: stripe.InvoiceStatusPaid,
		Now:                          time.Now,
		idempotent:                   make(map[string]*stripe.Customer),
	}
}

var _ payments.Gateway = (*Fake)(nil)

/* ---------------- seeding ---------------- */

func (f *Fake) AddCustomer(id, email string) *stripe.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &stripe.Customer{ID: id, Email: email, Metadata: map[string]string{}}
	f.Customers[id] = c
	return c
}

// AddCard attaches a card to the customer. The first card becomes the default.
func (f *Fake) AddCard(customerID, paymentMethodID, brand, last4 string) *stripe.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	pm := &stripe.PaymentMethod{
		ID:       paymentMethodID,
		Type:     stripe.PaymentMethodTypeCard,
		Customer: &stripe.Customer{ID: customerID},
		Card: &stripe.PaymentMethodCard{
			Brand:    stripe.PaymentMethodCardBrand(brand),
			Last4:    last4,
			ExpMonth: 12,
			ExpYear:  2030,
		},
	}
	f.Cards[customerID] = append(f.Cards[customerID], pm)
	if c := f.Customers[customerID]; c != nil && defaultCardID(c) == "" {
		c.InvoiceSettings = &stripe.CustomerInvoiceSettings{DefaultPaymentMethod: &stripe.PaymentMethod{ID: paymentMethodID}}
	}
	return pm
}

func (f *Fake) AddProduct(id, name string) *stripe.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &stripe.Product{ID: id, Name: name, Active: true}
	f.Products[id] = p
	return p
}

// AddPrice registers a price. An empty interval makes it a one-time price.
func (f *Fake) AddPrice(id, productID string, amount int64, currency, interval string) *stripe.Price {
	f.mu.Lock()
	defer f.mu.Unlock()
	prod := f.Products[productID]
	if prod == nil {
		prod = &stripe.Product{ID: productID}
	}
	p := &stripe.Price{
		ID:         id,
		Active:     true,
		Currency:   stripe.Currency(currency),
		UnitAmount: amount,
		Product:    prod,
		Metadata:   map[string]string{},
		Type:       stripe.PriceTypeOneTime,
	}
	if interval != "" {
		p.Type = stripe.PriceTypeRecurring
		p.Recurring = &stripe.PriceRecurring{Interval: stripe.PriceRecurringInterval(interval), IntervalCount: 1}
	}
	f.Prices[id] = p
	return p
}

// AddSubscription starts an active subscription of the customer to the price.
func (f *Fake) AddSubscription(customerID, priceID string) *stripe.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newSubscription(customerID, priceID, 0)
}

func (f *Fake) AddInvoice(inv *stripe.Invoice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.Created == 0 {
		inv.Created = f.Now().Unix()
	}
	f.Invoices[inv.ID] = inv
}

// CallCount returns how many times method was called.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// LiveSchedules returns the active schedules attached to subscriptionID.
func (f *Fake) LiveSchedules(subscriptionID string) []*stripe.SubscriptionSchedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*stripe.SubscriptionSchedule
	for _, s := range f.Schedules {
		if s.Subscription != nil && s.Subscription.ID == subscriptionID && payments.IsScheduleLive(s.Status) {
			out = append(out, s)
		}
	}
	return out
}

/* ---------------- helpers ---------------- */

func (f *Fake) enter(method string) error {
	f.Calls = append(f.Calls, method)
	return f.Errs[method]
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_fake_%d", prefix, f.seq)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, payments.ErrNotFound)
}

func defaultCardID(c *stripe.Customer) string {
	if c.InvoiceSettings == nil || c.InvoiceSettings.DefaultPaymentMethod == nil {
		return ""
	}
	return c.InvoiceSettings.DefaultPaymentMethod.ID
}

func (f *Fake) priceRef(id string) *stripe.Price {
	if p, ok := f.Prices[id]; ok {
		return p
	}
	return &stripe.Price{ID: id}
}

func (f *Fake) newSubscription(customerID, priceID string, trialEnd int64) *stripe.Subscription {
	now := f.Now()
	sub := &stripe.Subscription{
		ID:                 f.nextID("sub"),
		Customer:           &stripe.Customer{ID: customerID},
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0).Unix(),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{ID: f.nextID("si"), Price: f.priceRef(priceID), Quantity: 1},
			},
		},
		Metadata: map[string]string{},
	}
	if trialEnd > 0 {
		sub.Status = stripe.SubscriptionStatusTrialing
		sub.TrialEnd = trialEnd
	}
	f.Subscriptions[sub.ID] = sub
	return sub
}

func (f *Fake) newInvoice(customerID string, amount int64, currency stripe.Currency, status stripe.InvoiceStatus) *stripe.Invoice {
	inv := &stripe.Invoice{
		ID:        f.nextID("in"),
		Customer:  &stripe.Customer{ID: customerID},
		AmountDue: amount,
		Currency:  currency,
		Status:    status,
		Created:   f.Now().Unix(),
		Lines: &stripe.InvoiceLineItemList{
			Data: []*stripe.InvoiceLineItem{{ID: f.nextID("il"), Amount: amount}},
		},
	}
	pi := &stripe.PaymentIntent{
		ID:       f.nextID("pi"),
		Amount:   amount,
		Currency: currency,
		Customer: &stripe.Customer{ID: customerID},
		Status:   stripe.PaymentIntentStatusSucceeded,
	}
	if status == stripe.InvoiceStatusOpen {
		pi.Status = stripe.PaymentIntentStatusRequiresPaymentMethod
	}
	inv.PaymentIntent = pi
	f.Invoices[inv.ID] = inv
	return inv
}

/* ---------------- customers ---------------- */

func (f *Fake) GetCustomer(_ context.Context, customerID string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetCustomer"); err != nil {
		return nil, err
	}
	c, ok := f.Customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	return c, nil
}

func (f *Fake) FindCustomerByEmail(_ context.Context, email string) (*stripe.Customer, error) {
	f.mu.Lock()
	if err := f.enter("FindCustomerByEmail"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	var found *stripe.Customer
	for _, c := range f.Customers {
		if c.Email == email && (found == nil || c.ID < found.ID) {
			found = c
		}
	}
	delay := f.SearchDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if found == nil {
		return nil, notFound("customer with email", email)
	}
	return found, nil
}

func (f *Fake) CreateCustomer(_ context.Context, email, name, idempotencyKey string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateCustomer"); err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		if c, ok := f.idempotent[idempotencyKey]; ok {
			return c, nil
		}
	}
	c := &stripe.Customer{ID: f.nextID("cus"), Email: email, Name: name, Metadata: map[string]string{}}
	f.Customers[c.ID] = c
	if idempotencyKey != "" {
		f.idempotent[idempotencyKey] = c
	}
	return c, nil
}

func (f *Fake) UpdateCustomerAddress(_ context.Context, customerID string, addr payments.Address) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateCustomerAddress"); err != nil {
		return nil, err
	}
	c, ok := f.Customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	if c.Address == nil {
		c.Address = &stripe.Address{}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Address.Line1, addr.Line1)
	set(&c.Address.Line2, addr.Line2)
	set(&c.Address.City, addr.City)
	set(&c.Address.State, addr.State)
	set(&c.Address.PostalCode, addr.PostalCode)
	set(&c.Address.Country, addr.Country)
	return c, nil
}

func (f *Fake) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetDefaultPaymentMethod"); err != nil {
		return nil, err
	}
	c, ok := f.Customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	c.InvoiceSettings = &stripe.CustomerInvoiceSettings{DefaultPaymentMethod: &stripe.PaymentMethod{ID: paymentMethodID}}
	return c, nil
}

func (f *Fake) SetCustomerMetadata(_ context.Context, customerID, key, value string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetCustomerMetadata"); err != nil {
		return nil, err
	}
	c, ok := f.Customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	c.Metadata[key] = value
	return c, nil
}

/* ---------------- cards ---------------- */

func (f *Fake) ListCards(_ context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListCards"); err != nil {
		return nil, err
	}
	return append([]*stripe.PaymentMethod(nil), f.Cards[customerID]...), nil
}

func (f *Fake) DetachPaymentMethod(_ context.Context, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DetachPaymentMethod"); err != nil {
		return err
	}
	for cid, cards := range f.Cards {
		for i, pm := range cards {
			if pm.ID != paymentMethodID {
				continue
			}
			f.Cards[cid] = append(cards[:i:i], cards[i+1:]...)
			if c := f.Customers[cid]; c != nil && defaultCardID(c) == paymentMethodID {
				c.InvoiceSettings = nil
			}
			return nil
		}
	}
	return notFound("payment method", paymentMethodID)
}

func (f *Fake) CreateSetupIntent(_ context.Context, customerID string) (*stripe.SetupIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSetupIntent"); err != nil {
		return nil, err
	}
	id := f.nextID("seti")
	return &stripe.SetupIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Customer:     &stripe.Customer{ID: customerID},
		Status:       stripe.SetupIntentStatusRequiresPaymentMethod,
	}, nil
}

/* ---------------- catalog ---------------- */

func (f *Fake) GetPrice(_ context.Context, priceID string) (*stripe.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetPrice"); err != nil {
		return nil, err
	}
	p, ok := f.Prices[priceID]
	if !ok {
		return nil, notFound("price", priceID)
	}
	return p, nil
}

func (f *Fake) ListProducts(_ context.Context) ([]*stripe.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListProducts"); err != nil {
		return nil, err
	}
	out := make([]*stripe.Product, 0, len(f.Products))
	for _, p := range f.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) ListPrices(_ context.Context) ([]*stripe.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPrices"); err != nil {
		return nil, err
	}
	out := make([]*stripe.Price, 0, len(f.Prices))
	for _, p := range f.Prices {
		// listed prices carry only the product id
		cp := *p
		cp.Product = &stripe.Product{ID: p.Product.ID}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* ---------------- subscriptions ---------------- */

func (f *Fake) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetSubscription"); err != nil {
		return nil, err
	}
	s, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	return s, nil
}

func (f *Fake) ListSubscriptions(_ context.Context, customerID string) ([]*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListSubscriptions"); err != nil {
		return nil, err
	}
	var out []*stripe.Subscription
	for _, s := range f.Subscriptions {
		if s.Customer.ID == customerID && s.Status != stripe.SubscriptionStatusCanceled {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) CreateSubscription(_ context.Context, req payments.SubscriptionRequest) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSubscription"); err != nil {
		return nil, err
	}
	if _, ok := f.Customers[req.CustomerID]; !ok {
		return nil, notFound("customer", req.CustomerID)
	}
	price, ok := f.Prices[req.PriceID]
	if !ok {
		return nil, notFound("price", req.PriceID)
	}
	sub := f.newSubscription(req.CustomerID, req.PriceID, req.TrialEnd)
	if req.PaymentMethodID != "" {
		sub.DefaultPaymentMethod = &stripe.PaymentMethod{ID: req.PaymentMethodID}
	}
	sub.LatestInvoice = f.newInvoice(req.CustomerID, price.UnitAmount, price.Currency, f.NewSubscriptionInvoiceStatus)
	if f.NewSubscriptionInvoiceStatus == stripe.InvoiceStatusOpen {
		sub.Status = stripe.SubscriptionStatusIncomplete
	}
	return sub, nil
}

func (f *Fake) ReplaceSubscriptionPrice(_ context.Context, subscriptionID, itemID, priceID string) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ReplaceSubscriptionPrice"); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	for _, it := range sub.Items.Data {
		if it.ID != itemID {
			continue
		}
		old := it.Price
		it.Price = f.priceRef(priceID)
		sub.CancelAtPeriodEnd = false
		// always_invoice proration
		delta := it.Price.UnitAmount - old.UnitAmount
		if delta < 0 {
			delta = 0
		}
		sub.LatestInvoice = f.newInvoice(sub.Customer.ID, delta, it.Price.Currency, stripe.InvoiceStatusPaid)
		return sub, nil
	}
	return nil, notFound("subscription item", itemID)
}

func (f *Fake) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetCancelAtPeriodEnd"); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	sub.CancelAtPeriodEnd = cancel
	return sub, nil
}

func (f *Fake) CancelSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CancelSubscription"); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	sub.Status = stripe.SubscriptionStatusCanceled
	sub.CanceledAt = f.Now().Unix()
	return sub, nil
}

/* ---------------- schedules ---------------- */

func (f *Fake) FindSchedule(_ context.Context, customerID, subscriptionID string) (*stripe.SubscriptionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FindSchedule"); err != nil {
		return nil, err
	}
	for _, s := range f.Schedules {
		if s.Customer.ID == customerID && s.Subscription != nil && s.Subscription.ID == subscriptionID && payments.IsScheduleLive(s.Status) {
			return s, nil
		}
	}
	return nil, nil
}

func (f *Fake) CreateScheduleFromSubscription(_ context.Context, subscriptionID string) (*stripe.SubscriptionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateScheduleFromSubscription"); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	if sub.Schedule != nil {
		return nil, fmt.Errorf("subscription %s is already attached to schedule %s", subscriptionID, sub.Schedule.ID)
	}
	s := &stripe.SubscriptionSchedule{
		ID:           f.nextID("sub_sched"),
		Customer:     &stripe.Customer{ID: sub.Customer.ID},
		Subscription: sub,
		Status:       stripe.SubscriptionScheduleStatusActive,
		EndBehavior:  stripe.SubscriptionScheduleEndBehaviorRelease,
		Phases: []*stripe.SubscriptionSchedulePhase{
			{
				StartDate: sub.CurrentPeriodStart,
				EndDate:   sub.CurrentPeriodEnd,
				Items: []*stripe.SubscriptionSchedulePhaseItem{
					{Price: sub.Items.Data[0].Price, Quantity: 1},
				},
			},
		},
	}
	f.Schedules[s.ID] = s
	sub.Schedule = s
	return s, nil
}

func (f *Fake) SetSchedulePhases(_ context.Context, scheduleID string, phases []payments.SchedulePhase) (*stripe.SubscriptionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetSchedulePhases"); err != nil {
		return nil, err
	}
	s, ok := f.Schedules[scheduleID]
	if !ok {
		return nil, notFound("schedule", scheduleID)
	}
	if !payments.IsScheduleLive(s.Status) {
		return nil, fmt.Errorf("schedule %s is %s and can no longer be updated", scheduleID, s.Status)
	}
	s.Phases = s.Phases[:0]
	for _, ph := range phases {
		s.Phases = append(s.Phases, &stripe.SubscriptionSchedulePhase{
			StartDate: ph.StartDate,
			EndDate:   ph.EndDate,
			Items: []*stripe.SubscriptionSchedulePhaseItem{
				{Price: f.priceRef(ph.PriceID), Quantity: 1},
			},
		})
	}
	return s, nil
}

func (f *Fake) ReleaseSchedule(_ context.Context, scheduleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ReleaseSchedule"); err != nil {
		return err
	}
	s, ok := f.Schedules[scheduleID]
	if !ok {
		return notFound("schedule", scheduleID)
	}
	s.Status = stripe.SubscriptionScheduleStatusReleased
	if s.Subscription != nil {
		s.Subscription.Schedule = nil
	}
	return nil
}

/* ---------------- invoices & payments ---------------- */

func (f *Fake) ListInvoices(_ context.Context, customerID string) ([]*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListInvoices"); err != nil {
		return nil, err
	}
	var out []*stripe.Invoice
	for _, inv := range f.Invoices {
		if inv.Customer != nil && inv.Customer.ID == customerID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created > out[j].Created
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *Fake) GetInvoice(_ context.Context, invoiceID string) (*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetInvoice"); err != nil {
		return nil, err
	}
	inv, ok := f.Invoices[invoiceID]
	if !ok {
		return nil, notFound("invoice", invoiceID)
	}
	return inv, nil
}

func (f *Fake) PayInvoice(_ context.Context, invoiceID, _ string) (*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PayInvoice"); err != nil {
		return nil, err
	}
	inv, ok := f.Invoices[invoiceID]
	if !ok {
		return nil, notFound("invoice", invoiceID)
	}
	inv.Status = f.PayInvoiceStatus
	if inv.Status == stripe.InvoiceStatusPaid {
		inv.Paid = true
	}
	return inv, nil
}

func (f *Fake) CreatePaymentIntent(_ context.Context, req payments.PaymentRequest) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePaymentIntent"); err != nil {
		return nil, err
	}
	pi := &stripe.PaymentIntent{
		ID:            f.nextID("pi"),
		Amount:        req.Amount,
		Currency:      stripe.Currency(req.Currency),
		Customer:      &stripe.Customer{ID: req.CustomerID},
		PaymentMethod: &stripe.PaymentMethod{ID: req.PaymentMethodID},
		Status:        f.NextIntentStatus,
		Metadata:      req.Metadata,
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		pi.LastPaymentError = &stripe.Error{
			Type: stripe.ErrorTypeCard,
			Code: stripe.ErrorCodeCardDeclined,
			Msg:  "Your card was declined.",
		}
	}
	f.Intents = append(f.Intents, pi)
	return pi, nil
}
