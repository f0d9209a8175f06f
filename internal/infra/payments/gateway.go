package payments

import (
	"context"

	"github.com/stripe/stripe-go/v75"
)

// Gateway is the set of processor operations the billing workflows rely on.
// Results are the processor's own resource types; every call is a single
// network round trip (or a paginated listing) and is never retried here.
type Gateway interface {
	GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	// FindCustomerByEmail returns ErrNotFound when no customer carries the email.
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, name, idempotencyKey string) (*stripe.Customer, error)
	UpdateCustomerAddress(ctx context.Context, customerID string, addr Address) (*stripe.Customer, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.Customer, error)
	SetCustomerMetadata(ctx context.Context, customerID, key, value string) (*stripe.Customer, error)

	ListCards(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	CreateSetupIntent(ctx context.Context, customerID string) (*stripe.SetupIntent, error)

	// GetPrice returns the price with its product expanded.
	GetPrice(ctx context.Context, priceID string) (*stripe.Price, error)
	ListProducts(ctx context.Context) ([]*stripe.Product, error)
	ListPrices(ctx context.Context) ([]*stripe.Price, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*stripe.Subscription, error)
	// ReplaceSubscriptionPrice swaps the item's price immediately, invoicing the
	// proration off-session and clearing any pending period-end cancellation.
	ReplaceSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*stripe.Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)

	// FindSchedule returns the live schedule attached to the subscription, or
	// nil when there is none.
	FindSchedule(ctx context.Context, customerID, subscriptionID string) (*stripe.SubscriptionSchedule, error)
	CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*stripe.SubscriptionSchedule, error)
	SetSchedulePhases(ctx context.Context, scheduleID string, phases []SchedulePhase) (*stripe.SubscriptionSchedule, error)
	// ReleaseSchedule detaches the schedule so its pending phases are dropped
	// while the subscription keeps running on its current price.
	ReleaseSchedule(ctx context.Context, scheduleID string) error

	ListInvoices(ctx context.Context, customerID string) ([]*stripe.Invoice, error)
	// GetInvoice returns the invoice with its payment intent expanded.
	GetInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, error)
	PayInvoice(ctx context.Context, invoiceID, paymentMethodID string) (*stripe.Invoice, error)

	// CreatePaymentIntent creates and confirms an off-session payment. A
	// declined card is reported through the returned intent's status rather
	// than an error whenever the processor hands the intent back.
	CreatePaymentIntent(ctx context.Context, req PaymentRequest) (*stripe.PaymentIntent, error)
}

// Address is a postal address in the form the processor stores it.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type SubscriptionRequest struct {
	CustomerID      string
	PriceID         string
	PaymentMethodID string
	// TrialEnd is a unix timestamp; zero means no trial.
	TrialEnd       int64
	IdempotencyKey string
}

type PaymentRequest struct {
	CustomerID      string
	PaymentMethodID string
	Amount          int64
	Currency        string
	Metadata        map[string]string
	IdempotencyKey  string
}

// SchedulePhase is one price period of a subscription schedule. EndDate zero
// leaves the phase open-ended.
type SchedulePhase struct {
	PriceID   string
	StartDate int64
	EndDate   int64
}
