package billing

import (
	"billing-dashboard/internal/domain/plans"

	"github.com/stripe/stripe-go/v75"
)

type SubscriptionView struct {
	ID                 string      `json:"id"`
	Status             string      `json:"status"`
	CancelAtPeriodEnd  bool        `json:"cancelAtPeriodEnd"`
	CurrentPeriodEnd   int64       `json:"currentPeriodEnd"`
	CurrentPeriodStart int64       `json:"currentPeriodStart"`
	ProductID          string      `json:"productId"`
	Plan               plans.Price `json:"plan"`
}

type SubscribeResult struct {
	Success         bool             `json:"success"`
	RequiresPayment *RequiresPayment `json:"requiresPayment,omitempty"`
}

type RequiresPayment struct {
	InvoiceID string `json:"invoiceId"`
}

type InvoiceView struct {
	ID              string `json:"id"`
	AmountDue       int64  `json:"amountDue"`
	Currency        string `json:"currency"`
	Date            int64  `json:"date"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	PDF             string `json:"pdf"`
}

// PayInvoiceResult is returned when an invoice was paid or needs the
// customer to authenticate the payment in the browser.
type PayInvoiceResult struct {
	Message      string                          `json:"message"`
	ClientSecret string                          `json:"clientSecret,omitempty"`
	NextAction   *stripe.PaymentIntentNextAction `json:"nextAction,omitempty"`
}

// PaymentDetail is the processor detail echoed with a failed payment.
type PaymentDetail struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Code     string `json:"code,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CardView struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
	Default  bool   `json:"default"`
}

// AddressView uses ISO 3166 codes for country and state.
type AddressView struct {
	Country  string `json:"country"`
	State    string `json:"state"`
	PostCode string `json:"postCode"`
}

type SetupView struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

func subscriptionView(sub *stripe.Subscription) SubscriptionView {
	v := SubscriptionView{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CurrentPeriodStart: sub.CurrentPeriodStart,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		v.Plan = plans.ViewOf(price)
		if price.Product != nil {
			v.ProductID = price.Product.ID
		}
	}
	return v
}

func invoiceView(inv *stripe.Invoice) InvoiceView {
	v := InvoiceView{
		ID:        inv.ID,
		AmountDue: inv.AmountDue,
		Currency:  string(inv.Currency),
		Date:      inv.Created,
		Status:    string(inv.Status),
		PDF:       inv.InvoicePDF,
	}
	if inv.PaymentIntent != nil {
		v.PaymentIntentID = inv.PaymentIntent.ID
	}
	return v
}

func paymentDetail(pi *stripe.PaymentIntent) PaymentDetail {
	d := PaymentDetail{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}
	if pi.LastPaymentError != nil {
		d.Code = string(pi.LastPaymentError.Code)
		d.Reason = pi.LastPaymentError.Msg
	}
	return d
}

func cardView(pm *stripe.PaymentMethod, defaultID string) CardView {
	v := CardView{ID: pm.ID, Default: pm.ID == defaultID}
	if pm.Card != nil {
		v.Brand = string(pm.Card.Brand)
		v.Last4 = pm.Card.Last4
		v.ExpMonth = pm.Card.ExpMonth
		v.ExpYear = pm.Card.ExpYear
	}
	return v
}
