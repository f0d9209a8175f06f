package billing

import (
	"context"
	"strings"

	"billing-dashboard/internal/domain/geo"
	"billing-dashboard/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
)

const (
	MsgCardDeleted       = "Payment method deleted"
	MsgDefaultCardUpdate = "Default payment method updated"
)

// BillingAddress returns the customer's address with ISO codes, or nil when
// none is stored.
func (s *Service) BillingAddress(ctx context.Context, customerID string) (*AddressView, error) {
	cust, err := s.customer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cust.Address == nil {
		return nil, nil
	}
	v := addressView(cust.Address)
	return &v, nil
}

// UpdateBillingAddress stores the address under display names, which is how
// the processor shows it on invoices, and returns it mapped back to codes.
func (s *Service) UpdateBillingAddress(ctx context.Context, customerID string, in AddressView) (*AddressView, error) {
	if strings.TrimSpace(in.Country) == "" || strings.TrimSpace(in.State) == "" || strings.TrimSpace(in.PostCode) == "" {
		return nil, validationError("Country, state and post code are required")
	}
	countryName, ok := geo.CountryName(in.Country)
	if !ok {
		return nil, validationError("Unknown country code")
	}
	stateName := strings.TrimSpace(in.State)
	if geo.HasStates(in.Country) {
		if stateName, ok = geo.StateName(in.Country, in.State); !ok {
			return nil, validationError("Unknown state code")
		}
	}

	cust, err := s.gateway.UpdateCustomerAddress(ctx, customerID, payments.Address{
		Country:    countryName,
		State:      stateName,
		PostalCode: strings.TrimSpace(in.PostCode),
	})
	if err != nil {
		s.logger.Error("billing address update failed", "customer_id", customerID, "error", err)
		return nil, fromGateway(err, "No customer found", "Failed to update billing address")
	}
	if cust.Address == nil {
		return nil, nil
	}
	if cust.Address.Country == "" || cust.Address.State == "" || cust.Address.PostalCode == "" {
		return nil, upstreamError("Failed to update billing address", nil)
	}
	v := addressView(cust.Address)
	return &v, nil
}

// addressView maps stored names back to codes. Addresses written by other
// tools may already hold codes, and those are passed through.
func addressView(a *stripe.Address) AddressView {
	v := AddressView{PostCode: a.PostalCode}

	if code, ok := geo.CountryCode(a.Country); ok {
		v.Country = code
	} else if _, ok := geo.CountryName(a.Country); ok {
		v.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	}
	if v.Country == "" || a.State == "" {
		return v
	}

	switch code, ok := geo.StateCode(v.Country, a.State); {
	case ok:
		v.State = code
	case !geo.HasStates(v.Country):
		v.State = a.State
	default:
		if _, ok := geo.StateName(v.Country, a.State); ok {
			v.State = strings.ToUpper(strings.TrimSpace(a.State))
		}
	}
	return v
}

func (s *Service) Cards(ctx context.Context, customerID string) ([]CardView, error) {
	cust, cards, err := s.customerCards(ctx, customerID)
	if err != nil {
		return nil, err
	}
	def := defaultPaymentMethodID(cust)
	out := make([]CardView, 0, len(cards))
	for _, pm := range cards {
		out = append(out, cardView(pm, def))
	}
	return out, nil
}

// DefaultCard returns the default card, falling back to the first card on
// file when no default is set.
func (s *Service) DefaultCard(ctx context.Context, customerID string) (CardView, error) {
	cust, cards, err := s.customerCards(ctx, customerID)
	if err != nil {
		return CardView{}, err
	}
	if len(cards) == 0 {
		return CardView{}, notFoundError("Customer payment methods not found", nil)
	}
	def := defaultPaymentMethodID(cust)
	for _, pm := range cards {
		if pm.ID == def {
			return cardView(pm, def), nil
		}
	}
	return cardView(cards[0], def), nil
}

func (s *Service) SetDefaultCard(ctx context.Context, customerID, paymentMethodID string) (CardView, error) {
	_, cards, err := s.customerCards(ctx, customerID)
	if err != nil {
		return CardView{}, err
	}
	pm := findCard(cards, paymentMethodID)
	if pm == nil {
		return CardView{}, notFoundError("Payment method not found", nil)
	}
	if _, err := s.gateway.SetDefaultPaymentMethod(ctx, customerID, pm.ID); err != nil {
		return CardView{}, fromGateway(err, "No customer found", "Failed to update default payment method")
	}
	return cardView(pm, pm.ID), nil
}

// DeleteCard detaches a card. When it was the default, another card on file
// is promoted first so renewals keep a payment method.
func (s *Service) DeleteCard(ctx context.Context, customerID, paymentMethodID string) (string, error) {
	cust, cards, err := s.customerCards(ctx, customerID)
	if err != nil {
		return "", err
	}
	if findCard(cards, paymentMethodID) == nil {
		return "", notFoundError("Payment method not found", nil)
	}

	if defaultPaymentMethodID(cust) == paymentMethodID {
		for _, other := range cards {
			if other.ID == paymentMethodID {
				continue
			}
			if _, err := s.gateway.SetDefaultPaymentMethod(ctx, customerID, other.ID); err != nil {
				return "", fromGateway(err, "No customer found", "Failed to update default payment method")
			}
			s.logger.Info("default card reassigned", "customer_id", customerID, "payment_method_id", other.ID)
			break
		}
	}

	if err := s.gateway.DetachPaymentMethod(ctx, paymentMethodID); err != nil {
		return "", fromGateway(err, "Payment method not found", "Failed to delete payment method")
	}
	s.logger.Info("card detached", "customer_id", customerID, "payment_method_id", paymentMethodID)
	return MsgCardDeleted, nil
}

// SetupCard starts collecting a new card in the browser.
func (s *Service) SetupCard(ctx context.Context, customerID string) (SetupView, error) {
	si, err := s.gateway.CreateSetupIntent(ctx, customerID)
	if err != nil {
		return SetupView{}, fromGateway(err, "No customer found", "Failed to start card setup")
	}
	return SetupView{ID: si.ID, ClientSecret: si.ClientSecret}, nil
}

// Customer returns the processor customer, hiding deleted ones.
func (s *Service) Customer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	return s.customer(ctx, customerID)
}

func (s *Service) customer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	cust, err := s.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fromGateway(err, "No customer found", "Failed to fetch customer")
	}
	return cust, nil
}

func (s *Service) customerCards(ctx context.Context, customerID string) (*stripe.Customer, []*stripe.PaymentMethod, error) {
	cust, err := s.customer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	cards, err := s.gateway.ListCards(ctx, customerID)
	if err != nil {
		return nil, nil, fromGateway(err, "No customer found", "Failed to list payment methods")
	}
	return cust, cards, nil
}

func defaultPaymentMethodID(c *stripe.Customer) string {
	if c == nil || c.InvoiceSettings == nil || c.InvoiceSettings.DefaultPaymentMethod == nil {
		return ""
	}
	return c.InvoiceSettings.DefaultPaymentMethod.ID
}

func findCard(cards []*stripe.PaymentMethod, id string) *stripe.PaymentMethod {
	for _, pm := range cards {
		if pm.ID == id {
			return pm
		}
	}
	return nil
}
