package stripewebhooks

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleCustomerDeleted(ctx context.Context, cust *stripe.Customer) error {
	if cust.ID == "" {
		return nil
	}
	n, err := h.users.UnlinkCustomer(ctx, cust.ID)
	if err != nil {
		return fmt.Errorf("unlink customer %s: %w", cust.ID, err)
	}
	h.logger.Info("customer unlinked", "customer_id", cust.ID, "users", n)
	return nil
}
