package stripewebhooks

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
)

// handlePaymentIntent keeps ledger rows in step with the processor. Intents
// that did not come from a purchase match no row and are skipped.
func (h *Handler) handlePaymentIntent(ctx context.Context, pi *stripe.PaymentIntent) error {
	if pi.ID == "" {
		return nil
	}
	n, err := h.purchases.UpdateStatusByPaymentIntent(ctx, pi.ID, string(pi.Status))
	if err != nil {
		return fmt.Errorf("update purchase %s: %w", pi.ID, err)
	}
	if n > 0 {
		h.logger.Info("purchase status updated", "payment_intent_id", pi.ID, "status", pi.Status)
	}
	return nil
}
