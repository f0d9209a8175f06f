package stripewebhooks

import (
	"context"
	"fmt"
)

// handleCatalogChanged drops the cached plan catalog on any product or price
// event so the next read reloads it.
func (h *Handler) handleCatalogChanged(ctx context.Context, eventType string) error {
	if err := h.catalog.InvalidateCatalog(ctx); err != nil {
		return fmt.Errorf("invalidate catalog after %s: %w", eventType, err)
	}
	return nil
}
