package billing

import (
	"log/slog"

	"billing-dashboard/internal/domain/billing"
)

// Handler serves the subscription, purchase and invoice routes for the
// customer bound to the session.
type Handler struct {
	svc    *billing.Service
	logger *slog.Logger
}

func NewHandler(svc *billing.Service) *Handler {
	return &Handler{svc: svc, logger: slog.With("handler", "BillingHandler")}
}
