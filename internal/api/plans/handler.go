package plans

import (
	"log/slog"
	"net/http"

	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc    *billing.Service
	logger *slog.Logger
}

func NewHandler(svc *billing.Service) *Handler {
	return &Handler{svc: svc, logger: slog.With("handler", "PlansHandler")}
}

// GET /subscriptions/plans
func (h *Handler) ListPlans(c *gin.Context) {
	catalog, err := h.svc.Plans(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, catalog)
}

// POST /admin/sync-plans drops the cached catalog and reloads it from the
// processor.
func (h *Handler) SyncPlans(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.svc.InvalidateCatalog(ctx); err != nil {
		h.logger.Error("catalog invalidation failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to refresh plans")
		return
	}
	catalog, err := h.svc.Plans(ctx)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	prices := 0
	for _, p := range catalog {
		prices += len(p.Prices.Free) + len(p.Prices.Monthly) + len(p.Prices.Yearly) + len(p.Prices.OneTime)
	}
	h.logger.Info("catalog refreshed", "products", len(catalog), "prices", prices)
	c.JSON(http.StatusOK, gin.H{"message": "Plans synced", "products": len(catalog), "prices": prices})
}
