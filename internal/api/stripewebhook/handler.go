package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

const (
	maxBodyBytes = 65536
	dedupeTTL    = 72 * time.Hour
)

// EventMarker remembers processed event ids.
type EventMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

type CustomerUnlinker interface {
	UnlinkCustomer(ctx context.Context, customerID string) (int64, error)
}

type PurchaseUpdater interface {
	UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID, status string) (int64, error)
}

type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// Handler consumes processor events. Marker may be nil, in which case
// redelivered events are processed again; every handler is idempotent.
type Handler struct {
	secret    string
	marker    EventMarker
	users     CustomerUnlinker
	purchases PurchaseUpdater
	catalog   CatalogInvalidator
	logger    *slog.Logger
}

func NewHandler(secret string, marker EventMarker, users CustomerUnlinker, purchases PurchaseUpdater, catalog CatalogInvalidator) *Handler {
	return &Handler{
		secret:    secret,
		marker:    marker,
		users:     users,
		purchases: purchases,
		catalog:   catalog,
		logger:    slog.With("handler", "StripeWebhook"),
	}
}

// POST /webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logger.Warn("signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Signature verification failed"})
		return
	}

	ctx := c.Request.Context()
	logger := h.logger.With("event_id", event.ID, "event_type", event.Type)

	if h.marker != nil {
		first, err := h.marker.MarkOnce(ctx, "stripe-event:"+event.ID, dedupeTTL)
		if err != nil {
			logger.Error("event dedupe failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record event"})
			return
		}
		if !first {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	handled, err := h.dispatch(ctx, event)
	if err != nil {
		logger.Error("event handling failed", "error", err)
		if h.marker != nil {
			// let the processor's retry run it again
			if uerr := h.marker.Unmark(ctx, "stripe-event:"+event.ID); uerr != nil {
				logger.Error("event unmark failed", "error", uerr)
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to handle event"})
		return
	}
	if !handled {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	logger.Info("event handled")
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (h *Handler) dispatch(ctx context.Context, event stripe.Event) (bool, error) {
	t := string(event.Type)
	switch {
	case t == "customer.deleted":
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return true, err
		}
		return true, h.handleCustomerDeleted(ctx, &cust)

	case t == "payment_intent.succeeded", t == "payment_intent.payment_failed", t == "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return true, err
		}
		return true, h.handlePaymentIntent(ctx, &pi)

	case strings.HasPrefix(t, "product."), strings.HasPrefix(t, "price."):
		return true, h.handleCatalogChanged(ctx, t)
	}
	return false, nil
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
