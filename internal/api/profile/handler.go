package profile

import (
	"log/slog"
	"net/http"
	"strings"

	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/app/http/middleware"
	"billing-dashboard/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// Handler serves the billing address and saved card routes.
type Handler struct {
	svc    *billing.Service
	logger *slog.Logger
}

func NewHandler(svc *billing.Service) *Handler {
	return &Handler{svc: svc, logger: slog.With("handler", "ProfileHandler")}
}

// GET /billingAddress
func (h *Handler) GetBillingAddress(c *gin.Context) {
	addr, err := h.svc.BillingAddress(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, addr)
}

// POST /billingAddress
func (h *Handler) UpdateBillingAddress(c *gin.Context) {
	var body billing.AddressView
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Country, state and post code are required")
		return
	}

	addr, err := h.svc.UpdateBillingAddress(c.Request.Context(), middleware.CustomerID(c), body)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, addr)
}

// GET /paymentDetails
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.svc.Cards(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, cards)
}

// DELETE /paymentDetails?id=
func (h *Handler) DeleteCard(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		respond.Fail(c, http.StatusBadRequest, "Payment method id is required")
		return
	}

	msg, err := h.svc.DeleteCard(c.Request.Context(), middleware.CustomerID(c), id)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, msg)
}

// GET /paymentDetails/defaultPaymentMethod
func (h *Handler) GetDefaultCard(c *gin.Context) {
	card, err := h.svc.DefaultCard(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, card)
}

// PUT /paymentDetails/defaultPaymentMethod
func (h *Handler) SetDefaultCard(c *gin.Context) {
	var body struct {
		PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid paymentMethodId")
		return
	}

	card, err := h.svc.SetDefaultCard(c.Request.Context(), middleware.CustomerID(c), body.PaymentMethodID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": billing.MsgDefaultCardUpdate, "data": card})
}

// GET /paymentDetails/setup
func (h *Handler) SetupCard(c *gin.Context) {
	setup, err := h.svc.SetupCard(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, setup)
}
