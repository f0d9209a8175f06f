package billing

import (
	"net/http"

	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /subscriptions
func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.svc.ListSubscriptions(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, subs)
}

// POST /subscriptions
func (h *Handler) Subscribe(c *gin.Context) {
	var body struct {
		PriceID                string `json:"priceId" binding:"required"`
		DefaultPaymentMethodID string `json:"defaultPaymentMethodId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid priceId")
		return
	}

	res, err := h.svc.Subscribe(c.Request.Context(), middleware.CustomerID(c), body.PriceID, body.DefaultPaymentMethodID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, res)
}

// PUT /subscriptions
func (h *Handler) ChangePlan(c *gin.Context) {
	var body struct {
		SubscriptionID string `json:"subscriptionId" binding:"required"`
		NewPriceID     string `json:"newPriceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid subscriptionId or newPriceId")
		return
	}

	msg, err := h.svc.ChangePlan(c.Request.Context(), middleware.CustomerID(c), body.SubscriptionID, body.NewPriceID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, msg)
}

type subscriptionRef struct {
	SubscriptionID string `json:"subscriptionId" binding:"required"`
}

// PUT /subscriptions/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var body subscriptionRef
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid subscriptionId")
		return
	}

	msg, err := h.svc.Cancel(c.Request.Context(), middleware.CustomerID(c), body.SubscriptionID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, msg)
}

// PUT /subscriptions/resume
func (h *Handler) Resume(c *gin.Context) {
	var body subscriptionRef
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid subscriptionId")
		return
	}

	msg, err := h.svc.Resume(c.Request.Context(), middleware.CustomerID(c), body.SubscriptionID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, msg)
}
