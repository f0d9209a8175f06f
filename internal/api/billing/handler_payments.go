package billing

import (
	"net/http"

	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// POST /purchase
func (h *Handler) Purchase(c *gin.Context) {
	var body struct {
		PriceID              string `json:"priceId" binding:"required"`
		DefaultPaymentMethod string `json:"defaultPaymentMethod"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid priceId")
		return
	}

	msg, err := h.svc.Purchase(c.Request.Context(), middleware.CustomerID(c), body.PriceID, body.DefaultPaymentMethod)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, msg)
}

// GET /invoices
func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.svc.ListInvoices(c.Request.Context(), middleware.CustomerID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Data(c, invoices)
}

// POST /invoices
func (h *Handler) PayInvoice(c *gin.Context) {
	var body struct {
		InvoiceID string `json:"invoiceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Missing or invalid invoiceId")
		return
	}

	res, err := h.svc.PayInvoice(c.Request.Context(), middleware.CustomerID(c), body.InvoiceID)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
