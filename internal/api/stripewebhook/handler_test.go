package stripewebhooks

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"billing-dashboard/internal/infra/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75/webhook"
)

const whSecret = "whsec_test"

func init() { gin.SetMode(gin.TestMode) }

type recorder struct {
	mu          sync.Mutex
	unlinked    []string
	statuses    map[string]string
	invalidated int
	err         error
}

func (r *recorder) UnlinkCustomer(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.unlinked = append(r.unlinked, id)
	return 1, nil
}

func (r *recorder) UpdateStatusByPaymentIntent(_ context.Context, id, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses == nil {
		r.statuses = map[string]string{}
	}
	r.statuses[id] = status
	return 1, nil
}

func (r *recorder) InvalidateCatalog(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated++
	return nil
}

func setup(t *testing.T) (*gin.Engine, *recorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := storage.NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	rec := &recorder{}
	h := NewHandler(whSecret, rc, rec, rec, rec)
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)
	return r, rec
}

func event(id, typ, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, id, typ, object))
}

func post(r http.Handler, payload []byte, secret string) *httptest.ResponseRecorder {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, rec := setup(t)
	w := post(r, event("evt_1", "customer.deleted", `{"id":"cus_1","object":"customer"}`), "whsec_other")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.unlinked)
}

func TestWebhookCustomerDeletedOnce(t *testing.T) {
	r, rec := setup(t)
	payload := event("evt_del", "customer.deleted", `{"id":"cus_1","object":"customer"}`)

	w := post(r, payload, whSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())

	w = post(r, payload, whSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"duplicate"}`, w.Body.String())
	assert.Equal(t, []string{"cus_1"}, rec.unlinked)
}

func TestWebhookFailureAllowsRetry(t *testing.T) {
	r, rec := setup(t)
	rec.err = assert.AnError
	payload := event("evt_retry", "customer.deleted", `{"id":"cus_2","object":"customer"}`)

	w := post(r, payload, whSecret)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	rec.err = nil
	w = post(r, payload, whSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cus_2"}, rec.unlinked)
}

func TestWebhookPaymentIntentUpdatesLedger(t *testing.T) {
	r, rec := setup(t)
	w := post(r, event("evt_pi", "payment_intent.payment_failed", `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method"}`), whSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "requires_payment_method", rec.statuses["pi_1"])
}

func TestWebhookCatalogEventsInvalidateCache(t *testing.T) {
	r, rec := setup(t)
	post(r, event("evt_p1", "product.updated", `{"id":"prod_1","object":"product"}`), whSecret)
	post(r, event("evt_p2", "price.created", `{"id":"price_1","object":"price"}`), whSecret)
	assert.Equal(t, 2, rec.invalidated)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	r, _ := setup(t)
	w := post(r, event("evt_x", "charge.refunded", `{"id":"ch_1","object":"charge"}`), whSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
}
