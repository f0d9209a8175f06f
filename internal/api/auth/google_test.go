package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"billing-dashboard/internal/domain/identity"
	"billing-dashboard/internal/domain/users"
	"billing-dashboard/internal/infra/payments/paymentstest"
	"billing-dashboard/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type memUsers struct {
	mu    sync.Mutex
	bySub map[string]*users.User
	seq   uint
}

func (m *memUsers) UpsertGoogleUser(_ context.Context, sub, email, name, role string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bySub == nil {
		m.bySub = map[string]*users.User{}
	}
	u, ok := m.bySub[sub]
	if !ok {
		m.seq++
		s := sub
		u = &users.User{ID: m.seq, GoogleSub: &s, Email: email, Name: name}
		m.bySub[sub] = u
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetCustomerID(_ context.Context, userID uint, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.bySub {
		if u.ID == userID {
			id := customerID
			u.StripeCustomerID = &id
		}
	}
	return nil
}

var testSecret = []byte("auth-secret")

func newTestHandler(t *testing.T) (*Handler, *memUsers, *paymentstest.Fake) {
	t.Helper()
	f := paymentstest.New()
	store := &memUsers{}
	h := NewHandler(Config{
		ClientID:    "client-id",
		RedirectURL: "http://localhost/auth/google/callback",
		JWTSecret:   testSecret,
		SessionTTL:  time.Hour,
		AdminEmails: []string{"boss@example.com"},
	}, store, identity.NewResolver(f, storage.NewLocalLocker()))
	return h, store, f
}

func TestCompleteLoginProvisionsCustomerOnce(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx := context.Background()
	claims := &googleIDClaims{Sub: "g-1", Email: "ada@example.com", Name: "Ada"}

	raw, err := h.completeLogin(ctx, claims)
	require.NoError(t, err)
	s, err := identity.ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, users.RoleUser, s.Role)
	require.NotEmpty(t, s.CustomerID)
	assert.Contains(t, f.Customers, s.CustomerID)

	raw, err = h.completeLogin(ctx, claims)
	require.NoError(t, err)
	again, err := identity.ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, s.CustomerID, again.CustomerID)
	assert.Equal(t, 1, f.CallCount("CreateCustomer"))
	assert.Equal(t, 1, f.CallCount("FindCustomerByEmail"))
}

func TestCompleteLoginReusesProcessorCustomer(t *testing.T) {
	h, _, f := newTestHandler(t)
	f.AddCustomer("cus_legacy", "ada@example.com")

	raw, err := h.completeLogin(context.Background(), &googleIDClaims{Sub: "g-1", Email: "ada@example.com"})
	require.NoError(t, err)
	s, err := identity.ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "cus_legacy", s.CustomerID)
	assert.Zero(t, f.CallCount("CreateCustomer"))
}

func TestCompleteLoginGrantsAdmin(t *testing.T) {
	h, _, _ := newTestHandler(t)

	raw, err := h.completeLogin(context.Background(), &googleIDClaims{Sub: "g-2", Email: "Boss@Example.com"})
	require.NoError(t, err)
	s, err := identity.ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, s.Role)
}

func TestCompleteLoginFailsWithoutCustomer(t *testing.T) {
	h, store, f := newTestHandler(t)
	f.Errs["CreateCustomer"] = assert.AnError

	_, err := h.completeLogin(context.Background(), &googleIDClaims{Sub: "g-3", Email: "new@example.com"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, store.bySub["g-3"].StripeCustomerID)
}

func TestGoogleStartRedirects(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/auth/google", h.GoogleStart)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "https://accounts.google.com/"), loc)
	assert.Contains(t, loc, "client_id=client-id")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "oauth_state=")
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/auth/google/callback", h.GoogleCallback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s2"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"invalid oauth state"}`, w.Body.String())
}
