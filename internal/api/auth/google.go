package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"billing-dashboard/internal/domain/identity"
	"billing-dashboard/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

type UserStore interface {
	UpsertGoogleUser(ctx context.Context, sub, email, name, role string) (*users.User, error)
	SetCustomerID(ctx context.Context, userID uint, customerID string) error
}

type CustomerResolver interface {
	EnsureCustomer(ctx context.Context, email, name string) (string, error)
}

type Config struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	JWTSecret        []byte
	SessionTTL       time.Duration
	AdminEmails      []string
	SecureCookies    bool
}

// Handler signs users in with Google and links them to a billing customer.
type Handler struct {
	cfg       Config
	oauth     *oauth2.Config
	users     UserStore
	customers CustomerResolver
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewHandler(cfg Config, users UserStore, customers CustomerResolver) *Handler {
	return &Handler{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"openid",
				"email",
				"profile",
			},
			Endpoint: google.Endpoint,
		},
		users:     users,
		customers: customers,
		now:       time.Now,
		logger:    slog.With("handler", "AuthHandler"),
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate state"})
		return
	}

	c.SetCookie(
		"oauth_state",
		state,
		300,
		"/",
		"",
		h.cfg.SecureCookies,
		true,
	)

	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie("oauth_state")
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid oauth state"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "failed to exchange code"})
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing id_token"})
		return
	}

	claims, err := h.verifyIDToken(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}

	tokenString, err := h.completeLogin(ctx, claims)
	if err != nil {
		h.logger.Error("login failed", "email", claims.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not complete login"})
		return
	}

	if h.cfg.FrontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": tokenString})
		return
	}
	c.Redirect(http.StatusFound, h.cfg.FrontendRedirect+"?token="+url.QueryEscape(tokenString))
}

/* ---------------- helpers ---------------- */

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

func (h *Handler) verifyIDToken(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	verifier, err := h.idTokenVerifier(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google account email is not verified")
	}
	return &claims, nil
}

// idTokenVerifier discovers the provider on first use and keeps it.
func (h *Handler) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.verifier != nil {
		return h.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	h.verifier = provider.Verifier(&oidc.Config{ClientID: h.cfg.ClientID})
	return h.verifier, nil
}

// completeLogin upserts the user, makes sure a billing customer exists for
// them and issues the session token.
func (h *Handler) completeLogin(ctx context.Context, gc *googleIDClaims) (string, error) {
	role := users.RoleUser
	if h.isAdmin(gc.Email) {
		role = users.RoleAdmin
	}
	name := firstNonEmpty(gc.Name, gc.GivenName)

	user, err := h.users.UpsertGoogleUser(ctx, gc.Sub, gc.Email, name, role)
	if err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = h.customers.EnsureCustomer(ctx, user.Email, name)
		if err != nil {
			return "", fmt.Errorf("ensure customer: %w", err)
		}
		if err := h.users.SetCustomerID(ctx, user.ID, customerID); err != nil {
			return "", fmt.Errorf("link customer: %w", err)
		}
		h.logger.Info("customer linked", "user_id", user.ID, "customer_id", customerID)
	}

	return identity.IssueToken(h.cfg.JWTSecret, identity.Session{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		CustomerID: customerID,
	}, h.cfg.SessionTTL, h.now())
}

func (h *Handler) isAdmin(email string) bool {
	email = identity.NormalizeEmail(email)
	for _, e := range h.cfg.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
