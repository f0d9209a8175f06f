// Package identity maps a signed-in user onto exactly one processor customer.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"billing-dashboard/internal/infra/payments"
	"billing-dashboard/internal/infra/storage"

	"github.com/google/uuid"
)

const lockTTL = 30 * time.Second

// customerNamespace seeds the idempotency keys for customer creation.
var customerNamespace = uuid.MustParse("5b0e3c1a-8f6d-4e7b-9a52-2d1c7f4e9b30")

var ErrInvalidEmail = errors.New("identity: email is required")

type Resolver struct {
	gateway payments.Gateway
	locker  storage.Locker
	logger  *slog.Logger
}

func NewResolver(gateway payments.Gateway, locker storage.Locker) *Resolver {
	return &Resolver{
		gateway: gateway,
		locker:  locker,
		logger:  slog.With("service", "IdentityResolver"),
	}
}

// EnsureCustomer returns the processor customer for email, creating it on
// first login. Concurrent logins for the same email are serialised on a
// lock, and creation carries an idempotency key derived from the email so a
// lock that expired mid-flight still yields a single customer.
func (r *Resolver) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return "", ErrInvalidEmail
	}

	release, err := r.locker.Acquire(ctx, "customer-email:"+key, lockTTL)
	if err != nil {
		return "", fmt.Errorf("lock customer %s: %w", key, err)
	}
	defer release()

	cust, err := r.gateway.FindCustomerByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		return cust.ID, nil
	case !errors.Is(err, payments.ErrNotFound):
		return "", fmt.Errorf("find customer: %w", err)
	}

	cust, err = r.gateway.CreateCustomer(ctx, strings.TrimSpace(email), name, IdempotencyKey(key))
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	r.logger.Info("customer created", "customer_id", cust.ID, "email", key)
	return cust.ID, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdempotencyKey is stable for a normalised email.
func IdempotencyKey(normalizedEmail string) string {
	return "customer-" + uuid.NewSHA1(customerNamespace, []byte(normalizedEmail)).String()
}
