package billing

import (
	"context"
	"log/slog"
	"time"

	"billing-dashboard/internal/infra/payments"
)

// Ledger records settled one-time purchases locally.
type Ledger interface {
	RecordPurchase(ctx context.Context, p *Purchase) error
}

// Cache stores serialised read models such as the plan catalog.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Ledger     Ledger
	Cache      Cache
	Comparator Comparator
	CatalogTTL time.Duration
	Now        func() time.Time
}

// Service runs the customer billing workflows against the payment processor.
// The processor is the system of record; Service keeps no state of its own.
type Service struct {
	gateway    payments.Gateway
	ledger     Ledger
	cache      Cache
	compare    Comparator
	catalogTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(gateway payments.Gateway, opts Options) *Service {
	s := &Service{
		gateway:    gateway,
		ledger:     opts.Ledger,
		cache:      opts.Cache,
		compare:    opts.Comparator,
		catalogTTL: opts.CatalogTTL,
		now:        opts.Now,
		logger:     slog.With("service", "BillingService"),
	}
	if s.compare == nil {
		s.compare = ByUnitAmount
	}
	if s.catalogTTL <= 0 {
		s.catalogTTL = 5 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}
