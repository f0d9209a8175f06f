package billing

import (
	"context"
	"encoding/json"

	"billing-dashboard/internal/domain/plans"

	"github.com/stripe/stripe-go/v75"
	"golang.org/x/sync/errgroup"
)

// CatalogCacheKey holds the serialised plan catalog.
const CatalogCacheKey = "catalog:plans"

// Plans returns the sellable catalog. Products and prices are fetched
// concurrently and the result is cached for the configured TTL.
func (s *Service) Plans(ctx context.Context) ([]plans.Product, error) {
	if cached, ok := s.cachedPlans(ctx); ok {
		return cached, nil
	}

	var (
		products []*stripe.Product
		prices   []*stripe.Price
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.gateway.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.gateway.ListPrices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstreamError("Failed to load plans", err)
	}

	catalog := plans.Build(products, prices)
	s.storePlans(ctx, catalog)
	return catalog, nil
}

// InvalidateCatalog drops the cached catalog after a product or price change.
func (s *Service) InvalidateCatalog(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, CatalogCacheKey)
}

func (s *Service) cachedPlans(ctx context.Context) ([]plans.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, CatalogCacheKey)
	if err != nil {
		return nil, false
	}
	var out []plans.Product
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("discarding unreadable catalog cache", "error", err)
		return nil, false
	}
	return out, true
}

func (s *Service) storePlans(ctx context.Context, catalog []plans.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, CatalogCacheKey, raw, s.catalogTTL); err != nil {
		s.logger.Warn("failed to cache catalog", "error", err)
	}
}
