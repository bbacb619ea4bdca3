// Package catalog serves product reads and admin writes on top of the
// product repository, with a read-through cache for single-product lookups.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ecosopis/storefront/internal/cache"
	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/metrics"
	"github.com/ecosopis/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

const lookupTimeout = 5 * time.Second

type Service struct {
	repo    repository.ProductRepository
	cache   cache.ProductCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.ProductRepository, cache cache.ProductCache, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: m,
		logger:  logger.With("component", "catalog"),
	}
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListProducts(ctx, filter)
}

// GetProduct serves from the cache and falls back to the repository. Callers
// asking for the same product at once share one lookup; that lookup runs
// detached from any single request so one cancelled caller does not fail
// the others.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	ch := s.sfg.DoChan(strconv.FormatInt(id, 10), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.loadProduct(lookupCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*domain.Product)
		return &p, nil
	}
}

func (s *Service) loadProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.cache.Get(ctx, id)
	if err == nil {
		s.recordLookup(true)
		return product, nil
	}
	s.recordLookup(false)
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "cache get error", "product_id", id, "error", err) // continue with the database
	}

	// read before the database so an invalidation landing in between
	// makes the fill below a no-op
	generation, genErr := s.cache.Generation(ctx, id)

	product, err = s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		s.logger.WarnContext(ctx, "cache generation error, skipping fill", "product_id", id, "error", genErr)
		return product, nil
	}

	go func(p domain.Product) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := s.cache.Fill(ctx, &p, generation)
		switch {
		case errors.Is(err, cache.ErrStaleFill):
			s.logger.Debug("cache fill dropped after invalidation", "product_id", p.ID)
		case err != nil:
			s.logger.Warn("cache fill error", "product_id", p.ID, "error", err)
		}
	}(*product)

	return product, nil
}

func (s *Service) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product created", "product_id", p.ID, "category", p.Category)
	return nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	p, err := s.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(id)
	s.logger.InfoContext(ctx, "product updated", "product_id", id)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	s.logger.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func (s *Service) invalidate(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("cache invalidate error", "product_id", id, "error", err)
	}
}

func (s *Service) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
}
