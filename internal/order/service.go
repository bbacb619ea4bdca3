// Package order turns a submitted cart into a persisted order and serves a
// user's order history.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/metrics"
	"github.com/ecosopis/storefront/internal/repository"
)

// ProductReader resolves products at their current stored price. It must not
// be served from a cache, since the price read here is what the customer pays.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	products ProductReader
	orders   repository.OrderRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(products ProductReader, orders repository.OrderRepository, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		products: products,
		orders:   orders,
		metrics:  m,
		logger:   logger.With("component", "order"),
	}
}

func (s *Service) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, userID)
}

// GetOrder returns the order only to its owner. Orders of other users are
// reported as not found so their ids cannot be enumerated.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func wrapUpstream(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
