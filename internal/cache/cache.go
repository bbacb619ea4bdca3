package cache

import (
	"context"
	"errors"

	"github.com/ecosopis/storefront/internal/domain"
)

// ProductCache is a read-through cache for single products.
//
// Fills are guarded by a per-product generation counter. A reader takes the
// generation before it loads the product from the database and passes it to
// Fill; any Invalidate in between bumps the counter and the fill is dropped,
// so an old row cannot be written back over a newer update or a delete.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	Generation(ctx context.Context, productID int64) (int64, error)
	Fill(ctx context.Context, product *domain.Product, generation int64) error
	Invalidate(ctx context.Context, productID int64) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleFill means the product was invalidated after the caller read
	// its generation. Nothing was written.
	ErrStaleFill = errors.New("cache fill superseded by invalidation")
)
