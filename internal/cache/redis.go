package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ecosopis/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxJitterMinutes = 5

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) Get(ctx context.Context, productID int64) (*domain.Product, error) {
	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

// Generation returns 0 for a product that was never invalidated.
func (r *RedisCache) Generation(ctx context.Context, productID int64) (int64, error) {
	return readGeneration(ctx, r.client, productID)
}

// Fill stores product only if its generation still equals generation. The
// generation key is WATCHed, so an Invalidate racing with the check aborts
// the transaction.
func (r *RedisCache) Fill(ctx context.Context, product *domain.Product, generation int64) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitterMinutes))*time.Minute

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, product.ID)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, productKey(product.ID), data, ttl)
			return nil
		})
		return err
	}, generationKey(product.ID))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleFill), errors.Is(err, redis.TxFailedErr):
		return ErrStaleFill
	default:
		return fmt.Errorf("redis fill failed: %w", err)
	}
}

// Invalidate drops the cached product and bumps its generation in one
// MULTI/EXEC.
func (r *RedisCache) Invalidate(ctx context.Context, productID int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(productID))
		pipe.Del(ctx, productKey(productID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func readGeneration(ctx context.Context, c redis.Cmdable, productID int64) (int64, error) {
	n, err := c.Get(ctx, generationKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return n, nil
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}

func generationKey(productID int64) string {
	return fmt.Sprintf("product:%d:gen", productID)
}
