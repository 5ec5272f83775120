package cache

import (
	"context"
	"encoding/json"
	"time"

	"escrowpay/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listingTTL = 5 * time.Minute

// ListingCache caches a user's default transaction listing. Cache problems
// are logged and treated as misses; Postgres stays authoritative.
type ListingCache struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewListingCache(rdb *redis.Client, log *zap.Logger) *ListingCache {
	return &ListingCache{rdb: rdb, log: log}
}

func key(userID string) string {
	return "payments:" + userID
}

func (c *ListingCache) Get(ctx context.Context, userID string) ([]models.Transaction, bool) {
	if c.rdb == nil {
		return nil, false
	}
	cached, err := c.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("listing cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var transactions []models.Transaction
	if err := json.Unmarshal([]byte(cached), &transactions); err != nil {
		c.log.Warn("listing cache entry corrupt, dropping", zap.String("user_id", userID), zap.Error(err))
		c.rdb.Del(ctx, key(userID))
		return nil, false
	}
	return transactions, true
}

func (c *ListingCache) Set(ctx context.Context, userID string, transactions []models.Transaction) {
	if c.rdb == nil {
		return
	}
	payload, err := json.Marshal(transactions)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(userID), payload, listingTTL).Err(); err != nil {
		c.log.Warn("listing cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *ListingCache) Invalidate(ctx context.Context, userID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		c.log.Warn("listing cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
