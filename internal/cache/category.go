package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pixel/internal/domain"
	"storefront/pixel/internal/pixel"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type categoryCache struct {
	next        pixel.CategoryRepository
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewCategoryCache wraps next with a Redis read-through cache. Lookups that
// fail are never cached, and Redis errors fall back to next.
func NewCategoryCache(next pixel.CategoryRepository, redisClient *redis.Client, ttl time.Duration) pixel.CategoryRepository {
	return &categoryCache{
		next:        next,
		redisClient: redisClient,
		keyPrefix:   "pixel:category:",
		ttl:         ttl,
	}
}

func (c *categoryCache) key(id domain.CategoryID, storeID domain.StoreID) string {
	return fmt.Sprintf("%s%d:%d", c.keyPrefix, storeID, id)
}

func (c *categoryCache) GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error) {
	key := c.key(id, storeID)

	val, err := c.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var category domain.Category
		if err := json.Unmarshal(val, &category); err == nil {
			return &category, nil
		}
		log.Warnf("⚠️ Dropping unreadable cache entry %s", key)
		if err := c.redisClient.Del(ctx, key).Err(); err != nil {
			log.Warnf("⚠️ Failed to drop cache entry %s: %v", key, err)
		}
	case !errors.Is(err, redis.Nil):
		log.Warnf("⚠️ Category cache unavailable: %v", err)
	}

	category, err := c.next.GetCategory(ctx, id, storeID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(category)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category %d: %w", id, err)
	}

	if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warnf("⚠️ Failed to cache category %d: %v", id, err)
	}

	return category, nil
}
