package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"storefront/pixel/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ViewStore keeps the last derived view of each product
type ViewStore interface {
	GetProductView(ctx context.Context, productID domain.ProductID) (*domain.ProductView, error)
	SetProductView(ctx context.Context, view *domain.ProductView) error
}

type redisViewStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisViewStore(redisClient *redis.Client) ViewStore {
	return &redisViewStore{
		redisClient: redisClient,
		keyPrefix:   "pixel:view:",
	}
}

func (s *redisViewStore) key(productID domain.ProductID) string {
	return s.keyPrefix + strconv.FormatInt(int64(productID), 10)
}

// GetProductView returns nil when no view was stored yet
func (s *redisViewStore) GetProductView(ctx context.Context, productID domain.ProductID) (*domain.ProductView, error) {
	val, err := s.redisClient.Get(ctx, s.key(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get view of product %d: %w", productID, err)
	}

	var view domain.ProductView
	if err := json.Unmarshal(val, &view); err != nil {
		return nil, fmt.Errorf("failed to decode view of product %d: %w", productID, err)
	}

	return &view, nil
}

func (s *redisViewStore) SetProductView(ctx context.Context, view *domain.ProductView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view of product %d: %w", view.ProductID, err)
	}

	err = s.redisClient.Set(ctx, s.key(view.ProductID), data, 0).Err() // No expiration
	if err != nil {
		return fmt.Errorf("failed to set view of product %d: %w", view.ProductID, err)
	}
	return nil
}
