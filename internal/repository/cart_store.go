package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"grocery-service/internal/entity"
)

const cartTTL = 30 * 24 * time.Hour

// CartStore persists session carts in redis so a draft cart survives
// restarts. The cart stays a local draft: nothing here talks to the product
// or order tables.
type CartStore struct {
	rdb *redis.Client
}

func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Load returns the stored cart for a session, or an empty cart when none is
// stored yet.
func (s *CartStore) Load(ctx context.Context, sessionID string) ([]entity.CartItem, error) {
	val, err := s.rdb.Get(ctx, cartKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []entity.CartItem{}, nil
		}
		return nil, err
	}

	var items []entity.CartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, items []entity.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, cartKey(sessionID), data, cartTTL).Err()
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}
