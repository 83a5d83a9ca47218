// Package redis persists each cart under a single well-known key as a JSON
// array of item lines.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"cart-service/internal/cart"
	"cart-service/pkg/logkey"
)

const keyPrefix = "cart:"

type Store struct {
	client *goredis.Client
}

func NewStore(ctx context.Context, addr string) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		MinIdleConns: 1,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Store{client: client}, nil
}

func cartKey(ownerID string) string {
	return keyPrefix + ownerID
}

func (s *Store) Load(ctx context.Context, ownerID string) ([]cart.Item, error) {
	val, err := s.client.Get(ctx, cartKey(ownerID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart from redis: %w", err)
	}

	var items []cart.Item
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		// Corrupt payload is treated as an empty cart, never propagated.
		slog.Warn("malformed cart record in redis, treating as empty",
			slog.String(logkey.OwnerID, ownerID), slog.String(logkey.ERROR, err.Error()))
		return nil, nil
	}

	return items, nil
}

func (s *Store) Save(ctx context.Context, ownerID string, items []cart.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(ownerID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cart to redis: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID string) error {
	if err := s.client.Del(ctx, cartKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart from redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
