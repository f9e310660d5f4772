package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores the cart JSON under cart:{shopper}. Abandoned carts expire.
type Redis struct {
	client  *redis.Client
	shopper string
	baseTTL time.Duration
}

func NewRedis(client *redis.Client, shopper string) *Redis {
	return &Redis{
		client:  client,
		shopper: shopper,
		baseTTL: 7 * 24 * time.Hour,
	}
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	data, err := r.client.Get(ctx, cartKey(r.shopper)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, json string) error {
	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := r.client.Set(ctx, cartKey(r.shopper), json, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(shopper string) string {
	return fmt.Sprintf("cart:%s", shopper)
}
