package mem

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldowns is the production CooldownStore. SET NX EX gives the
// atomic set-if-absent with TTL, so concurrent allocators racing past the
// threshold produce exactly one alert per window.
type RedisCooldowns struct {
	client *redis.Client
}

func NewRedisCooldowns(client *redis.Client) *RedisCooldowns {
	return &RedisCooldowns{client: client}
}

func (s *RedisCooldowns) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

func (s *RedisCooldowns) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisCooldowns) Active(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
