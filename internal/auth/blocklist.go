// File: internal/auth/blocklist.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"wecare_donations_backend/internal/shared"
)

// InMemoryBlocklistService keeps revoked token IDs in a go-cache. It is used
// when Redis is not configured and is local to one process.
type InMemoryBlocklistService struct {
	cache *cache.Cache
}

// InMemoryBlocklistConfig holds the configuration for the InMemoryBlocklistService.
type InMemoryBlocklistConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// NewInMemoryBlocklistService creates a new in-memory blocklist service.
func NewInMemoryBlocklistService(cfg InMemoryBlocklistConfig) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache: cache.New(cfg.DefaultExpiration, cfg.CleanupInterval),
	}
}

// AddToBlocklist keeps the jti until expiresAt; already expired tokens are skipped.
func (s *InMemoryBlocklistService) AddToBlocklist(_ context.Context, jti string, expiresAt time.Time) error {
	duration := time.Until(expiresAt)
	if duration <= 0 {
		return nil
	}
	s.cache.Set(jti, true, duration)
	return nil
}

func (s *InMemoryBlocklistService) IsBlocklisted(_ context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}

// RedisBlocklistService shares revoked token IDs across instances.
type RedisBlocklistService struct {
	client *redis.Client
}

func NewRedisBlocklistService(client *redis.Client) *RedisBlocklistService {
	return &RedisBlocklistService{client: client}
}

func blocklistKey(jti string) string {
	return "auth:blocklist:" + jti
}

func (s *RedisBlocklistService) AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error {
	duration := time.Until(expiresAt)
	if duration <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blocklistKey(jti), 1, duration).Err(); err != nil {
		return fmt.Errorf("blocklist token: %w", err)
	}
	return nil
}

func (s *RedisBlocklistService) IsBlocklisted(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, blocklistKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blocklist: %w", err)
	}
	return true, nil
}

// NewBlocklist picks Redis when a client is available and go-cache otherwise.
func NewBlocklist(client *redis.Client) shared.TokenBlocklist {
	if client != nil {
		return NewRedisBlocklistService(client)
	}
	return NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Hour,
		CleanupInterval:   10 * time.Minute,
	})
}
