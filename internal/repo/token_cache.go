package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Flaviohmm/mei-backend/internal/auth"
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenCache guarda chave → usuário no Redis para evitar ida ao banco a cada requisição.
// Um TokenCache nil é válido e não faz nada.
type TokenCache struct {
	redis redisCommander
	ttl   time.Duration
}

// NewTokenCache cria o cache; client nil devolve nil.
func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	if client == nil {
		return nil
	}
	return &TokenCache{redis: client, ttl: ttl}
}

// Get devolve o id do usuário associado à chave, se presente.
func (c *TokenCache) Get(ctx context.Context, key string) (uuid.UUID, bool, error) {
	if c == nil {
		return uuid.Nil, false, nil
	}
	val, err := c.redis.Get(ctx, auth.TokenCacheKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

// Set associa a chave ao usuário.
func (c *TokenCache) Set(ctx context.Context, key string, userID uuid.UUID) error {
	if c == nil {
		return nil
	}
	return c.redis.Set(ctx, auth.TokenCacheKey(key), userID.String(), c.ttl).Err()
}

// Delete invalida a chave.
func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	if err := c.redis.Del(ctx, auth.TokenCacheKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
