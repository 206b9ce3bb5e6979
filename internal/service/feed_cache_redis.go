package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"skills-arena/internal/domain"
)

// redisFeedCache es un read-cache de páginas compuestas con TTL corto.
// El TTL hace la invalidación: las páginas expiran solas, nunca son
// fuente de verdad de contadores.
type redisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisFeedCache devuelve un FeedCache respaldado por Redis, o nil si
// no hay cliente (el servicio funciona igual sin cache).
func NewRedisFeedCache(client *redis.Client, ttl time.Duration) FeedCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisFeedCache{
		client: client,
		ttl:    ttl,
		prefix: "arena:",
	}
}

func (c *redisFeedCache) Get(ctx context.Context, key string) ([]domain.SkillSummary, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var items []domain.SkillSummary
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *redisFeedCache) Set(ctx context.Context, key string, items []domain.SkillSummary) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	// Cache best-effort: un error de Redis no afecta la respuesta.
	c.client.Set(ctx, c.prefix+key, raw, c.ttl)
}
