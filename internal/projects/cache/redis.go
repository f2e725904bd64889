package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
)

const (
	listKey = "portfolio:projects:all"
	// genKey is bumped by every invalidation. A listing is only cached while
	// the generation it was read under is still current.
	genKey = "portfolio:projects:gen"
)

var errStale = errors.New("listing generation changed")

// RedisListCache keeps the full project listing under one key.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

// Get returns the cached listing. ok is false on a miss.
func (c *RedisListCache) Get(ctx context.Context) ([]domain.Project, bool, error) {
	data, err := c.client.Get(ctx, listKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached projects: %w", err)
	}

	var out []domain.Project
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached projects: %w", err)
	}
	return out, true, nil
}

// Generation returns the current invalidation counter. Read it before
// querying the rows that will be passed to Set.
func (c *RedisListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get projects generation: %w", err)
	}
	return gen, nil
}

// Set caches projects if no invalidation happened since gen was read. A
// stale listing is dropped silently.
func (c *RedisListCache) Set(ctx context.Context, gen int64, projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listKey, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("cache projects: %w", err)
	}
}

// Invalidate bumps the generation and drops the cached listing.
func (c *RedisListCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, listKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate projects: %w", err)
	}
	return nil
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context) ([]domain.Project, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context) (int64, error)           { return 0, nil }
func (Nop) Set(context.Context, int64, []domain.Project) error  { return nil }
func (Nop) Invalidate(context.Context) error                    { return nil }
