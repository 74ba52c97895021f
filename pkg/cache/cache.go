package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

type localEntry struct {
	expires time.Time
	data    []byte
}

// Cache stores sonic encoded values in redis with a short lived local copy in front.
type Cache struct {
	client   redis.Cmdable
	closer   func() error
	localTTL time.Duration
	mu       sync.Mutex
	memCache map[string]localEntry
}

func NewCache(addr, password string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	c := NewCacheWithClient(rdb, time.Minute)
	c.closer = rdb.Close
	return c
}

func NewCacheWithClient(client redis.Cmdable, localTTL time.Duration) *Cache {
	return &Cache{
		client:   client,
		localTTL: localTTL,
		memCache: make(map[string]localEntry),
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) local(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.memCache[key]
	if !found {
		return nil, false
	}
	if entry.expires.Before(time.Now()) {
		delete(c.memCache, key)
		return nil, false
	}
	return entry.data, true
}

func (c *Cache) remember(key string, data []byte, expiration time.Duration) {
	ttl := c.localTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.memCache[key] = localEntry{expires: time.Now().Add(ttl), data: data}
	c.mu.Unlock()
}

func (c *Cache) forget(key string) {
	c.mu.Lock()
	delete(c.memCache, key)
	c.mu.Unlock()
}

func (c *Cache) Get(ctx context.Context, key string, out any) error {
	if data, ok := c.local(key); ok {
		return sonic.Unmarshal(data, out)
	}
	data, err := c.getRemote(ctx, key, out)
	if err != nil {
		return err
	}
	c.remember(key, data, c.localTTL)
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := c.setRemote(ctx, key, value, expiration)
	if err != nil {
		c.forget(key)
		return err
	}
	c.remember(key, data, expiration)
	return nil
}

// GetShared reads key from redis only, for values other instances write to.
func (c *Cache) GetShared(ctx context.Context, key string, out any) error {
	_, err := c.getRemote(ctx, key, out)
	return err
}

// SetShared writes key to redis and drops any local copy.
func (c *Cache) SetShared(ctx context.Context, key string, value any, expiration time.Duration) error {
	c.forget(key)
	_, err := c.setRemote(ctx, key, value, expiration)
	return err
}

func (c *Cache) getRemote(ctx context.Context, key string, out any) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	if err = sonic.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Cache) setRemote(ctx context.Context, key string, value any, expiration time.Duration) ([]byte, error) {
	data, err := sonic.Marshal(value)
	if err != nil {
		return nil, err
	}
	if err = c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.forget(key)
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

type CacheHelper[T any] struct {
	Cache *Cache
}

func NewCacheHelper[T any](cache *Cache) *CacheHelper[T] {
	return &CacheHelper[T]{Cache: cache}
}

// Handle reads key into out, on a miss fn produces the value which is stored.
func (c *CacheHelper[T]) Handle(ctx context.Context, key string, out *T, fn func() (T, error), expiration time.Duration) error {
	err := c.Cache.Get(ctx, key, out)
	if err == nil {
		return nil
	}
	v, err := fn()
	if err != nil {
		return err
	}
	*out = v
	return c.Cache.Set(ctx, key, v, expiration)
}
