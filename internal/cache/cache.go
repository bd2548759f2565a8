// Package cache is a small read-through cache over Redis or process memory.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/snappy-loop/blogs/internal/metrics"
)

// Store holds raw values with a TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Memory is a process-local Store. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
	return nil
}

// Redis is a Store shared across processes.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Loader reads JSON values through a Store, collapsing concurrent misses for the
// same key into one load. Store failures are logged and treated as misses.
type Loader struct {
	store  Store
	name   string
	prefix string
	ttl    time.Duration
	group  singleflight.Group

	loadTimeout time.Duration
}

// defaultLoadTimeout bounds a shared load, which runs detached from any one caller.
const defaultLoadTimeout = time.Minute

// NewLoader returns a loader whose keys are namespaced by name.
func NewLoader(store Store, name string, ttl time.Duration) *Loader {
	return &Loader{store: store, name: name, prefix: "blogs:" + name + ":", ttl: ttl, loadTimeout: defaultLoadTimeout}
}

// GetOrLoad decodes the cached value for key into dest, or calls load, caches its
// result and decodes that into dest.
func (l *Loader) GetOrLoad(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error {
	k := l.prefix + key
	if raw, ok := l.get(ctx, k); ok {
		if err := json.Unmarshal(raw, dest); err == nil {
			metrics.CacheLookups.WithLabelValues(l.name, "hit").Inc()
			return nil
		}
	}
	metrics.CacheLookups.WithLabelValues(l.name, "miss").Inc()

	// Callers collapsed onto k share one load; a caller giving up does not cancel it.
	ch := l.group.DoChan(k, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout)
		defer cancel()
		if raw, ok := l.get(lctx, k); ok {
			return raw, nil
		}
		data, err := load(lctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s value: %w", l.name, err)
		}
		if err := l.store.Set(lctx, k, raw, l.ttl); err != nil {
			log.Warn().Err(err).Str("cache", l.name).Str("key", key).Msg("Cache write failed")
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

func (l *Loader) get(ctx context.Context, k string) ([]byte, bool) {
	raw, ok, err := l.store.Get(ctx, k)
	if err != nil {
		log.Warn().Err(err).Str("cache", l.name).Msg("Cache read failed")
		return nil, false
	}
	return raw, ok
}
