package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a key or field does not exist.
	ErrNotFound = errors.New("cache: key not found")
	// ErrWrongType is returned when a key holds a different kind of value.
	ErrWrongType = errors.New("cache: wrong kind of value for key")
)

type Config struct {
	GCInterval time.Duration
}

type kind int

const (
	kindString kind = iota
	kindHash
	kindZSet
)

// item is one key. Only the field matching kind is used.
type item struct {
	kind     kind
	str      string
	hash     map[string]string
	zset     map[string]float64
	expireAt time.Time
}

func (it *item) expired(now time.Time) bool {
	return !it.expireAt.IsZero() && now.After(it.expireAt)
}

// LocalCache is an in-process Cache. Every key, whatever it holds, can carry a TTL.
type LocalCache struct {
	mu       sync.Mutex
	items    map[string]*item
	stopGC   chan struct{}
	stopOnce sync.Once
}

// NewCache creates a LocalCache and starts the background sweep.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		items:  make(map[string]*item),
		stopGC: make(chan struct{}),
	}
	go c.runGC(interval)
	return c, nil
}

// Close stops the background sweep. It is safe to call more than once.
func (c *LocalCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopGC) })
	return nil
}

func (c *LocalCache) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, it := range c.items {
				if it.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// load returns the live item for key. Caller holds c.mu.
func (c *LocalCache) load(key string) (*item, bool) {
	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if it.expired(time.Now()) {
		delete(c.items, key)
		return nil, false
	}
	return it, true
}

// loadKind returns the item for key, creating it when create is set. Caller holds c.mu.
func (c *LocalCache) loadKind(key string, k kind, create bool) (*item, error) {
	it, ok := c.load(key)
	if !ok {
		if !create {
			return nil, ErrNotFound
		}
		it = &item{kind: k}
		switch k {
		case kindHash:
			it.hash = make(map[string]string)
		case kindZSet:
			it.zset = make(map[string]float64)
		}
		c.items[key] = it
		return it, nil
	}
	if it.kind != k {
		return nil, ErrWrongType
	}
	return it, nil
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindString, false)
	if err != nil {
		return "", err
	}
	return it.str, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &item{kind: kindString, str: value, expireAt: expiry(ttl)}
	return nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.load(key); ok {
		return false, nil
	}
	c.items[key] = &item{kind: kindString, str: value, expireAt: expiry(ttl)}
	return true, nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.load(key)
	return ok, nil
}

// Expire resets the TTL of any key; ttl <= 0 makes it persistent.
func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.load(key)
	if !ok {
		return ErrNotFound
	}
	it.expireAt = expiry(ttl)
	return nil
}

// ---- Hash ----

func (c *LocalCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindHash, true)
	if err != nil {
		return err
	}
	it.hash[field] = value
	return nil
}

func (c *LocalCache) HGet(_ context.Context, key, field string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindHash, false)
	if err != nil {
		return "", err
	}
	v, ok := it.hash[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// HGetAll returns an empty map for a missing key, as Redis does.
func (c *LocalCache) HGetAll(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string)
	it, err := c.loadKind(key, kindHash, false)
	if errors.Is(err, ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	for f, v := range it.hash {
		out[f] = v
	}
	return out, nil
}

func (c *LocalCache) HDel(_ context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindHash, false)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, f := range fields {
		delete(it.hash, f)
	}
	if len(it.hash) == 0 {
		delete(c.items, key)
	}
	return nil
}

// ---- ZSet ----

func (c *LocalCache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindZSet, true)
	if err != nil {
		return err
	}
	it.zset[member] = score
	return nil
}

func (c *LocalCache) ZRem(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindZSet, false)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, m := range members {
		delete(it.zset, m)
	}
	if len(it.zset) == 0 {
		delete(c.items, key)
	}
	return nil
}

// ZRangeByScore returns members with min <= score <= max, lowest score first.
// Ties are ordered by member.
func (c *LocalCache) ZRangeByScore(_ context.Context, key string, min, max float64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindZSet, false)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(it.zset))
	for m, s := range it.zset {
		if s >= min && s <= max {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := it.zset[out[i]], it.zset[out[j]]
		if si != sj {
			return si < sj
		}
		return out[i] < out[j]
	})
	return out, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, err := c.loadKind(key, kindZSet, false)
	if err != nil {
		return 0, err
	}
	s, ok := it.zset[member]
	if !ok {
		return 0, ErrNotFound
	}
	return s, nil
}
