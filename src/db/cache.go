package db

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a size-bounded TTL cache of byte values. Cost is the value length.
type Cache struct {
	c *ristretto.Cache
}

func NewCache(maxBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100000, // number of keys to track frequency of
		MaxCost:     maxBytes,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Set stores value and waits for the write to become visible, so a Get
// issued right after observes it. It reports false if the cache dropped or
// refused the item; SetWithTTL alone does not see admission rejections.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) bool {
	if !c.c.SetWithTTL(key, value, int64(len(value)), ttl) {
		return false
	}
	c.c.Wait()
	_, ok := c.c.Get(key)
	return ok
}

func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (c *Cache) Del(key string) {
	c.c.Del(key)
}

func (c *Cache) Clear() {
	c.c.Clear()
}

func (c *Cache) Close() {
	c.c.Close()
}
