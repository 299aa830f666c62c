package report

import (
	"encoding/json"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joeblew999/plat-claimmap/internal/project"
)

// CacheKey identifies one rendered report. Reports with equal keys are
// byte-for-byte interchangeable.
type CacheKey struct {
	Project project.Project `json:"project"`
	Style   string          `json:"style"`
	Lat     float64         `json:"lat"`
	Lng     float64         `json:"lng"`
	Zoom    float64         `json:"zoom"`
	Day     string          `json:"day"`
}

// Sum hashes the canonical JSON encoding of the key.
func (k CacheKey) Sum() (uint64, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Cache holds recently generated reports for a limited time.
type Cache struct {
	lru *expirable.LRU[uint64, []byte]
}

// NewCache returns a cache of at most size entries, each kept for ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 32
	}
	return &Cache{lru: expirable.NewLRU[uint64, []byte](size, nil, ttl)}
}

// Get returns the report stored under k.
func (c *Cache) Get(k CacheKey) ([]byte, bool) {
	sum, err := k.Sum()
	if err != nil {
		return nil, false
	}
	return c.lru.Get(sum)
}

// Put stores a report under k.
func (c *Cache) Put(k CacheKey, pdf []byte) {
	sum, err := k.Sum()
	if err != nil {
		return
	}
	c.lru.Add(sum, pdf)
}

// Len reports the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every entry.
func (c *Cache) Purge() { c.lru.Purge() }
