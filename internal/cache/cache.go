// Package cache memoizes detection results.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bluegrass-news/kygeo"
	gocache "github.com/patrickmn/go-cache"
)

// Detector is the part of *kygeo.Gazetteer the cache wraps.
type Detector interface {
	Detect(headline, body string) kygeo.Result
}

// Key returns the cache key for one article.
func Key(headline, body string) string {
	h := sha256.New()
	h.Write([]byte(headline))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return "kygeo:v1:" + hex.EncodeToString(h.Sum(nil))
}

// DetectCache returns memoized results for repeated articles. Feeds and
// inbox directories re-deliver the same items constantly.
type DetectCache struct {
	detector Detector
	cache    *gocache.Cache
	ttl      time.Duration
}

// New wraps d with an in-memory cache.
func New(d Detector, ttl, cleanupInterval time.Duration) *DetectCache {
	return &DetectCache{
		detector: d,
		cache:    gocache.New(ttl, cleanupInterval),
		ttl:      ttl,
	}
}

// Detect returns the cached result for the article or computes and stores
// it. Results are copied so callers cannot modify cached entries.
func (c *DetectCache) Detect(headline, body string) kygeo.Result {
	key := Key(headline, body)
	if v, found := c.cache.Get(key); found {
		return clone(v.(kygeo.Result))
	}
	res := c.detector.Detect(headline, body)
	c.cache.Set(key, clone(res), c.ttl)
	return res
}

// Len returns the number of cached results, including expired ones not yet
// cleaned up.
func (c *DetectCache) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all cached results.
func (c *DetectCache) Clear() {
	c.cache.Flush()
}

func clone(r kygeo.Result) kygeo.Result {
	r.Counties = append([]string{}, r.Counties...)
	return r
}
