package consumer

import "sync"

// AckCache maps a question id to the content hash of the last successfully
// acknowledged normalized answer, suppressing redundant re-sends when the
// processing layer captures the same answer more than once.
type AckCache struct {
	mu sync.Mutex
	m  map[string]string
}

// NewAckCache creates an empty cache.
func NewAckCache() *AckCache {
	return &AckCache{m: make(map[string]string)}
}

// Duplicate reports whether hash matches the last acknowledged hash for id.
func (c *AckCache) Duplicate(id, hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[id] == hash
}

// Record stores the hash after a successful acknowledgment.
func (c *AckCache) Record(id, hash string) {
	c.mu.Lock()
	c.m[id] = hash
	c.mu.Unlock()
}
