package telemetry

import "sync"

// DefaultCapacity is the number of envelopes kept in history.
const DefaultCapacity = 100

// Cache keeps the latest envelope and a bounded FIFO history. It is safe for
// concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	latest   *Envelope
	history  []Envelope
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		history:  make([]Envelope, 0, capacity),
	}
}

// Record stores env as the latest entry and appends it to history, evicting
// the oldest entry once capacity is exceeded.
func (c *Cache) Record(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = &env
	if len(c.history) == c.capacity {
		copy(c.history, c.history[1:])
		c.history[len(c.history)-1] = env
		return
	}
	c.history = append(c.history, env)
}

func (c *Cache) Latest() (Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil {
		return Envelope{}, false
	}
	return *c.latest, true
}

// History returns up to limit of the most recent envelopes, oldest first.
func (c *Cache) History(limit int) []Envelope {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if limit <= 0 {
		return []Envelope{}
	}
	if limit > len(c.history) {
		limit = len(c.history)
	}
	out := make([]Envelope, limit)
	copy(out, c.history[len(c.history)-limit:])
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

func (c *Cache) Capacity() int {
	return c.capacity
}
