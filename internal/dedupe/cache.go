// ABOUTME: Thread-safe TTL cache over seen wire-frame ids.
// ABOUTME: Peers gossip frames to each other, so the same id arrives more than once.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores the arrival time and eviction-list element for a frame id.
type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache tracks frame ids seen within a TTL window, capped at a maximum
// size. Insertion order is kept in a doubly-linked list so eviction of the
// oldest id is O(1). All methods are safe for concurrent use by the peer
// reader goroutines.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List // frame ids, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a frame cache with the given TTL and maximum size. A
// background goroutine sweeps expired ids twice per TTL.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Duplicate atomically checks whether id was already seen within the TTL
// and marks it seen. It returns true for the duplicate arrivals: the first
// caller gets false and wins the right to process the frame.
func (c *Cache) Duplicate(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.seen[id]; ok && time.Since(e.seenAt) < c.ttl {
		return true
	}
	c.markLocked(id)
	return false
}

// Len returns the number of ids currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// markLocked records id as seen. Must be called with mu held.
func (c *Cache) markLocked(id string) {
	now := time.Now()

	if e, exists := c.seen[id]; exists {
		// Expired but still resident: refresh in place.
		e.seenAt = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(id)
	c.seen[id] = &entry{seenAt: now, element: elem}
}

// evictOldest removes the oldest id. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, id)
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, e := range c.seen {
		if now.Sub(e.seenAt) > c.ttl {
			c.order.Remove(e.element)
			delete(c.seen, id)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
