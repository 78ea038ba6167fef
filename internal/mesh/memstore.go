// ABOUTME: In-memory Store for tests and loopback seeding; mirrors the wire
// ABOUTME: client's delivery semantics, self-redelivery included.

package mesh

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store. Writes merge exactly like the wire
// client's, and subscribers see a replay of accumulated entry state
// followed by live deltas, their own writes included. Live deliveries
// carry only the written fields, matching put frames on the wire; replay
// carries the merged state.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[string][]*subscription
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[string]map[string]map[string]any),
		subs:        make(map[string][]*subscription),
	}
}

// Subscribe registers fn and replays the collection's current entries.
// Unlike the wire client, several subscriptions per collection are allowed
// so tests can attach extra observers. Replay order is unspecified, and a
// write landing during replay may reach fn twice.
func (s *MemStore) Subscribe(ctx context.Context, collection string, fn Handler) error {
	type entry struct {
		id     string
		fields map[string]any
	}

	s.mu.Lock()
	s.subs[collection] = append(s.subs[collection], &subscription{ctx: ctx, fn: fn})
	replay := make([]entry, 0, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		replay = append(replay, entry{id, copyFields(fields)})
	}
	s.mu.Unlock()

	for _, e := range replay {
		if ctx.Err() != nil {
			return nil
		}
		fn(e.id, e.fields)
	}
	return nil
}

// MergeWrite merges fields over the entry and delivers the written fields
// to subscribers of the collection. The lock is released before handlers
// run, so handlers may call MergeWrite themselves.
func (s *MemStore) MergeWrite(collection, id string, fields map[string]any) {
	s.mu.Lock()
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]map[string]any)
		s.collections[collection] = coll
	}
	entry := coll[id]
	if entry == nil {
		entry = make(map[string]any)
		coll[id] = entry
	}
	for k, v := range fields {
		entry[k] = v
	}
	subs := append([]*subscription(nil), s.subs[collection]...)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.ctx.Err() != nil {
			continue
		}
		sub.fn(id, copyFields(fields))
	}
}

// Announce delivers id with nil fields, the shape a peer produces when it
// knows an id whose content has not replicated yet.
func (s *MemStore) Announce(collection, id string) {
	s.mu.Lock()
	subs := append([]*subscription(nil), s.subs[collection]...)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.ctx.Err() != nil {
			continue
		}
		sub.fn(id, nil)
	}
}

// Lookup returns a copy of an entry's merged fields, or nil when absent.
func (s *MemStore) Lookup(collection, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.collections[collection][id]
	if entry == nil {
		return nil
	}
	return copyFields(entry)
}

// Len reports how many entries a collection holds.
func (s *MemStore) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

func copyFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
