// ABOUTME: Tests for the in-memory store: replay, live deltas, merge
// ABOUTME: semantics, nil announces and handler reentrancy.

package mesh

import (
	"context"
	"testing"
)

func TestMemStoreReplayOnSubscribe(t *testing.T) {
	s := NewMemStore()
	s.MergeWrite("papers", "p1", map[string]any{"title": "one"})
	s.MergeWrite("papers", "p2", map[string]any{"title": "two"})

	got := make(map[string]string)
	err := s.Subscribe(context.Background(), "papers", func(id string, fields map[string]any) {
		got[id], _ = fields["title"].(string)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if len(got) != 2 || got["p1"] != "one" || got["p2"] != "two" {
		t.Errorf("replay = %v, want both entries", got)
	}
}

func TestMemStoreLiveDeliveryCarriesDelta(t *testing.T) {
	s := NewMemStore()
	s.MergeWrite("papers", "p1", map[string]any{"title": "one", "status": "MEMPOOL"})

	var deliveries []map[string]any
	err := s.Subscribe(context.Background(), "papers", func(id string, fields map[string]any) {
		deliveries = append(deliveries, fields)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	deliveries = nil // drop the replay

	s.MergeWrite("papers", "p1", map[string]any{"status": "PURGED"})

	if len(deliveries) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(deliveries))
	}
	if deliveries[0]["status"] != "PURGED" {
		t.Errorf("delta status = %v, want PURGED", deliveries[0]["status"])
	}
	if _, ok := deliveries[0]["title"]; ok {
		t.Error("live delivery must carry only the written fields, not merged state")
	}
}

func TestMemStoreMerge(t *testing.T) {
	s := NewMemStore()
	s.MergeWrite("papers", "p1", map[string]any{"title": "one", "status": "MEMPOOL"})
	s.MergeWrite("papers", "p1", map[string]any{"status": "PURGED"})

	entry := s.Lookup("papers", "p1")
	if entry["title"] != "one" {
		t.Errorf("title = %v; merge must not clobber absent fields", entry["title"])
	}
	if entry["status"] != "PURGED" {
		t.Errorf("status = %v, want PURGED", entry["status"])
	}
	if s.Len("papers") != 1 {
		t.Errorf("Len = %d, want 1", s.Len("papers"))
	}
}

func TestMemStoreAnnounceDeliversNil(t *testing.T) {
	s := NewMemStore()

	var gotID string
	gotFields := map[string]any{"sentinel": true}
	err := s.Subscribe(context.Background(), "papers", func(id string, fields map[string]any) {
		gotID = id
		gotFields = fields
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s.Announce("papers", "ghost")

	if gotID != "ghost" {
		t.Fatalf("id = %q, want ghost", gotID)
	}
	if gotFields != nil {
		t.Errorf("fields = %v, want nil", gotFields)
	}
}

func TestMemStoreHandlerMayWriteBack(t *testing.T) {
	s := NewMemStore()

	var mempoolWrites []string
	if err := s.Subscribe(context.Background(), "mempool", func(id string, fields map[string]any) {
		mempoolWrites = append(mempoolWrites, id)
	}); err != nil {
		t.Fatalf("Subscribe mempool: %v", err)
	}

	// A papers handler tombstoning into mempool must not deadlock.
	if err := s.Subscribe(context.Background(), "papers", func(id string, fields map[string]any) {
		s.MergeWrite("mempool", id, map[string]any{"status": "REJECTED"})
	}); err != nil {
		t.Fatalf("Subscribe papers: %v", err)
	}

	s.MergeWrite("papers", "p1", map[string]any{"title": "one"})

	if len(mempoolWrites) != 1 || mempoolWrites[0] != "p1" {
		t.Errorf("mempool writes = %v, want [p1]", mempoolWrites)
	}
	if s.Lookup("mempool", "p1")["status"] != "REJECTED" {
		t.Error("write-back did not land in mempool collection")
	}
}

func TestMemStoreLookupReturnsCopy(t *testing.T) {
	s := NewMemStore()
	s.MergeWrite("papers", "p1", map[string]any{"title": "one"})

	s.Lookup("papers", "p1")["title"] = "mutated"

	if got := s.Lookup("papers", "p1")["title"]; got != "one" {
		t.Errorf("title = %v; Lookup must hand out copies", got)
	}
}

func TestMemStoreCancelledSubscriberStopsReceiving(t *testing.T) {
	s := NewMemStore()

	ctx, cancel := context.WithCancel(context.Background())
	var count int
	if err := s.Subscribe(ctx, "papers", func(string, map[string]any) {
		count++
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s.MergeWrite("papers", "p1", map[string]any{"title": "one"})
	cancel()
	s.MergeWrite("papers", "p2", map[string]any{"title": "two"})

	if count != 1 {
		t.Errorf("deliveries = %d, want 1 (none after cancel)", count)
	}
}
