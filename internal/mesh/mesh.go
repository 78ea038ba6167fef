// ABOUTME: Store contract shared by the websocket client and the in-memory
// ABOUTME: store: live subscription plus fire-and-forget merge writes.

package mesh

import (
	"context"
	"errors"
)

// Handler receives one delivered entry. fields is nil when a peer announced
// an id whose content has not replicated yet; handlers must tolerate nil and
// redelivery of the same id.
type Handler func(id string, fields map[string]any)

// Store is the mesh surface the rest of the program relies on.
//
// Subscribe starts a live, unbounded enumeration of a collection: entries
// known at subscribe time replay first, then updates stream until ctx is
// done. Delivery is at-least-once and includes this process's own writes.
// A collection is subscribed at most once per Store.
//
// MergeWrite merges fields over whatever the store holds for the entry.
// It never blocks on acknowledgement and reports nothing back; writing the
// same fields again is harmless.
type Store interface {
	Subscribe(ctx context.Context, collection string, fn Handler) error
	MergeWrite(collection, id string, fields map[string]any)
}

var (
	// ErrNoPeers is returned when no bootstrap peer could be dialed.
	ErrNoPeers = errors.New("no mesh peers reachable")

	// ErrAlreadySubscribed is returned for a second Subscribe on the same
	// collection; subscriptions are not restartable within a run.
	ErrAlreadySubscribed = errors.New("collection already subscribed")

	// ErrClosed is returned when the client has been shut down.
	ErrClosed = errors.New("mesh client closed")
)
