package store

import "context"

// Store is the capability surface of the shared real-time document store.
// Paths are "/"-separated and relative to the store root. Values follow the
// JSON data model: map[string]interface{} objects, []interface{} arrays,
// string, bool, and numeric leaves.
type Store interface {
	// Get performs a point-in-time read of the subtree at path.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set replaces the subtree at path with value. A nil value deletes it.
	Set(ctx context.Context, path string, value interface{}) error
	// Update applies a multi-path update atomically: either every entry in
	// values lands or none does. Keys are paths relative to path.
	Update(ctx context.Context, path string, values map[string]interface{}) error
	// Delete removes the subtree at path.
	Delete(ctx context.Context, path string) error
	// Subscribe registers a change listener on the subtree at path. The
	// handler receives the full subtree snapshot after every committed
	// write, in commit order. onError receives terminal listener failures.
	Subscribe(ctx context.Context, path string, onChange func(Snapshot), onError func(error)) (Subscription, error)
	// RegisterOnDisconnect arranges for the subtree at path to be removed
	// when this client's connection to the store drops.
	RegisterOnDisconnect(ctx context.Context, path string) error
	// UnregisterOnDisconnect withdraws a pending on-disconnect removal for
	// path. Unknown paths are a no-op.
	UnregisterOnDisconnect(ctx context.Context, path string) error
	// Connectivity returns a channel of connected/disconnected transitions
	// and a cancel func that releases the watcher.
	Connectivity(ctx context.Context) (<-chan bool, func(), error)
}

// Subscription is a handle to an active change listener.
type Subscription interface {
	// Unsubscribe tears down the listener. Safe to call more than once.
	Unsubscribe()
}
