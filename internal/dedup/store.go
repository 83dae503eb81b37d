// Package dedup guarantees at-most-once forwarding. The router claims a
// transaction ID before dispatching; a message matched by both routing paths,
// or delivered twice by the transport, only wins the claim once.
package dedup

import "context"

// Store is the minimal contract the router needs. Implementations must make
// Claim atomic with respect to concurrent callers.
type Store interface {
	// Claim marks key as handled and reports whether this call was the first
	// to do so within the store's TTL window.
	Claim(ctx context.Context, key string) (bool, error)
	// Ping verifies the store is reachable, for health probes.
	Ping(ctx context.Context) error
	Close() error
}
