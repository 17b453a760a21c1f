// Package cache implements a two-tier cache: an in-process memory layer
// fronting a document-store persistence layer, keyed by
// (software, version, agent).
package cache

import (
	"context"
	"time"
)

// StorageProvider abstracts the persistent tier. Implementations can be
// Redis, a SQL table, or an object store; the cache layer only needs
// key/value plus a sorted index for listing and purging by prefix.
//
// Method names are storage-agnostic (not Redis-specific) so a
// non-Redis backend can implement this without the rest of the
// package noticing.
type StorageProvider interface {
	// Get retrieves the raw document bytes for key. Returns ("", nil) if
	// the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key with the given TTL (0 = no expiry).
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) error
	// AddToIndex adds member to the sorted set at indexKey with the given
	// score (used for time-ordered and prefix-scoped listing).
	AddToIndex(ctx context.Context, indexKey string, score float64, member string) error
	// Members returns every member of the sorted set at indexKey.
	Members(ctx context.Context, indexKey string) ([]string, error)
	// RemoveFromIndex removes members from the sorted set at indexKey.
	RemoveFromIndex(ctx context.Context, indexKey string, members ...string) error
	// Ping reports whether the backend is currently reachable.
	Ping(ctx context.Context) error
}
