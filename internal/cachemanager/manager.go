// Package cachemanager provides a small in-process cache used to keep the
// dedup hit path of content tracking O(1): (source, originalID) lookups are
// served from memory before touching the store.
package cachemanager

import (
	"context"
	"time"
)

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
