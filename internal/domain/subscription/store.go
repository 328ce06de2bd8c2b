package subscription

import (
	"context"
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/cache"
)

// RecordStore holds the immutable-until-refetched subscription
// snapshot per user. Mutating actions classify against this snapshot;
// it is replaced only after the billing backend confirms a mutation
// and the record is refetched, never patched optimistically.
type RecordStore interface {
	// Get returns the stored snapshot and whether one is present.
	// A present nil snapshot means the backend reported no
	// subscription; absence means the record has not been loaded yet.
	Get(ctx context.Context, userID string) (*Subscription, bool)

	// Set replaces the stored snapshot
	Set(ctx context.Context, userID string, sub *Subscription)

	// Clear drops the stored snapshot, forcing the next read to
	// refetch from the billing backend
	Clear(ctx context.Context, userID string)
}

// recordEntry wraps the snapshot so a stored "no subscription" can be
// told apart from a cache miss
type recordEntry struct {
	sub *Subscription
}

type cachedRecordStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRecordStore creates a RecordStore backed by the shared
// in-memory cache
func NewCachedRecordStore(c cache.Cache, ttl time.Duration) RecordStore {
	return &cachedRecordStore{cache: c, ttl: ttl}
}

func (s *cachedRecordStore) Get(ctx context.Context, userID string) (*Subscription, bool) {
	key := cache.GenerateKey(cache.PrefixSubscription, userID)
	value, found := s.cache.Get(ctx, key)
	if !found {
		return nil, false
	}
	entry, ok := value.(recordEntry)
	if !ok {
		return nil, false
	}
	return entry.sub, true
}

func (s *cachedRecordStore) Set(ctx context.Context, userID string, sub *Subscription) {
	key := cache.GenerateKey(cache.PrefixSubscription, userID)
	s.cache.Set(ctx, key, recordEntry{sub: sub}, s.ttl)
}

func (s *cachedRecordStore) Clear(ctx context.Context, userID string) {
	key := cache.GenerateKey(cache.PrefixSubscription, userID)
	s.cache.Delete(ctx, key)
}
