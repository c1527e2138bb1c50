package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryDedupStore is the in-process fallback when redis is unavailable.
// Marks do not survive a restart, which only risks a duplicate notification.
type MemoryDedupStore struct {
	marks sync.Map
}

func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{}
}

func (r *MemoryDedupStore) MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	val, loaded := r.marks.LoadOrStore(key, expiresAt)
	if !loaded {
		return true, nil
	}

	if now.After(val.(time.Time)) {
		r.marks.Store(key, expiresAt)
		return true, nil
	}
	return false, nil
}

func (r *MemoryDedupStore) ClearSent(ctx context.Context, key string) error {
	r.marks.Delete(key)
	return nil
}
