package repository

import (
	"context"
	"sync/atomic"
	"time"

	"postavka/internal/domain"

	"github.com/rs/zerolog"
)

type FailoverDedupStore struct {
	primary   domain.DedupStore
	fallback  domain.DedupStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDedupStore(primary, fallback domain.DedupStore, logger *zerolog.Logger) *FailoverDedupStore {
	return &FailoverDedupStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDedupStore) MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !r.isDown.Load() {
		ok, err := r.primary.MarkSent(ctx, key, ttl)
		if err == nil {
			return ok, nil
		}
		r.logger.Error().Err(err).Msg("Primary dedup store failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		ok, err := r.primary.MarkSent(ctx, key, ttl)
		if err == nil {
			r.isDown.Store(false)
			return ok, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.MarkSent(ctx, key, ttl)
}

func (r *FailoverDedupStore) ClearSent(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSent(ctx, key)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary dedup store failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.ClearSent(ctx, key)
}
