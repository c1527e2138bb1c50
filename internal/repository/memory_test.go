package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDedupStore(t *testing.T) {
	store := NewMemoryDedupStore()
	ctx := context.Background()

	t.Run("FirstMarkWins", func(t *testing.T) {
		ok, err := store.MarkSent(ctx, "assignment_assigned:100", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkSent(ctx, "assignment_assigned:100", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExpiredMarkReusable", func(t *testing.T) {
		ok, err := store.MarkSent(ctx, "item_supplied:200", -time.Second)
		require.NoError(t, err)
		assert.True(t, ok)

		// Already past its TTL, so the next mark wins again.
		ok, err = store.MarkSent(ctx, "item_supplied:200", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ClearSent", func(t *testing.T) {
		ok, err := store.MarkSent(ctx, "item_settled:300", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, store.ClearSent(ctx, "item_settled:300"))

		ok, err = store.MarkSent(ctx, "item_settled:300", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
