package database

import (
	"context"
	"testing"
	"time"

	"postavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptItem(t *testing.T, db *DB, itemID, vendorID int64) {
	t.Helper()
	ctx := context.Background()
	a, err := db.GetAssignment(ctx, itemID)
	require.NoError(t, err)
	require.NoError(t, db.AssignVendorWithVersion(ctx, itemID, a.Version, vendorID))
	a, err = db.GetAssignment(ctx, itemID)
	require.NoError(t, err)
	require.NoError(t, db.AcceptAssignmentWithVersion(ctx, itemID, a.Version))
}

func TestMarkSettled(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedVendor(t, db, 1, false)
	seedItem(t, db, 100, 10, time.Now())

	t.Run("RequiresAcceptedAssignment", func(t *testing.T) {
		_, err := db.MarkSettled(ctx, 100)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	acceptItem(t, db, 100, 1)

	t.Run("FirstCallSettles", func(t *testing.T) {
		entry, err := db.MarkSettled(ctx, 100)
		require.NoError(t, err)
		assert.True(t, entry.Settled)
		assert.NotNil(t, entry.SettledAt)
		assert.Equal(t, int64(1), entry.VendorID)
	})

	t.Run("SecondCallReportsAlreadySettled", func(t *testing.T) {
		_, err := db.MarkSettled(ctx, 100)
		assert.ErrorIs(t, err, ErrAlreadySettled)

		// Entry unchanged.
		entry, err := db.GetSettlementEntry(ctx, 100)
		require.NoError(t, err)
		assert.True(t, entry.Settled)
	})

	t.Run("MissingItem", func(t *testing.T) {
		_, err := db.MarkSettled(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetSettlementRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedVendor(t, db, 1, false)
	seedVendor(t, db, 2, false)

	today := time.Now()
	seedItem(t, db, 100, 10, today)
	seedItem(t, db, 101, 10, today)
	seedItem(t, db, 102, 20, today)
	seedItem(t, db, 103, 20, today.AddDate(0, 0, 30)) // outside window
	seedItem(t, db, 104, 30, today)                   // other vendor
	seedItem(t, db, 105, 30, today)                   // assigned but never accepted

	for _, id := range []int64{100, 101, 102, 103} {
		acceptItem(t, db, id, 1)
	}
	acceptItem(t, db, 104, 2)

	a, err := db.GetAssignment(ctx, 105)
	require.NoError(t, err)
	require.NoError(t, db.AssignVendorWithVersion(ctx, 105, a.Version, 1))

	// Supply + verify item 100, supply-only 101.
	_, err = db.SetSupplied(ctx, 100, true)
	require.NoError(t, err)
	_, err = db.MarkVerified(ctx, 100)
	require.NoError(t, err)
	_, err = db.SetSupplied(ctx, 101, true)
	require.NoError(t, err)

	_, err = db.MarkSettled(ctx, 100)
	require.NoError(t, err)

	from := today.AddDate(0, 0, -1)
	to := today.AddDate(0, 0, 1)

	t.Run("IncludeUnverified", func(t *testing.T) {
		rows, err := db.GetSettlementRows(ctx, 1, from, to, true)
		require.NoError(t, err)
		require.Len(t, rows, 3) // 100, 101, 102; 103 out of window, 105 not accepted

		byID := make(map[int64]*models.SettlementRow)
		for _, r := range rows {
			byID[r.Item.ID] = r
		}
		assert.True(t, byID[100].Settled)
		assert.True(t, byID[100].Supplied)
		assert.NotNil(t, byID[100].VerifiedAt)
		assert.False(t, byID[101].Settled)
		assert.False(t, byID[102].Supplied)
	})

	t.Run("VerifiedOnly", func(t *testing.T) {
		rows, err := db.GetSettlementRows(ctx, 1, from, to, false)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(100), rows[0].Item.ID)
	})

	t.Run("OtherVendor", func(t *testing.T) {
		rows, err := db.GetSettlementRows(ctx, 2, from, to, true)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(104), rows[0].Item.ID)
	})
}
