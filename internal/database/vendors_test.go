package database

import (
	"context"
	"testing"

	"postavka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateVendor(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	vendor := &models.Vendor{ID: 1, Name: "Light & Sound LLC", Contact: "ls@example.com"}
	require.NoError(t, db.CreateOrUpdateVendor(ctx, vendor))

	got, err := db.GetVendor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Light & Sound LLC", got.Name)
	assert.False(t, got.IsDisabled)

	// Upsert with the same id updates fields.
	vendor.Name = "Light & Sound Ltd"
	vendor.IsDisabled = true
	require.NoError(t, db.CreateOrUpdateVendor(ctx, vendor))

	got, err = db.GetVendor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Light & Sound Ltd", got.Name)
	assert.True(t, got.IsDisabled)
}

func TestSetVendorDisabled(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedVendor(t, db, 1, false)

	require.NoError(t, db.SetVendorDisabled(ctx, 1, true))
	got, err := db.GetVendor(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.IsDisabled)

	err = db.SetVendorDisabled(ctx, 99, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllVendors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedVendor(t, db, 3, false)
	seedVendor(t, db, 1, false)
	seedVendor(t, db, 2, true)

	vendors, err := db.GetAllVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 3)
	// Deterministic order by id.
	assert.Equal(t, int64(1), vendors[0].ID)
	assert.Equal(t, int64(2), vendors[1].ID)
	assert.Equal(t, int64(3), vendors[2].ID)
}

func TestGetVendor_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetVendor(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
