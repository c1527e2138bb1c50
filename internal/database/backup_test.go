package database

import (
	"os"
	"path/filepath"
	"testing"

	"postavka/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService_PerformBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:       true,
		StoragePath:   backupDir,
		RetentionDays: 7,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "ledger_")

	// Snapshot opens as a valid sqlite database.
	snap, err := NewDB(filepath.Join(backupDir, files[0].Name()), &logger)
	require.NoError(t, err)
	assert.NoError(t, snap.Ping())
	snap.Close()
}

func TestBackupService_CleanupOldBackups(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	svc := NewBackupService("", config.BackupConfig{
		Enabled:       true,
		StoragePath:   dir,
		RetentionDays: 0, // retention disabled, nothing deleted
	}, &logger)

	path := filepath.Join(dir, "ledger_old.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	svc.CleanupOldBackups()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
