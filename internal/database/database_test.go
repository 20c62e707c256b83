package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   uint `gorm:"primarykey"`
	Name string
}

func TestOpenSQLite_MemoryDatabasesAreIsolated(t *testing.T) {
	a, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(a) })
	b, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(b) })

	require.NoError(t, a.AutoMigrate(&row{}))
	require.NoError(t, a.Create(&row{Name: "x"}).Error)

	assert.False(t, b.Migrator().HasTable(&row{}))
}

func TestMemoryDSN_Unique(t *testing.T) {
	assert.NotEqual(t, MemoryDSN(), MemoryDSN())
}

func TestDumpToDisk(t *testing.T) {
	db, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "kept"}).Error)

	path := filepath.Join(t.TempDir(), "ride.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	_, err = Timed(func() error { return DumpToDisk(db, path) })
	require.NoError(t, err)

	onDisk, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(onDisk) })

	var got []row
	require.NoError(t, onDisk.Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Name)
}

func TestDumpToDisk_RejectsBadPath(t *testing.T) {
	db, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.Error(t, DumpToDisk(db, ""))
	assert.Error(t, DumpToDisk(db, "/tmp/it's.db"))
}
