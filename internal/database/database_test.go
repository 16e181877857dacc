package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5433, Username: "u", Password: "p", Database: "races"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=races sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestOpenSqliteMemory_Migrate(t *testing.T) {
	db, err := OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestOpenSqliteMemory_NamesAreIsolated(t *testing.T) {
	a, err := OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)
	b, err := OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	assert.False(t, b.Migrator().HasTable(&model.Race{}))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	race := model.Race{ID: uuid.New(), Pilot: "iceman", StartTime: time.Now()}
	require.NoError(t, db.Create(&race).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := OpenSqlite(path)
	require.NoError(t, err)
	var got model.Race
	require.NoError(t, disk.First(&got, "id = ?", race.ID).Error)
	assert.Equal(t, "iceman", got.Pilot)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	assert.ErrorIs(t, DumpMemoryDBToDisk(nil, ""), ErrNoDumpPath)
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.db"), 0o755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, paths)

	_, err = GetBackupDBPaths(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestManager_SetupAndDump(t *testing.T) {
	db, err := OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)

	m := NewManager(config.DBConfig{}, zerolog.Nop())
	m.DB = db
	m.SqliteFilePath = filepath.Join(t.TempDir(), "manager.db")
	require.NoError(t, m.Setup())
	require.NoError(t, m.DumpMemoryToDisk())

	_, err = os.Stat(m.SqliteFilePath)
	assert.NoError(t, err)
}
