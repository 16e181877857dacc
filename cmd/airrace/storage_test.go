package main

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/logging"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/internal/storage/memory"
	sqlitestorage "github.com/airrace/racecore/internal/storage/sqlite"
	wsstorage "github.com/airrace/racecore/internal/storage/websocket"
	"github.com/airrace/racecore/pkg/core"
)

func testRuntime() *runtime {
	return &runtime{
		start:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		logManager: logging.NewSlogManager(),
		logger:     slog.Default(),
		zlog:       zerolog.Nop(),
	}
}

func TestCreateStorageBackend_Types(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		checkFn func(t *testing.T, b storage.Backend)
	}{
		{"default is memory", config.StorageConfig{}, func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &memory.Backend{}, b)
		}},
		{"memory", config.StorageConfig{Type: "memory"}, func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &memory.Backend{}, b)
		}},
		{"sqlite", config.StorageConfig{Type: "sqlite", Memory: config.MemoryConfig{OutputDir: dir}}, func(t *testing.T, b storage.Backend) {
			require.IsType(t, &sqlitestorage.Backend{}, b)
			assert.Equal(t, filepath.Join(dir, "airrace_20260301_120000.db"), b.(storage.Exportable).GetExportedFilePath())
		}},
		{"sqlite with path", config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "sub", "races.db")}}, func(t *testing.T, b storage.Backend) {
			assert.Equal(t, filepath.Join(dir, "sub", "races.db"), b.(storage.Exportable).GetExportedFilePath())
		}},
		{"websocket", config.StorageConfig{Type: "websocket", WebSocket: config.WebSocketConfig{URL: "ws://localhost:1/ws"}}, func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &wsstorage.Backend{}, b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := createStorageBackend(testRuntime(), tt.cfg)
			require.NoError(t, err)
			tt.checkFn(t, b)
		})
	}
}

func TestCreateStorageBackend_Unknown(t *testing.T) {
	_, err := createStorageBackend(testRuntime(), config.StorageConfig{Type: "tape"})
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestCreateStorageBackend_PostgresFallsBackToSQLite(t *testing.T) {
	t.Cleanup(viper.Reset)
	config.SetDefaults()
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", 1)

	dir := filepath.Join(t.TempDir(), "out")
	b, err := createStorageBackend(testRuntime(), config.StorageConfig{
		Type:   "postgres",
		Memory: config.MemoryConfig{OutputDir: dir},
	})
	require.NoError(t, err)

	fb, ok := b.(*fallbackBackend)
	require.True(t, ok)
	assert.True(t, fb.mgr.ShouldSaveLocal)

	require.NoError(t, b.Init())
	require.NoError(t, b.StartRace(&core.Race{ID: "r1", Pilot: "bot", Course: core.Course{Name: "c"}}))
	require.NoError(t, b.RecordEvent(&core.RaceEvent{RaceID: "r1", Type: core.EventCheckpointPassed, Index: 1}))
	require.NoError(t, b.EndRace(&core.RaceResult{RaceID: "r1", Finished: true}))
	require.NoError(t, b.Close())

	want := filepath.Join(dir, "airrace_20260301_120000.db")
	assert.Equal(t, []string{want}, exportedPaths([]storage.Backend{b}))
	assert.FileExists(t, want)
}

func TestCreateBackends_InitAll(t *testing.T) {
	t.Cleanup(viper.Reset)
	config.SetDefaults()

	backends, err := createBackends(t.Context(), testRuntime(), config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	require.Len(t, backends, 1)
	closeBackends(testRuntime(), backends)
}

func TestExportedPaths_SkipsEmpty(t *testing.T) {
	m := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	assert.Empty(t, exportedPaths([]storage.Backend{m}))
}
