package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/database"
	"github.com/airrace/racecore/internal/influx"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/internal/storage/memory"
	pgstorage "github.com/airrace/racecore/internal/storage/postgres"
	sqlitestorage "github.com/airrace/racecore/internal/storage/sqlite"
	wsstorage "github.com/airrace/racecore/internal/storage/websocket"
)

// ErrUnknownStorage is returned for an unsupported storage.type.
var ErrUnknownStorage = errors.New("unknown storage type")

// createStorageBackend builds the recorder selected by storage.type.
func createStorageBackend(rt *runtime, storageCfg config.StorageConfig) (storage.Backend, error) {
	stamp := rt.start.UTC().Format("20060102_150405")

	switch storageCfg.Type {
	case "", "memory":
		rt.logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.Path
		if dumpPath == "" {
			dumpPath = filepath.Join(storageCfg.Memory.OutputDir, fmt.Sprintf("%s_%s.db", appName, stamp))
		}
		if err := os.MkdirAll(filepath.Dir(dumpPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dump directory: %w", err)
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, rt.logManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		rt.logger.Info("SQLite storage backend initialized", "path", dumpPath)
		return backend, nil

	case "postgres":
		dbCfg, err := config.GetDBConfig()
		if err != nil {
			return nil, err
		}
		mgr := database.NewManager(dbCfg, rt.zlog)
		mgr.SqliteFilePath = filepath.Join(storageCfg.Memory.OutputDir, fmt.Sprintf("%s_%s.db", appName, stamp))
		if err := mgr.Connect(); err != nil {
			return nil, err
		}
		if mgr.ShouldSaveLocal {
			if err := os.MkdirAll(storageCfg.Memory.OutputDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create dump directory: %w", err)
			}
		}
		rt.logger.Info("Postgres storage backend initialized", "local", mgr.ShouldSaveLocal)
		return &fallbackBackend{
			Backend: pgstorage.New(pgstorage.Dependencies{DB: mgr.DB, Config: dbCfg, LogManager: rt.logManager}),
			mgr:     mgr,
		}, nil

	case "websocket":
		rt.logger.Info("WebSocket storage backend initialized", "url", storageCfg.WebSocket.URL)
		return wsstorage.New(wsstorage.Config{
			URL:            storageCfg.WebSocket.URL,
			Secret:         storageCfg.WebSocket.Secret,
			ReconnectDelay: storageCfg.WebSocket.ReconnectDelay,
			Logger:         rt.logger,
		}), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, storageCfg.Type)
	}
}

// fallbackBackend is the Postgres backend on a connection that may have fallen
// back to in-memory SQLite; the fallback is dumped to disk on close.
type fallbackBackend struct {
	*pgstorage.Backend
	mgr *database.Manager
}

func (b *fallbackBackend) Close() error {
	err := b.Backend.Close()
	if b.mgr.ShouldSaveLocal {
		err = errors.Join(err, b.mgr.DumpMemoryToDisk())
	}
	return err
}

// GetExportedFilePath reports the SQLite dump when Postgres was unreachable.
func (b *fallbackBackend) GetExportedFilePath() string {
	if b.mgr.ShouldSaveLocal {
		return b.mgr.SqliteFilePath
	}
	return ""
}

// createBackends builds the configured recorder plus the InfluxDB recorder
// when influx.enabled is set, and initializes them. On error the backends
// already initialized are closed.
func createBackends(ctx context.Context, rt *runtime, storageCfg config.StorageConfig) ([]storage.Backend, error) {
	primary, err := createStorageBackend(rt, storageCfg)
	if err != nil {
		return nil, err
	}
	backends := []storage.Backend{primary}

	influxCfg, err := config.GetInfluxConfig()
	if err != nil {
		return nil, err
	}
	if influxCfg.Enabled {
		logsDir := config.GetString("logsDir")
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		backup := filepath.Join(logsDir,
			fmt.Sprintf("%s_influx_%s.lp.gz", appName, rt.start.UTC().Format("20060102_150405")))
		mgr := influx.NewManager(influxCfg, rt.zlog, backup)
		if err := mgr.Connect(ctx); err != nil {
			rt.logger.Error("InfluxDB recorder disabled", "error", err)
		} else {
			backends = append(backends, influx.NewRecorder(mgr, influxCfg.SampleRate))
		}
	}

	for i, b := range backends {
		if err := b.Init(); err != nil {
			closeBackends(rt, backends[:i])
			return nil, fmt.Errorf("initializing %T: %w", b, err)
		}
	}
	return backends, nil
}

func closeBackends(rt *runtime, backends []storage.Backend) {
	for _, b := range backends {
		if err := b.Close(); err != nil {
			rt.logger.Error("Failed to close storage backend", "backend", fmt.Sprintf("%T", b), "error", err)
		}
	}
}

// exportedPaths lists the files written by backends that export one.
func exportedPaths(backends []storage.Backend) []string {
	var out []string
	for _, b := range backends {
		if e, ok := b.(storage.Exportable); ok {
			if p := e.GetExportedFilePath(); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
