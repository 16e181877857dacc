// Package postgres records races into PostgreSQL through the GORM backend.
package postgres

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/database"
	"github.com/airrace/racecore/internal/logging"
	gormstorage "github.com/airrace/racecore/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
// DB may be injected; otherwise Init connects using Config.
type Dependencies struct {
	DB            *gorm.DB
	Config        config.DBConfig
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
}

// Backend is the GORM backend bound to a Postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            deps.DB,
			Connect:       func() (*gorm.DB, error) { return connect(deps) },
			LogManager:    deps.LogManager,
			FlushInterval: deps.FlushInterval,
		}),
	}
}

func connect(deps Dependencies) (*gorm.DB, error) {
	db, err := database.OpenPostgres(deps.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	if deps.LogManager != nil {
		deps.LogManager.Logger().Info("Connected to Postgres", "host", deps.Config.Host, "database", deps.Config.Database)
	}
	return db, nil
}
