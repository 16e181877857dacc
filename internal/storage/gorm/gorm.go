// Package gormstorage implements the storage.Backend interface on GORM with
// internal queues and a background writer goroutine. The postgres and
// sqlite backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/airrace/racecore/internal/database"
	"github.com/airrace/racecore/internal/logging"
	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/internal/model/convert"
	"github.com/airrace/racecore/internal/queue"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// ErrNoDB is returned by Init when no connection was injected.
var ErrNoDB = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
// Connect is called by Init when DB is nil.
type Dependencies struct {
	DB            *gorm.DB
	Connect       func() (*gorm.DB, error)
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	events    *queue.Queue[model.RaceEvent]
	telemetry *queue.Queue[model.TelemetrySample]

	mu   sync.Mutex
	race *model.Race

	// writeMu serializes every write so a shared-cache SQLite database
	// never sees two writers.
	writeMu sync.Mutex

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps:      deps,
		events:    queue.New[model.RaceEvent](),
		telemetry: queue.New[model.TelemetrySample](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init connects if needed, runs schema migration and starts the DB writer
// goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil && b.deps.Connect != nil {
		db, err := b.deps.Connect()
		if err != nil {
			return err
		}
		b.deps.DB = db
	}
	if b.deps.DB == nil {
		return ErrNoDB
	}
	b.writeMu.Lock()
	err := database.Migrate(b.deps.DB)
	b.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan == nil {
			return
		}
		close(b.stopChan)
		<-b.done
		err = b.Flush()
	})
	return err
}

// StartRace inserts the race row. Rows queued for a previous race that was
// never ended are still written under that race.
func (b *Backend) StartRace(r *core.Race) error {
	row := convert.CoreToRace(*r)

	b.writeMu.Lock()
	err := b.deps.DB.Create(&row).Error
	b.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to insert race: %w", err)
	}

	b.mu.Lock()
	b.race = &row
	b.mu.Unlock()
	return nil
}

// EndRace flushes pending rows and stores the result columns.
func (b *Backend) EndRace(res *core.RaceResult) error {
	b.mu.Lock()
	row := b.race
	b.race = nil
	b.mu.Unlock()
	if row == nil {
		return storage.ErrNoRace
	}

	flushErr := b.Flush()
	convert.ApplyResult(row, *res)

	b.writeMu.Lock()
	err := b.deps.DB.Save(row).Error
	b.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to update race: %w", err)
	}
	return flushErr
}

func (b *Backend) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.race != nil
}

// RecordEvent converts an event to GORM and pushes it to the write queue.
func (b *Backend) RecordEvent(e *core.RaceEvent) error {
	if !b.active() {
		return storage.ErrNoRace
	}
	b.events.Push(convert.CoreToRaceEvent(*e))
	return nil
}

// RecordTelemetry converts a sample to GORM and pushes it to the write queue.
func (b *Backend) RecordTelemetry(s *core.TelemetrySample) error {
	if !b.active() {
		return storage.ErrNoRace
	}
	b.telemetry.Push(convert.CoreToTelemetrySample(*s))
	return nil
}

// Pending reports how many rows wait in the queues.
func (b *Backend) Pending() int {
	return b.events.Len() + b.telemetry.Len()
}

// Flush writes everything queued so far.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.events, "race events"),
		writeQueue(b.deps.DB, b.telemetry, "telemetry samples"),
	)
}

// writeQueue writes all items from a queue to the database in a
// transaction. Failed batches go back on the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("error committing %s: %w", name, err)
	}
	return nil
}

// writerLoop periodically drains the queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)
	log := b.deps.LogManager.Logger()

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				log.Error("DB writer failed", "error", err)
			}
		}
	}
}
