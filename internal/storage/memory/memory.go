// Package memory buffers a race in memory and exports it as JSON when the
// race ends.
package memory

import (
	"sync"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

// Backend stores race data in memory and exports to JSON
type Backend struct {
	cfg  config.MemoryConfig
	race *core.Race

	events    []core.RaceEvent
	telemetry []core.TelemetrySample

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRace begins recording a new race, dropping anything buffered
// from a race that was never ended.
func (b *Backend) StartRace(r *core.Race) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	race := *r
	b.race = &race
	b.events = nil
	b.telemetry = nil
	return nil
}

// EndRace exports the buffered race and clears it.
func (b *Backend) EndRace(res *core.RaceResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.race == nil {
		return storage.ErrNoRace
	}
	if err := b.exportJSON(res); err != nil {
		return err
	}
	b.race = nil
	b.events = nil
	b.telemetry = nil
	return nil
}

// RecordEvent buffers a race event
func (b *Backend) RecordEvent(e *core.RaceEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.race == nil {
		return storage.ErrNoRace
	}
	b.events = append(b.events, *e)
	return nil
}

// RecordTelemetry buffers a telemetry sample
func (b *Backend) RecordTelemetry(s *core.TelemetrySample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.race == nil {
		return storage.ErrNoRace
	}
	b.telemetry = append(b.telemetry, *s)
	return nil
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// Counts reports how many events and samples are buffered.
func (b *Backend) Counts() (events, telemetry int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events), len(b.telemetry)
}
