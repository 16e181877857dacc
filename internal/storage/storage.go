// Package storage defines the recording backends a race session writes to.
package storage

import (
	"errors"

	"github.com/airrace/racecore/pkg/core"
)

// ErrNoRace is returned when a record arrives before StartRace or after EndRace.
var ErrNoRace = errors.New("no race in progress")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Race management
	StartRace(r *core.Race) error
	EndRace(res *core.RaceResult) error

	// Recording
	RecordEvent(e *core.RaceEvent) error
	RecordTelemetry(s *core.TelemetrySample) error
}

// Exportable is an optional interface for backends that write a file per
// race, so the caller can report where it went.
type Exportable interface {
	GetExportedFilePath() string
}
