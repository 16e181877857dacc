package influx

import (
	"sync"

	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

// Recorder adapts a Manager to storage.Backend. Every event is written;
// telemetry is thinned to one sample in SampleRate.
type Recorder struct {
	m          *Manager
	sampleRate uint64

	mu   sync.Mutex
	race *core.Race
	tick uint64
}

// NewRecorder wraps m. A sampleRate below 1 keeps every sample.
func NewRecorder(m *Manager, sampleRate int) *Recorder {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Recorder{m: m, sampleRate: uint64(sampleRate)}
}

// Init is a no-op; the manager connects on its own.
func (r *Recorder) Init() error { return nil }

// Close flushes and closes the manager.
func (r *Recorder) Close() error { return r.m.Close() }

// StartRace remembers the race for point tags.
func (r *Recorder) StartRace(race *core.Race) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *race
	r.race = &cp
	r.tick = 0
	return nil
}

// EndRace writes the result point and flushes.
func (r *Recorder) EndRace(res *core.RaceResult) error {
	r.mu.Lock()
	race := r.race
	r.race = nil
	r.mu.Unlock()
	if race == nil {
		return storage.ErrNoRace
	}
	if err := r.m.WritePoint(ResultPoint(*res, race.Pilot, race.Course.Name)); err != nil {
		return err
	}
	return r.m.Flush()
}

// RecordEvent writes an event point.
func (r *Recorder) RecordEvent(e *core.RaceEvent) error {
	r.mu.Lock()
	race := r.race
	r.mu.Unlock()
	if race == nil {
		return storage.ErrNoRace
	}
	return r.m.WritePoint(EventPoint(*e, race.Pilot, race.Course.Name))
}

// RecordTelemetry writes one sample in sampleRate.
func (r *Recorder) RecordTelemetry(s *core.TelemetrySample) error {
	r.mu.Lock()
	race := r.race
	n := r.tick
	r.tick++
	r.mu.Unlock()
	if race == nil {
		return storage.ErrNoRace
	}
	if n%r.sampleRate != 0 {
		return nil
	}
	return r.m.WritePoint(TelemetryPoint(*s, race.Pilot))
}
