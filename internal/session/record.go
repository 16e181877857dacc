package session

import (
	"errors"
	"fmt"

	"github.com/airrace/racecore/internal/dispatcher"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

// Record is one write to the backends. Exactly one field is set.
type Record struct {
	Sample *core.TelemetrySample
	Event  *core.RaceEvent
	Result *core.RaceResult
}

// record hands rec to the :TELEMETRY: worker when registered, otherwise
// writes it directly. Nothing but the final result is written after End.
func (s *Session) record(rec Record) {
	if len(s.deps.Backends) == 0 {
		return
	}
	if s.ended && rec.Result == nil {
		return
	}
	if s.recorder == nil {
		if err := s.write(rec); err != nil {
			s.logger.Warn("Recording failed", "error", err)
		}
		return
	}
	if _, err := s.recorder.Dispatch(dispatcher.Event{Command: CmdTelemetry, Payload: rec}); err != nil {
		s.logger.Warn("Recording not queued", "error", err)
	}
}

// write sends rec to every backend. A backend error does not stop the others.
func (s *Session) write(rec Record) error {
	var errs []error
	for _, b := range s.deps.Backends {
		var err error
		switch {
		case rec.Sample != nil:
			err = b.RecordTelemetry(rec.Sample)
		case rec.Event != nil:
			err = b.RecordEvent(rec.Event)
		case rec.Result != nil:
			err = b.EndRace(rec.Result)
		}
		if err != nil && !errors.Is(err, storage.ErrNoRace) {
			errs = append(errs, fmt.Errorf("%T: %w", b, err))
		}
	}
	return errors.Join(errs...)
}
