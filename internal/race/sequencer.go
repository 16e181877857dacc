package race

import (
	"errors"
	"fmt"

	"github.com/airrace/racecore/pkg/core"
)

// ErrTooFewCheckpoints is returned when a course has no real target.
var ErrTooFewCheckpoints = errors.New("course needs at least 2 checkpoints")

// SequencerResult is the outcome of advancing past the current target.
type SequencerResult int

const (
	Advanced SequencerResult = iota
	RaceFinished
)

func (r SequencerResult) String() string {
	switch r {
	case Advanced:
		return "advanced"
	case RaceFinished:
		return "finished"
	default:
		return fmt.Sprintf("SequencerResult(%d)", int(r))
	}
}

// CheckpointStatus drives indicator colouring in the presentation layer.
type CheckpointStatus int

const (
	StatusPending CheckpointStatus = iota
	StatusTarget
	StatusCleared
)

func (s CheckpointStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusTarget:
		return "target"
	case StatusCleared:
		return "cleared"
	default:
		return fmt.Sprintf("CheckpointStatus(%d)", int(s))
	}
}

// Sequencer walks the ordered checkpoint list. Checkpoint 0 is the start
// marker and is never a target; prev is always target-1.
type Sequencer struct {
	checkpoints []core.Position3D
	prev        int
	target      int
}

// NewSequencer copies the checkpoint list and targets checkpoint 1.
func NewSequencer(checkpoints []core.Position3D) (*Sequencer, error) {
	if len(checkpoints) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewCheckpoints, len(checkpoints))
	}
	cps := make([]core.Position3D, len(checkpoints))
	copy(cps, checkpoints)
	return &Sequencer{
		checkpoints: cps,
		prev:        0,
		target:      1,
	}, nil
}

// Advance moves the target forward. The caller must only call it once the
// vehicle has been confirmed inside the current target. On the last
// checkpoint it reports RaceFinished and leaves the indices untouched, so
// repeated calls keep reporting RaceFinished.
func (s *Sequencer) Advance() SequencerResult {
	if s.target == len(s.checkpoints)-1 {
		return RaceFinished
	}
	s.prev++
	s.target++
	return Advanced
}

// CurrentSegment returns the last cleared checkpoint and the current target.
func (s *Sequencer) CurrentSegment() (core.Position3D, core.Position3D) {
	return s.checkpoints[s.prev], s.checkpoints[s.target]
}

// Progress returns how many checkpoints are cleared out of the total.
func (s *Sequencer) Progress() (cleared, total int) {
	return s.prev, len(s.checkpoints) - 1
}

// RespawnAnchor is where the vehicle goes after a crash: on the last cleared
// checkpoint, pointing at the current target.
func (s *Sequencer) RespawnAnchor() core.VehiclePose {
	from, to := s.CurrentSegment()
	return core.VehiclePose{
		Position: from,
		Forward:  to.Sub(from).Normalize(),
	}
}

// PrevIndex is the index of the last cleared checkpoint.
func (s *Sequencer) PrevIndex() int { return s.prev }

// TargetIndex is the index of the checkpoint being flown to.
func (s *Sequencer) TargetIndex() int { return s.target }

// Len is the number of checkpoints including the start marker.
func (s *Sequencer) Len() int { return len(s.checkpoints) }

// Checkpoints returns a copy of the course.
func (s *Sequencer) Checkpoints() []core.Position3D {
	cps := make([]core.Position3D, len(s.checkpoints))
	copy(cps, s.checkpoints)
	return cps
}

// Status classifies checkpoint i relative to the current target.
func (s *Sequencer) Status(i int) CheckpointStatus {
	switch {
	case i <= s.prev:
		return StatusCleared
	case i == s.target:
		return StatusTarget
	default:
		return StatusPending
	}
}
