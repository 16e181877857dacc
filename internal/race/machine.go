package race

import (
	"errors"
	"fmt"
	"math"
)

// Default timer lengths in seconds.
const (
	DefaultCountdown        = 10.0
	DefaultRespawnCountdown = 3.0
)

// ErrInvalidTiming is returned for negative or non-finite countdown durations.
var ErrInvalidTiming = errors.New("countdown durations must be finite and not negative")

// Timing configures the two countdowns of a race.
type Timing struct {
	Countdown        float64 `json:"countdown" mapstructure:"countdown"`
	RespawnCountdown float64 `json:"respawnCountdown" mapstructure:"respawnCountdown"`
}

// DefaultTiming returns the stock race timings.
func DefaultTiming() Timing {
	return Timing{
		Countdown:        DefaultCountdown,
		RespawnCountdown: DefaultRespawnCountdown,
	}
}

// Validate checks that both durations are usable.
func (t Timing) Validate() error {
	if !finiteNonNegative(t.Countdown) || !finiteNonNegative(t.RespawnCountdown) {
		return fmt.Errorf("%w: countdown=%v respawn=%v", ErrInvalidTiming, t.Countdown, t.RespawnCountdown)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// clampDelta maps negative, NaN and infinite frame deltas to zero.
func clampDelta(dt float64) float64 {
	if !finiteNonNegative(dt) {
		return 0
	}
	return dt
}

// Transition records a change of state kind. From == To means nothing
// changed.
type Transition struct {
	From Kind
	To   Kind
}

// Changed reports whether the state kind moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Machine holds the race state and applies the transition table.
// It is not safe for concurrent use; the owning controller serializes access.
type Machine struct {
	timing Timing
	state  State
}

// NewMachine starts in Waiting with the full pre-race countdown.
func NewMachine(timing Timing) (*Machine, error) {
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	return &Machine{
		timing: timing,
		state:  Waiting{Countdown: timing.Countdown},
	}, nil
}

// State returns the current state value.
func (m *Machine) State() State {
	return m.state
}

// Timing returns the configured countdowns.
func (m *Machine) Timing() Timing {
	return m.timing
}

// AcceptInput is true only while Playing. In every other state the vehicle
// must receive zero control axes.
func (m *Machine) AcceptInput() bool {
	_, ok := m.state.(Playing)
	return ok
}

// Tick advances the timers by dt seconds. Negative or non-finite dt is
// treated as zero.
func (m *Machine) Tick(dt float64) Transition {
	dt = clampDelta(dt)
	from := m.state.Kind()

	switch st := m.state.(type) {
	case Waiting:
		if st.Countdown-dt <= 0 {
			m.state = Playing{Elapsed: 0}
		} else {
			m.state = Waiting{Countdown: st.Countdown - dt}
		}

	case Playing:
		m.state = Playing{Elapsed: st.Elapsed + dt}

	case Respawning:
		if st.Countdown-dt <= 0 {
			m.state = Playing{Elapsed: st.Elapsed + dt}
		} else {
			m.state = Respawning{Elapsed: st.Elapsed + dt, Countdown: st.Countdown - dt}
		}

	case Finished:
		// absorbing
	}

	return Transition{From: from, To: m.state.Kind()}
}

// Collision moves a playing race into Respawning. It reports whether the
// state changed; collisions in any other state are ignored.
func (m *Machine) Collision() bool {
	st, ok := m.state.(Playing)
	if !ok {
		return false
	}
	m.state = Respawning{Elapsed: st.Elapsed, Countdown: m.timing.RespawnCountdown}
	return true
}

// CheckpointReached applies a sequencer result. Only a playing race reacts:
// RaceFinished ends the race, Advanced leaves the timers alone. It reports
// whether the race finished.
func (m *Machine) CheckpointReached(result SequencerResult) bool {
	st, ok := m.state.(Playing)
	if !ok {
		return false
	}
	if result == RaceFinished {
		m.state = Finished{Elapsed: st.Elapsed}
		return true
	}
	return false
}
