package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/dispatcher"
	"github.com/airrace/racecore/internal/session"
	"github.com/airrace/racecore/internal/trigger"
	"github.com/airrace/racecore/pkg/core"
)

// ErrInvalidTickRate is returned for a tick rate that is not positive.
var ErrInvalidTickRate = errors.New("tick rate must be positive")

// Dependencies wires a runner. The session must have been built with Vehicle
// as its race.Vehicle and registered on Dispatcher.
type Dependencies struct {
	Session    *session.Session
	Dispatcher *dispatcher.Dispatcher
	Vehicle    *Vehicle
	Pilot      *Pilot
	Detector   *trigger.Detector
	Logger     *slog.Logger
	// Realtime paces ticks with the wall clock instead of running flat out.
	Realtime bool
}

// Summary is the outcome of a run.
type Summary struct {
	Result  core.RaceResult
	Ticks   uint64
	SimTime time.Duration
}

// Runner closes the loop between the autopilot, the session and the vehicle.
type Runner struct {
	deps     Dependencies
	cfg      config.SimConfig
	logger   *slog.Logger
	dt       float64
	crashed  bool
	captured bool
}

// NewRunner checks the wiring.
func NewRunner(deps Dependencies, cfg config.SimConfig) (*Runner, error) {
	if !(cfg.TickRate > 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidTickRate, cfg.TickRate)
	}
	if deps.Session == nil || deps.Dispatcher == nil || deps.Vehicle == nil || deps.Pilot == nil || deps.Detector == nil {
		return nil, errors.New("sim runner: session, dispatcher, vehicle, pilot and detector are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{deps: deps, cfg: cfg, logger: logger, dt: 1 / cfg.TickRate}, nil
}

// Run starts the session and flies until the race finishes, MaxDuration of
// simulated time passes or ctx is cancelled. An unfinished race is ended as
// abandoned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	s := r.deps.Session
	if err := s.Start(); err != nil {
		r.logger.Warn("Race started with backend errors", "error", err)
	}

	var ticker *time.Ticker
	if r.deps.Realtime {
		ticker = time.NewTicker(time.Duration(r.dt * float64(time.Second)))
		defer ticker.Stop()
	}

	var sum Summary
	placements := r.deps.Vehicle.Placements()
	for !s.Ended() {
		if r.cfg.MaxDuration > 0 && sum.SimTime >= r.cfg.MaxDuration {
			r.logger.Warn("Simulation time limit reached", "limit", r.cfg.MaxDuration)
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if err := ctx.Err(); err != nil {
			sum.Result = s.End()
			return sum, err
		}

		if err := r.tick(); err != nil {
			r.logger.Warn("Tick reported an error", "tick", sum.Ticks+1, "error", err)
		}
		sum.Ticks++
		sum.SimTime += time.Duration(r.dt * float64(time.Second))

		if n := r.deps.Vehicle.Placements(); n != placements {
			placements = n
			r.deps.Detector.Reset()
		}
	}

	sum.Result = s.End()
	return sum, nil
}

func (r *Runner) tick() error {
	s := r.deps.Session
	c := s.Controller()

	dive := r.cfg.CrashAt >= 0 && !r.crashed && c.AcceptInput()
	if dive {
		cleared, _ := c.Progress()
		dive = cleared >= r.cfg.CrashAt
	}

	cmd := r.deps.Pilot.Decide(r.deps.Vehicle.Pose(), c.Checkpoints()[c.TargetIndex()], dive)
	left, right := r.deps.Pilot.Poses(cmd)
	if err := r.dispatch(session.CmdPoseLeft, left); err != nil {
		return err
	}
	if err := r.dispatch(session.CmdPoseRight, right); err != nil {
		return err
	}
	if r.shouldCapture() {
		r.captured = true
		for _, hand := range []core.Hand{core.HandLeft, core.HandRight} {
			if err := r.dispatch(session.CmdCapture, hand); err != nil {
				return err
			}
		}
	}

	frame, stepErr := s.Step(r.dt)
	for _, e := range frame.Events {
		if dive && e.Type == core.EventCrashed {
			r.crashed = true
			r.logger.Info("Scripted crash done", "elapsed", e.Elapsed)
		}
	}

	r.deps.Vehicle.Step(frame.Axes, r.dt)
	if !c.AcceptInput() {
		return stepErr
	}

	target := c.TargetIndex()
	hit := r.deps.Detector.Check(r.deps.Vehicle.Pose().Position, c.Checkpoints()[target], target)
	if hit.Collision {
		return errors.Join(stepErr, r.dispatch(session.CmdCollision, nil))
	}
	if hit.Checkpoint {
		return errors.Join(stepErr, r.dispatch(session.CmdCheckpoint, nil))
	}
	return stepErr
}

// shouldCapture reports whether this tick takes the one scripted capture.
func (r *Runner) shouldCapture() bool {
	if r.cfg.CaptureAt < 0 || r.captured {
		return false
	}
	c := r.deps.Session.Controller()
	if !c.AcceptInput() {
		return false
	}
	cleared, _ := c.Progress()
	return cleared >= r.cfg.CaptureAt
}

func (r *Runner) dispatch(cmd string, payload any) error {
	_, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{Command: cmd, Payload: payload})
	return err
}
