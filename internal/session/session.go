// Package session runs one race tick by tick: it drains collaborator input,
// advances the race, turns hand poses into control axes and records what
// happened.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/internal/dispatcher"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/internal/queue"
	"github.com/airrace/racecore/internal/race"
	"github.com/airrace/racecore/internal/snapshot"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

var (
	// ErrMissingDependency is returned by New when the classifier or mapper
	// is nil.
	ErrMissingDependency = errors.New("session dependency missing")
	// ErrNotStarted is returned by Step before Start.
	ErrNotStarted = errors.New("session not started")
)

// Dependencies holds everything a session is built from. Board, Backends,
// Vehicle and Logger are optional.
type Dependencies struct {
	Race       core.Race
	Timing     race.Timing
	Vehicle    race.Vehicle
	Classifier *gesture.Classifier
	Mapper     *controls.Mapper
	Board      *snapshot.Board
	Backends   []storage.Backend
	Logger     *slog.Logger
	DebugInput bool
	Clock      func() time.Time
}

// Frame is the output of one Step.
type Frame struct {
	Tick      uint64
	Axes      core.ControlAxes
	ViewCycle bool
	View      core.ViewMode
	Snapshot  core.RaceSnapshot
	Text      string
	Left      core.GestureName
	Right     core.GestureName
	Cues      []core.AudioCue
	Events    []core.RaceEvent
}

// Session owns the race controller and everything fed into it. Step must be
// called from a single goroutine; the Push methods are safe from any.
type Session struct {
	deps       Dependencies
	logger     *slog.Logger
	now        func() time.Time
	controller *race.Controller
	inbox      *queue.Queue[Input]
	view       *controls.ViewTracker
	captured   gesture.Recorder
	recorder   *dispatcher.Dispatcher
	metrics    *metrics

	prevRight core.GestureName
	keys      core.KeyState
	tick      uint64
	pending   []core.RaceEvent
	started   bool
	ended     bool
}

// New builds a session and its race controller.
func New(deps Dependencies) (*Session, error) {
	if deps.Classifier == nil || deps.Mapper == nil {
		return nil, fmt.Errorf("%w: classifier and mapper are required", ErrMissingDependency)
	}
	s := &Session{
		deps:   deps,
		logger: deps.Logger,
		now:    deps.Clock,
		inbox:  queue.New[Input](),
		view:   controls.NewViewTracker(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	var err error
	s.controller, err = race.New(deps.Race.Course.Checkpoints,
		race.WithTiming(deps.Timing),
		race.WithVehicle(deps.Vehicle),
		race.WithRaceID(deps.Race.ID),
		race.WithLogger(s.logger),
		race.WithClock(s.now),
		race.WithListener(s.onEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("creating race: %w", err)
	}
	if s.metrics, err = newMetrics(); err != nil {
		return nil, err
	}
	s.logger = s.logger.With("raceId", s.controller.RaceID())
	return s, nil
}

// Controller exposes the race for read-only queries.
func (s *Session) Controller() *race.Controller {
	return s.controller
}

// RaceID identifies the race in every recording.
func (s *Session) RaceID() string {
	return s.controller.RaceID()
}

// View is the active camera.
func (s *Session) View() core.ViewMode {
	return s.view.Mode()
}

// Captured returns the poses captured so far as templates.
func (s *Session) Captured() []core.GestureTemplate {
	return s.captured.Templates()
}

// Ended reports whether the race has been closed on the backends.
func (s *Session) Ended() bool {
	return s.ended
}

// Start opens the race on every backend, places the vehicle on the start
// marker and begins the countdown. A backend that fails to start is logged
// and its error returned after the race has started on the others.
func (s *Session) Start() error {
	if s.started {
		return nil
	}
	r := s.deps.Race
	r.ID = s.controller.RaceID()
	r.StartTime = s.now()
	r.Countdown = s.deps.Timing.Countdown

	var errs []error
	for _, b := range s.deps.Backends {
		if err := b.StartRace(&r); err != nil {
			s.logger.Error("Backend failed to start race", "backend", fmt.Sprintf("%T", b), "error", err)
			errs = append(errs, err)
		}
	}

	s.started = true
	s.controller.Start()
	s.flushEvents()
	s.publish(core.ControlAxes{})
	s.logger.Info("Session started",
		"pilot", r.Pilot,
		"course", r.Course.Name,
		"backends", len(s.deps.Backends),
		"threshold", s.deps.Classifier.Threshold(),
		"cycleGesture", s.deps.Mapper.CycleGesture(),
	)
	return errors.Join(errs...)
}

// Step advances the session by dt seconds.
//
// Queued input is applied in arrival order, then the race clock ticks, then
// the latest pose of each hand is classified and mapped exactly once. The
// resulting axes are zero whenever the race does not accept input. A
// classification error leaves that hand at NoGesture; the frame is still
// complete and the error is returned alongside it.
func (s *Session) Step(dt float64) (Frame, error) {
	if !s.started {
		return Frame{}, ErrNotStarted
	}
	s.tick++

	var in drained
	for _, item := range s.inbox.GetAndEmpty() {
		s.apply(item, &in)
	}

	s.controller.Tick(dt)

	var errs []error
	left, err := s.classify(core.HandLeft, in.left)
	errs = append(errs, err)
	right, err := s.classify(core.HandRight, in.right)
	errs = append(errs, err)

	for _, hand := range in.captures {
		pose := in.left
		if hand == core.HandRight {
			pose = in.right
		}
		errs = append(errs, s.capture(hand, pose))
	}

	mapped := s.deps.Mapper.Map(left, right, s.prevRight)
	s.prevRight = mapped.PrevRight
	for _, u := range mapped.Unmapped {
		s.logger.Warn("Gesture has no binding", "hand", u.Hand, "gesture", u.Name)
	}

	axes := mapped.Axes
	viewCycle := mapped.ViewCycle
	if s.deps.DebugInput {
		keyAxes, cycle := s.deps.Mapper.MapKeys(s.keys)
		s.keys.CycleView = false
		axes = axes.Add(keyAxes)
		viewCycle = viewCycle || cycle
	}
	accepting := s.controller.AcceptInput()
	if !accepting {
		axes = core.ControlAxes{}
	}

	if viewCycle {
		mode := s.view.Cycle()
		s.logger.Debug("View changed", "view", mode)
		s.onEvent(core.RaceEvent{
			RaceID:  s.controller.RaceID(),
			Type:    core.EventViewChanged,
			Time:    s.now(),
			Elapsed: s.controller.Snapshot().Elapsed,
			View:    mode,
		})
	}

	snap := s.controller.Snapshot()
	s.record(Record{Sample: &core.TelemetrySample{
		RaceID:    s.controller.RaceID(),
		Time:      s.now(),
		Tick:      s.tick,
		State:     snap.State,
		Elapsed:   snap.Elapsed,
		Target:    snap.Target,
		Axes:      axes,
		Left:      left,
		Right:     right,
		Accepting: accepting,
	}})
	events := s.flushEvents()
	s.publish(axes)

	frame := Frame{
		Tick:      s.tick,
		Axes:      axes,
		ViewCycle: viewCycle,
		View:      s.view.Mode(),
		Snapshot:  snap,
		Text:      race.DisplayText(snap),
		Left:      left,
		Right:     right,
		Events:    events,
	}
	for _, e := range events {
		if e.Cue != "" {
			frame.Cues = append(frame.Cues, e.Cue)
		}
	}

	if s.controller.Finished() {
		s.End()
	}
	return frame, errors.Join(errs...)
}

// End closes the race on every backend with the current result. A race that
// never finished is recorded as abandoned. Calling End again is a no-op.
func (s *Session) End() core.RaceResult {
	res := s.controller.Result()
	if !s.started || s.ended {
		return res
	}
	s.ended = true
	s.record(Record{Result: &res})
	s.logger.Info("Session ended", "finished", res.Finished, "elapsed", res.Elapsed, "crashes", res.Crashes)
	return res
}

func (s *Session) classify(hand core.Hand, pose *core.LivePose) (core.GestureName, error) {
	if pose == nil {
		return core.NoGesture, nil
	}
	name, err := s.deps.Classifier.Recognize(hand, *pose)
	if err != nil {
		s.logger.Warn("Pose not classified", "hand", hand, "error", err)
		return core.NoGesture, err
	}
	s.metrics.recognized(hand, name)
	return name, nil
}

func (s *Session) capture(hand core.Hand, pose *core.LivePose) error {
	var live core.LivePose
	if pose != nil {
		live = *pose
	}
	t, err := s.captured.Add(hand, live)
	if err != nil {
		return fmt.Errorf("capturing %s hand: %w", hand, err)
	}
	s.logger.Info("Pose captured", "hand", hand, "name", t.Name, "captured", s.captured.Len())
	return nil
}

func (s *Session) onEvent(e core.RaceEvent) {
	s.pending = append(s.pending, e)
}

// flushEvents hands the events collected since the last flush to the
// recorders and returns them.
func (s *Session) flushEvents() []core.RaceEvent {
	events := s.pending
	s.pending = nil
	for i := range events {
		s.record(Record{Event: &events[i]})
	}
	return events
}

func (s *Session) publish(axes core.ControlAxes) {
	if s.deps.Board == nil {
		return
	}
	from, to := s.controller.CurrentSegment()
	snap := s.controller.Snapshot()
	statuses := lo.Map(s.controller.Statuses(), func(st race.CheckpointStatus, _ int) string {
		return st.String()
	})
	s.deps.Board.Set(snapshot.Published{
		Tick:        s.tick,
		Race:        snap,
		Text:        race.DisplayText(snap),
		Axes:        axes,
		View:        s.view.Mode(),
		ShowModel:   s.view.ShowModel(),
		From:        from,
		To:          to,
		Checkpoints: statuses,
	})
}
