package race

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/airrace/racecore/pkg/core"
)

// Vehicle is the collaborator that owns the vehicle's transform.
// The controller only tells it where to go; physics stays on the vehicle.
type Vehicle interface {
	Place(pose core.VehiclePose)
}

// Listener receives every race event in emission order.
type Listener func(core.RaceEvent)

// Option configures a Controller.
type Option func(*Controller)

// WithTiming overrides the default countdowns.
func WithTiming(t Timing) Option {
	return func(c *Controller) {
		c.timing = t
	}
}

// WithVehicle sets the collaborator that is repositioned on start and crash.
func WithVehicle(v Vehicle) Option {
	return func(c *Controller) {
		c.vehicle = v
	}
}

// WithListener adds an event listener.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRaceID fixes the race identifier instead of generating one.
func WithRaceID(id string) Option {
	return func(c *Controller) {
		c.raceID = id
	}
}

// WithClock sets the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller is the composition root of the race core. It owns the
// sequencer and the state machine; collaborators read snapshots and may only
// raise CheckpointReached and CollisionDetected.
type Controller struct {
	raceID    string
	timing    Timing
	seq       *Sequencer
	machine   *Machine
	vehicle   Vehicle
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time
	metrics   *metrics

	crashes int
	splits  []float64
}

// New builds a controller for one race over checkpoints.
func New(checkpoints []core.Position3D, opts ...Option) (*Controller, error) {
	c := &Controller{
		timing: DefaultTiming(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.raceID == "" {
		c.raceID = uuid.NewString()
	}

	var err error
	if c.seq, err = NewSequencer(checkpoints); err != nil {
		return nil, err
	}
	if c.machine, err = NewMachine(c.timing); err != nil {
		return nil, err
	}
	if c.metrics, err = newMetrics(); err != nil {
		return nil, err
	}
	c.splits = make([]float64, 0, c.seq.Len()-1)
	c.logger = c.logger.With("raceId", c.raceID)

	return c, nil
}

// Start places the vehicle on the start marker facing the first target and
// announces the countdown.
func (c *Controller) Start() {
	anchor := c.seq.RespawnAnchor()
	c.place(anchor)
	c.logger.Info("Race ready", "checkpoints", c.seq.Len(), "countdown", c.timing.Countdown)
	c.emit(core.RaceEvent{Type: core.EventRaceReady, Anchor: &anchor, Cue: core.CueReady})
}

// RaceID identifies this race in recordings.
func (c *Controller) RaceID() string {
	return c.raceID
}

// Tick advances the race clock by dt seconds. Negative or non-finite dt is
// clamped to zero.
func (c *Controller) Tick(dt float64) Transition {
	if clamped := clampDelta(dt); clamped != dt {
		c.logger.Debug("Bad tick clamped", "dt", dt)
		dt = clamped
	}
	tr := c.machine.Tick(dt)
	if !tr.Changed() {
		return tr
	}

	c.logger.Debug("Race state changed", "from", tr.From, "to", tr.To)
	switch {
	case tr.From == KindWaiting && tr.To == KindPlaying:
		c.logger.Info("Race started")
		c.emit(core.RaceEvent{Type: core.EventRaceStarted, Cue: core.CueDriving})
	case tr.From == KindRespawning && tr.To == KindPlaying:
		c.emit(core.RaceEvent{Type: core.EventRespawned, Cue: core.CueDriving})
	}
	return tr
}

// CheckpointReached handles the collision layer's report that the vehicle
// is inside the current target. It is only evaluated while input is
// accepted; otherwise it is ignored and ok is false.
func (c *Controller) CheckpointReached() (result SequencerResult, ok bool) {
	if !c.machine.AcceptInput() {
		c.logger.Debug("Checkpoint ignored", "state", c.machine.State().Kind())
		return 0, false
	}

	index := c.seq.TargetIndex()
	result = c.seq.Advance()
	c.splits = append(c.splits, ElapsedOf(c.machine.State()))

	if result == Advanced {
		c.metrics.checkpoint()
		c.logger.Info("Checkpoint passed", "index", index, "elapsed", ElapsedOf(c.machine.State()))
		c.emit(core.RaceEvent{Type: core.EventCheckpointPassed, Index: index, Cue: core.CuePass})
		return result, true
	}

	c.machine.CheckpointReached(result)
	elapsed := ElapsedOf(c.machine.State())
	c.metrics.checkpoint()
	c.metrics.finish(elapsed)
	c.logger.Info("Race finished", "elapsed", elapsed, "crashes", c.crashes)
	c.emit(core.RaceEvent{Type: core.EventRaceFinished, Index: index})
	return result, true
}

// CollisionDetected handles a crash into solid geometry. While playing the
// vehicle is put back on the last cleared checkpoint and the respawn
// countdown starts; in every other state it is a no-op.
func (c *Controller) CollisionDetected() bool {
	if !c.machine.AcceptInput() {
		return false
	}
	anchor := c.seq.RespawnAnchor()
	c.place(anchor)
	c.machine.Collision()
	c.crashes++
	c.metrics.crash()
	c.logger.Info("Crashed, respawning", "elapsed", ElapsedOf(c.machine.State()), "anchor", c.seq.PrevIndex())
	c.emit(core.RaceEvent{Type: core.EventCrashed, Anchor: &anchor, Cue: core.CueCrash})
	return true
}

// AcceptInput gates whether control axes may reach the vehicle.
func (c *Controller) AcceptInput() bool {
	return c.machine.AcceptInput()
}

// State returns the current race state.
func (c *Controller) State() State {
	return c.machine.State()
}

// Finished reports whether the race reached its terminal state.
func (c *Controller) Finished() bool {
	return c.machine.State().Kind() == KindFinished
}

// Snapshot returns the raw values the HUD is built from.
func (c *Controller) Snapshot() core.RaceSnapshot {
	st := c.machine.State()
	cleared, total := c.seq.Progress()
	return core.RaceSnapshot{
		State:     string(st.Kind()),
		Elapsed:   ElapsedOf(st),
		Countdown: CountdownOf(st),
		Cleared:   cleared,
		Total:     total,
		Target:    c.seq.TargetIndex(),
	}
}

// DisplayText renders the HUD line for the current state.
func (c *Controller) DisplayText() string {
	return DisplayText(c.Snapshot())
}

// CurrentSegment returns the last cleared checkpoint and the target, for the
// line indicator.
func (c *Controller) CurrentSegment() (core.Position3D, core.Position3D) {
	return c.seq.CurrentSegment()
}

// RespawnAnchor returns where a crash would put the vehicle.
func (c *Controller) RespawnAnchor() core.VehiclePose {
	return c.seq.RespawnAnchor()
}

// Progress returns cleared and total checkpoint counts.
func (c *Controller) Progress() (cleared, total int) {
	return c.seq.Progress()
}

// TargetIndex is the checkpoint currently being flown to.
func (c *Controller) TargetIndex() int {
	return c.seq.TargetIndex()
}

// Checkpoints returns a copy of the course.
func (c *Controller) Checkpoints() []core.Position3D {
	return c.seq.Checkpoints()
}

// Statuses classifies every checkpoint for indicator colouring. Once the
// race is finished all of them read as cleared.
func (c *Controller) Statuses() []CheckpointStatus {
	out := make([]CheckpointStatus, c.seq.Len())
	finished := c.Finished()
	for i := range out {
		if finished {
			out[i] = StatusCleared
			continue
		}
		out[i] = c.seq.Status(i)
	}
	return out
}

// Result summarizes the race so far.
func (c *Controller) Result() core.RaceResult {
	cleared, total := c.seq.Progress()
	finished := c.Finished()
	if finished {
		cleared = total
	}
	splits := make([]float64, len(c.splits))
	copy(splits, c.splits)
	return core.RaceResult{
		RaceID:   c.raceID,
		EndTime:  c.now(),
		Finished: finished,
		Elapsed:  ElapsedOf(c.machine.State()),
		Cleared:  cleared,
		Total:    total,
		Crashes:  c.crashes,
		Splits:   splits,
	}
}

func (c *Controller) place(pose core.VehiclePose) {
	if c.vehicle != nil {
		c.vehicle.Place(pose)
	}
}

func (c *Controller) emit(e core.RaceEvent) {
	e.RaceID = c.raceID
	e.Time = c.now()
	e.Elapsed = ElapsedOf(c.machine.State())
	for _, l := range c.listeners {
		l(e)
	}
}
