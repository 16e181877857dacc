package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/samber/lo"

	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/pkg/core"
)

// ErrNoThrottle is returned when no right hand gesture gives positive throttle.
var ErrNoThrottle = errors.New("no right hand binding with positive throttle")

const (
	// deadband is the heading or climb error, radians, the pilot ignores.
	deadband = 0.05
	// turnInPlace is the heading error above which the pilot cuts throttle.
	turnInPlace = math.Pi / 3
)

// Command is what the pilot holds up for one tick, and the axes it wanted.
type Command struct {
	Left    core.GestureName
	Right   core.GestureName
	Desired core.ControlAxes
}

type leftOption struct {
	name   core.GestureName
	axes   controls.LeftAxes
	joints []core.Position3D
}

type rightOption struct {
	name   core.GestureName
	axes   controls.RightAxes
	joints []core.Position3D
}

// Pilot steers towards a target by choosing, each tick, the bound gesture
// whose axes are closest to what it wants.
type Pilot struct {
	left  []leftOption
	right []rightOption
	noise float64
	rng   *rand.Rand
}

// NewPilot collects the bound gestures of the dictionary. noise is the
// standard deviation, per joint coordinate, added to every emitted pose.
func NewPilot(store *gesture.Store, mapping controls.Mapping, noise float64, seed int64) (*Pilot, error) {
	p := &Pilot{noise: noise, rng: rand.New(rand.NewSource(seed))}

	for _, t := range store.Templates(core.HandLeft) {
		if axes, ok := mapping.Left[t.Name]; ok {
			p.left = append(p.left, leftOption{name: t.Name, axes: axes, joints: t.Joints})
		}
	}
	for _, t := range store.Templates(core.HandRight) {
		if axes, ok := mapping.Right[t.Name]; ok {
			p.right = append(p.right, rightOption{name: t.Name, axes: axes, joints: t.Joints})
		}
	}

	if !lo.SomeBy(p.right, func(o rightOption) bool { return o.axes.Throttle > 0 }) {
		return nil, ErrNoThrottle
	}
	if len(p.left) == 0 {
		return nil, fmt.Errorf("no left hand bindings in the dictionary")
	}
	return p, nil
}

// Decide picks the gestures that turn pose towards target. With dive set the
// pilot noses down at full throttle instead.
func (p *Pilot) Decide(pose core.VehiclePose, target core.Position3D, dive bool) Command {
	want := core.ControlAxes{Throttle: 1}

	if dive {
		want.Pitch = -1
	} else {
		to := target.Sub(pose.Position)
		heading := math.Atan2(pose.Forward.Z, pose.Forward.X)
		climb := math.Asin(math.Max(-1, math.Min(1, pose.Forward.Y)))

		headingErr := wrapAngle(math.Atan2(to.Z, to.X) - heading)
		climbErr := clampClimb(math.Atan2(to.Y, math.Hypot(to.X, to.Z))) - climb

		// One left hand gesture per tick: correct the larger error.
		if math.Abs(headingErr) >= math.Abs(climbErr) {
			if math.Abs(headingErr) > deadband {
				want.Yaw = sign(headingErr)
			}
		} else if math.Abs(climbErr) > deadband {
			want.Pitch = sign(climbErr)
		}
		if math.Abs(headingErr) > turnInPlace {
			want.Throttle = 0
		}
	}

	left := lo.MinBy(p.left, func(a, b leftOption) bool {
		return leftDistance(a.axes, want) < leftDistance(b.axes, want)
	})
	right := lo.MinBy(p.right, func(a, b rightOption) bool {
		return math.Abs(a.axes.Throttle-want.Throttle) < math.Abs(b.axes.Throttle-want.Throttle)
	})

	return Command{Left: left.name, Right: right.name, Desired: want}
}

// Poses renders a command as the two hand poses a tracker would report.
func (p *Pilot) Poses(cmd Command) (left, right core.LivePose) {
	for _, o := range p.left {
		if o.name == cmd.Left {
			left = p.jitter(o.joints)
		}
	}
	for _, o := range p.right {
		if o.name == cmd.Right {
			right = p.jitter(o.joints)
		}
	}
	return left, right
}

func (p *Pilot) jitter(joints []core.Position3D) core.LivePose {
	out := make([]core.Position3D, len(joints))
	for i, j := range joints {
		out[i] = core.Position3D{
			X: j.X + p.rng.NormFloat64()*p.noise,
			Y: j.Y + p.rng.NormFloat64()*p.noise,
			Z: j.Z + p.rng.NormFloat64()*p.noise,
		}
	}
	return core.LivePose{Joints: out}
}

func leftDistance(a controls.LeftAxes, want core.ControlAxes) float64 {
	dp, dy, dr := a.Pitch-want.Pitch, a.Yaw-want.Yaw, a.Roll-want.Roll
	return dp*dp + dy*dy + dr*dr
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
