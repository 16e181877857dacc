// Package sim flies a race without a headset: a kinematic vehicle, an
// autopilot that holds up hand poses, and a loop that feeds both through a
// session.
package sim

import (
	"math"
	"sync"

	"github.com/airrace/racecore/pkg/core"
)

// maxClimb limits the flight path angle, radians.
const maxClimb = math.Pi / 3

// Vehicle is a point mass with a heading and a climb angle. Throttle sets the
// speed, pitch and yaw turn the flight path at turnRate, roll is kept for
// display only. Y is up.
type Vehicle struct {
	mu       sync.RWMutex
	pos      core.Position3D
	heading  float64
	climb    float64
	bank     float64
	speed    float64
	turnRate float64
	placed   int
}

// NewVehicle creates a vehicle at the origin facing +X.
func NewVehicle(speed, turnRate float64) *Vehicle {
	return &Vehicle{speed: speed, turnRate: turnRate}
}

// Place teleports the vehicle. A zero Forward keeps the current attitude.
func (v *Vehicle) Place(p core.VehiclePose) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = p.Position
	if !p.Forward.IsZero() {
		v.heading = math.Atan2(p.Forward.Z, p.Forward.X)
		v.climb = clampClimb(math.Asin(math.Max(-1, math.Min(1, p.Forward.Y))))
	}
	v.bank = 0
	v.placed++
}

// Placements counts Place calls, so a runner can tell a respawn happened.
func (v *Vehicle) Placements() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.placed
}

// Step integrates axes over dt seconds.
func (v *Vehicle) Step(axes core.ControlAxes, dt float64) {
	if dt <= 0 {
		return
	}
	axes = axes.Clamp()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.heading = wrapAngle(v.heading + axes.Yaw*v.turnRate*dt)
	v.climb = clampClimb(v.climb + axes.Pitch*v.turnRate*dt)
	v.bank = axes.Roll * math.Pi / 4

	speed := math.Max(0, axes.Throttle) * v.speed
	v.pos = v.pos.Add(forward(v.heading, v.climb).Scale(speed * dt))
}

// Pose returns position and unit forward vector.
func (v *Vehicle) Pose() core.VehiclePose {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return core.VehiclePose{Position: v.pos, Forward: forward(v.heading, v.climb)}
}

// Attitude returns heading, climb and bank in radians.
func (v *Vehicle) Attitude() (heading, climb, bank float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.heading, v.climb, v.bank
}

func forward(heading, climb float64) core.Position3D {
	return core.Position3D{
		X: math.Cos(climb) * math.Cos(heading),
		Y: math.Sin(climb),
		Z: math.Cos(climb) * math.Sin(heading),
	}
}

func clampClimb(c float64) float64 {
	return math.Max(-maxClimb, math.Min(maxClimb, c))
}

// wrapAngle maps a into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
