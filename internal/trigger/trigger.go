// Package trigger turns vehicle positions into the two collision reports the
// race controller understands: a checkpoint sphere was entered, or the vehicle
// went into the ground.
package trigger

import (
	"errors"
	"fmt"
	"math"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/pkg/core"
)

// ErrInvalidRadius is returned for a trigger radius that is not positive.
var ErrInvalidRadius = errors.New("trigger radius must be positive")

// Result is what one Check observed. Checkpoint and Collision are edges:
// they fire once on entry and stay false while the vehicle remains inside.
type Result struct {
	Checkpoint bool
	Collision  bool
	Distance   float64
}

// Detector is a sphere around the current target plus a ground plane at a
// fixed altitude (Y is up).
type Detector struct {
	radius float64
	ground float64

	inside   int
	grounded bool
}

// New builds a detector from the trigger section.
func New(cfg config.TriggerConfig) (*Detector, error) {
	if !(cfg.Radius > 0) || math.IsInf(cfg.Radius, 1) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidRadius, cfg.Radius)
	}
	return &Detector{radius: cfg.Radius, ground: cfg.GroundLevel, inside: -1}, nil
}

// Radius is the checkpoint sphere radius in meters.
func (d *Detector) Radius() float64 {
	return d.radius
}

// Check tests pos against the sphere around target. targetIndex identifies
// the sphere so a new target is entered afresh even when the spheres overlap.
func (d *Detector) Check(pos, target core.Position3D, targetIndex int) Result {
	r := Result{Distance: pos.Distance(target)}

	if r.Distance <= d.radius {
		r.Checkpoint = d.inside != targetIndex
		d.inside = targetIndex
	} else if d.inside == targetIndex {
		d.inside = -1
	}

	below := pos.Y < d.ground
	r.Collision = below && !d.grounded
	d.grounded = below

	return r
}

// Reset forgets which volumes the vehicle was inside, e.g. after a respawn
// teleport.
func (d *Detector) Reset() {
	d.inside = -1
	d.grounded = false
}
