// pkg/core/vehicle.go
package core

import "math"

// ControlAxes are the normalized flight inputs handed to the vehicle's
// physics integrator. Every axis is in [-1, 1].
type ControlAxes struct {
	Throttle float64 `json:"throttle"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Roll     float64 `json:"roll"`
}

// Add sums two contributions and clamps the result into range.
func (a ControlAxes) Add(b ControlAxes) ControlAxes {
	return ControlAxes{
		Throttle: a.Throttle + b.Throttle,
		Pitch:    a.Pitch + b.Pitch,
		Yaw:      a.Yaw + b.Yaw,
		Roll:     a.Roll + b.Roll,
	}.Clamp()
}

// Clamp limits every axis to [-1, 1].
func (a ControlAxes) Clamp() ControlAxes {
	return ControlAxes{
		Throttle: clampUnit(a.Throttle),
		Pitch:    clampUnit(a.Pitch),
		Yaw:      clampUnit(a.Yaw),
		Roll:     clampUnit(a.Roll),
	}
}

// InRange reports whether every axis lies in [-1, 1].
func (a ControlAxes) InRange() bool {
	return a == a.Clamp()
}

// IsZero reports whether all axes are zero.
func (a ControlAxes) IsZero() bool {
	return a == ControlAxes{}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// VehiclePose is where the vehicle is placed and which way it points.
// Forward is a unit vector, or zero when the course segment is degenerate.
type VehiclePose struct {
	Position Position3D `json:"position"`
	Forward  Position3D `json:"forward"`
}

// ViewMode is the active camera for the pilot.
type ViewMode string

const (
	ViewFirstPerson ViewMode = "first_person"
	ViewCockpit     ViewMode = "cockpit"
	ViewThirdPerson ViewMode = "third_person"
)

// KeyState is one frame of the debug keyboard. Held keys map straight onto
// axes; CycleView is already a key-down edge.
type KeyState struct {
	ThrottleUp   bool `json:"throttleUp"`
	ThrottleDown bool `json:"throttleDown"`
	PitchUp      bool `json:"pitchUp"`
	PitchDown    bool `json:"pitchDown"`
	YawLeft      bool `json:"yawLeft"`
	YawRight     bool `json:"yawRight"`
	RollLeft     bool `json:"rollLeft"`
	RollRight    bool `json:"rollRight"`
	CycleView    bool `json:"cycleView"`
}
