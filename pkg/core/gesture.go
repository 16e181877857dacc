// pkg/core/gesture.go
package core

// GestureName identifies a template in the gesture dictionary.
type GestureName string

// NoGesture is the result of a tick where no template matched.
// It is distinct from every configured name, including neutral poses.
const NoGesture GestureName = ""

// Hand selects which tracked hand a pose or template belongs to.
type Hand string

const (
	HandLeft  Hand = "left"
	HandRight Hand = "right"
)

// Valid reports whether h is one of the tracked hands.
func (h Hand) Valid() bool {
	return h == HandLeft || h == HandRight
}

// GestureTemplate is a named reference pose. Joints are expressed relative to
// the hand-root frame, one per tracked bone, in a fixed order.
type GestureTemplate struct {
	Name   GestureName  `json:"name" mapstructure:"name"`
	Hand   Hand         `json:"hand" mapstructure:"hand"`
	Joints []Position3D `json:"joints" mapstructure:"joints"`
}

// LivePose is one sample of a tracked hand in the same frame and joint order
// as the templates. It is recomputed every tick and never stored.
type LivePose struct {
	Joints []Position3D
}

// Clone returns a deep copy of the pose.
func (p LivePose) Clone() LivePose {
	joints := make([]Position3D, len(p.Joints))
	copy(joints, p.Joints)
	return LivePose{Joints: joints}
}
