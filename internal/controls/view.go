package controls

import (
	"sync"

	"github.com/airrace/racecore/pkg/core"
)

// viewOrder is the cycle order of camera modes.
var viewOrder = []core.ViewMode{
	core.ViewFirstPerson,
	core.ViewCockpit,
	core.ViewThirdPerson,
}

// DefaultView is the camera a race starts with.
const DefaultView = core.ViewThirdPerson

// NextView returns the mode after v, wrapping around. Unknown modes restart
// the cycle.
func NextView(v core.ViewMode) core.ViewMode {
	for i, m := range viewOrder {
		if m == v {
			return viewOrder[(i+1)%len(viewOrder)]
		}
	}
	return viewOrder[0]
}

// ViewTracker holds the active camera mode.
type ViewTracker struct {
	mu   sync.RWMutex
	mode core.ViewMode
}

// NewViewTracker starts at DefaultView.
func NewViewTracker() *ViewTracker {
	return &ViewTracker{mode: DefaultView}
}

// Cycle advances to the next mode and returns it.
func (v *ViewTracker) Cycle() core.ViewMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = NextView(v.mode)
	return v.mode
}

// Mode returns the active mode.
func (v *ViewTracker) Mode() core.ViewMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// ShowModel reports whether the vehicle model is drawn. Only the first person
// camera hides it.
func (v *ViewTracker) ShowModel() bool {
	return v.Mode() != core.ViewFirstPerson
}
