package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/airrace/racecore/pkg/core"
)

// CapturedName is the name given to every freshly captured pose. Captures are
// renamed by hand before they go into the dictionary.
const CapturedName core.GestureName = "New Gesture"

// ErrNothingTracked is returned when a capture is requested for an untracked hand.
var ErrNothingTracked = errors.New("hand is not tracked")

// Capture turns a live pose into a template.
func Capture(hand core.Hand, live core.LivePose) (core.GestureTemplate, error) {
	if !hand.Valid() {
		return core.GestureTemplate{}, fmt.Errorf("%w: %q", ErrInvalidHand, hand)
	}
	if len(live.Joints) == 0 {
		return core.GestureTemplate{}, fmt.Errorf("%s hand: %w", hand, ErrNothingTracked)
	}
	return core.GestureTemplate{
		Name:   CapturedName,
		Hand:   hand,
		Joints: live.Clone().Joints,
	}, nil
}

// Recorder collects captured templates during a debug session.
type Recorder struct {
	mu        sync.Mutex
	templates []core.GestureTemplate
}

// Add captures live and keeps the result.
func (r *Recorder) Add(hand core.Hand, live core.LivePose) (core.GestureTemplate, error) {
	t, err := Capture(hand, live)
	if err != nil {
		return core.GestureTemplate{}, err
	}

	r.mu.Lock()
	r.templates = append(r.templates, t)
	r.mu.Unlock()
	return t, nil
}

// Templates returns the captures so far.
func (r *Recorder) Templates() []core.GestureTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.GestureTemplate, len(r.templates))
	copy(out, r.templates)
	return out
}

// Len returns the number of captures.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.templates)
}

// WriteTemplates writes templates as the JSON array accepted by the
// gesture.templates config key.
func WriteTemplates(w io.Writer, templates []core.GestureTemplate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(templates); err != nil {
		return fmt.Errorf("encoding templates: %w", err)
	}
	return nil
}

// ReadTemplates parses a JSON array of templates.
func ReadTemplates(r io.Reader) ([]core.GestureTemplate, error) {
	var out []core.GestureTemplate
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	return out, nil
}
