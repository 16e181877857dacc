// Package gesture recognizes hand poses by matching them against a fixed
// dictionary of reference poses.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/airrace/racecore/pkg/core"
)

// ErrInvalidThreshold is returned for a negative or NaN joint threshold.
var ErrInvalidThreshold = errors.New("joint threshold must be a non-negative number")

// Recognize returns the template closest to live, or NoGesture.
//
// A template is dropped as soon as one joint is further than threshold from
// the live joint, so a pose that is close on average but has one finger in
// the wrong place never wins. Survivors are scored by the sum of their joint
// distances; the strictly lowest sum wins and ties keep template order.
func Recognize(live core.LivePose, templates []core.GestureTemplate, threshold float64) (core.GestureName, error) {
	best := core.NoGesture
	bestScore := math.Inf(1)

	for _, t := range templates {
		if len(t.Joints) != len(live.Joints) {
			return core.NoGesture, fmt.Errorf("template %q: %w: pose has %d, template has %d",
				t.Name, ErrJointCountMismatch, len(live.Joints), len(t.Joints))
		}

		score, ok := scoreTemplate(live.Joints, t.Joints, threshold)
		if !ok {
			continue
		}
		if score < bestScore {
			best = t.Name
			bestScore = score
		}
	}

	return best, nil
}

// scoreTemplate sums joint distances, bailing out on the first joint over
// threshold.
func scoreTemplate(live, template []core.Position3D, threshold float64) (float64, bool) {
	var sum float64
	for i := range template {
		d := live[i].Distance(template[i])
		if d > threshold {
			return 0, false
		}
		sum += d
	}
	return sum, true
}

// Classifier binds a template store to a threshold.
type Classifier struct {
	store     *Store
	threshold float64
}

// NewClassifier creates a classifier over store.
func NewClassifier(store *Store, threshold float64) (*Classifier, error) {
	if store == nil {
		return nil, errors.New("nil gesture store")
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return &Classifier{store: store, threshold: threshold}, nil
}

// Recognize classifies a pose of the given hand. An empty pose means the hand
// was not tracked this tick and yields NoGesture.
func (c *Classifier) Recognize(hand core.Hand, live core.LivePose) (core.GestureName, error) {
	if len(live.Joints) == 0 {
		return core.NoGesture, nil
	}
	return Recognize(live, c.store.Templates(hand), c.threshold)
}

// Threshold returns the per-joint rejection distance.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Store returns the dictionary the classifier matches against.
func (c *Classifier) Store() *Store {
	return c.store
}
