package gesture

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/airrace/racecore/pkg/core"
)

var (
	// ErrEmptyName is returned for a template without a name.
	ErrEmptyName = errors.New("gesture template has no name")
	// ErrInvalidHand is returned for a template that names no tracked hand.
	ErrInvalidHand = errors.New("gesture template has an invalid hand")
	// ErrDuplicateName is returned when a hand has two templates of one name.
	ErrDuplicateName = errors.New("duplicate gesture template name")
	// ErrJointCountMismatch is returned when poses and templates disagree on
	// the number of joints.
	ErrJointCountMismatch = errors.New("joint count mismatch")
)

// Store is the gesture dictionary. It is built once from configuration and
// is read-only afterwards.
type Store struct {
	byHand     map[core.Hand][]core.GestureTemplate
	jointCount int
}

// NewStore validates and copies templates. All templates must share a joint
// count; names must be non-empty and unique per hand.
func NewStore(templates []core.GestureTemplate) (*Store, error) {
	s := &Store{
		byHand: make(map[core.Hand][]core.GestureTemplate),
	}

	for i, t := range templates {
		if t.Name == core.NoGesture {
			return nil, fmt.Errorf("template %d: %w", i, ErrEmptyName)
		}
		if !t.Hand.Valid() {
			return nil, fmt.Errorf("template %q: %w: %q", t.Name, ErrInvalidHand, t.Hand)
		}
		if len(t.Joints) == 0 {
			return nil, fmt.Errorf("template %q: %w: no joints", t.Name, ErrJointCountMismatch)
		}
		if s.jointCount == 0 {
			s.jointCount = len(t.Joints)
		} else if len(t.Joints) != s.jointCount {
			return nil, fmt.Errorf("template %q: %w: has %d, want %d",
				t.Name, ErrJointCountMismatch, len(t.Joints), s.jointCount)
		}

		joints := make([]core.Position3D, len(t.Joints))
		copy(joints, t.Joints)
		s.byHand[t.Hand] = append(s.byHand[t.Hand], core.GestureTemplate{
			Name:   t.Name,
			Hand:   t.Hand,
			Joints: joints,
		})
	}

	for hand, list := range s.byHand {
		names := lo.Map(list, func(t core.GestureTemplate, _ int) core.GestureName { return t.Name })
		if dups := lo.FindDuplicates(names); len(dups) > 0 {
			return nil, fmt.Errorf("%s hand: %w: %v", hand, ErrDuplicateName, dups)
		}
	}

	return s, nil
}

// Templates returns the templates for a hand in configuration order.
func (s *Store) Templates(hand core.Hand) []core.GestureTemplate {
	return s.byHand[hand]
}

// Names lists the template names for a hand in configuration order.
func (s *Store) Names(hand core.Hand) []core.GestureName {
	return lo.Map(s.byHand[hand], func(t core.GestureTemplate, _ int) core.GestureName { return t.Name })
}

// Has reports whether hand has a template called name.
func (s *Store) Has(hand core.Hand, name core.GestureName) bool {
	return lo.ContainsBy(s.byHand[hand], func(t core.GestureTemplate) bool { return t.Name == name })
}

// JointCount is the number of joints every template carries, 0 when empty.
func (s *Store) JointCount() int {
	return s.jointCount
}

// Len is the total number of templates.
func (s *Store) Len() int {
	return len(s.byHand[core.HandLeft]) + len(s.byHand[core.HandRight])
}
