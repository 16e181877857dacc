// Package controls turns recognized gestures and debug keys into flight
// control axes.
package controls

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/pkg/core"
)

var (
	// ErrUnknownGesture is returned when a mapping names a gesture that is
	// not in the dictionary for that hand.
	ErrUnknownGesture = errors.New("mapped gesture not in dictionary")
	// ErrContributionRange is returned for an axis contribution outside [-1, 1].
	ErrContributionRange = errors.New("axis contribution out of range")
)

// LeftAxes is what one left-hand gesture contributes.
type LeftAxes struct {
	Pitch float64 `json:"pitch" mapstructure:"pitch"`
	Yaw   float64 `json:"yaw" mapstructure:"yaw"`
	Roll  float64 `json:"roll" mapstructure:"roll"`
}

// RightAxes is what one right-hand gesture contributes.
type RightAxes struct {
	Throttle float64 `json:"throttle" mapstructure:"throttle"`
}

// Mapping is the configured gesture to axis table.
type Mapping struct {
	Left         map[core.GestureName]LeftAxes  `json:"left" mapstructure:"left"`
	Right        map[core.GestureName]RightAxes `json:"right" mapstructure:"right"`
	CycleGesture core.GestureName               `json:"cycleGesture" mapstructure:"cycleGesture"`
}

// Unmapped is a recognized gesture that has no entry in the mapping.
type Unmapped struct {
	Hand core.Hand
	Name core.GestureName
}

// MapResult is one tick of mapper output. PrevRight must be handed back on
// the next call.
type MapResult struct {
	Axes      core.ControlAxes
	PrevRight core.GestureName
	ViewCycle bool
	Unmapped  []Unmapped
}

// Mapper applies a validated Mapping. It keeps no history of its own.
type Mapper struct {
	left  map[core.GestureName]LeftAxes
	right map[core.GestureName]RightAxes
	cycle core.GestureName
}

// NewMapper validates m against the gesture dictionary.
func NewMapper(m Mapping, store *gesture.Store) (*Mapper, error) {
	if store == nil {
		return nil, errors.New("nil gesture store")
	}

	for _, name := range sortedKeys(m.Left) {
		if !store.Has(core.HandLeft, name) {
			return nil, fmt.Errorf("left %q: %w", name, ErrUnknownGesture)
		}
		a := m.Left[name]
		if !inUnit(a.Pitch, a.Yaw, a.Roll) {
			return nil, fmt.Errorf("left %q: %w: %+v", name, ErrContributionRange, a)
		}
	}
	for _, name := range sortedKeys(m.Right) {
		if !store.Has(core.HandRight, name) {
			return nil, fmt.Errorf("right %q: %w", name, ErrUnknownGesture)
		}
		if a := m.Right[name]; !inUnit(a.Throttle) {
			return nil, fmt.Errorf("right %q: %w: %+v", name, ErrContributionRange, a)
		}
	}
	if m.CycleGesture != core.NoGesture && !store.Has(core.HandRight, m.CycleGesture) {
		return nil, fmt.Errorf("cycle gesture %q: %w", m.CycleGesture, ErrUnknownGesture)
	}

	return &Mapper{
		left:  lo.Assign(m.Left),
		right: lo.Assign(m.Right),
		cycle: m.CycleGesture,
	}, nil
}

// Map combines both hands into one set of axes.
//
// When neither hand produced a gesture the axes drop to zero and prevRight is
// returned untouched. The view cycle fires on the tick the right hand enters
// the cycle gesture, not while it is held.
func (m *Mapper) Map(left, right, prevRight core.GestureName) MapResult {
	if left == core.NoGesture && right == core.NoGesture {
		return MapResult{PrevRight: prevRight}
	}

	var res MapResult

	if left != core.NoGesture {
		if a, ok := m.left[left]; ok {
			res.Axes.Pitch = a.Pitch
			res.Axes.Yaw = a.Yaw
			res.Axes.Roll = a.Roll
		} else {
			res.Unmapped = append(res.Unmapped, Unmapped{Hand: core.HandLeft, Name: left})
		}
	}

	if right != core.NoGesture {
		a, ok := m.right[right]
		if ok {
			res.Axes.Throttle = a.Throttle
		} else if right != m.cycle {
			res.Unmapped = append(res.Unmapped, Unmapped{Hand: core.HandRight, Name: right})
		}
	}

	res.ViewCycle = m.cycle != core.NoGesture && right == m.cycle && prevRight != m.cycle
	res.PrevRight = right
	return res
}

// MapKeys maps the debug keyboard onto the same axes. Opposing keys cancel.
func (m *Mapper) MapKeys(k core.KeyState) (core.ControlAxes, bool) {
	return core.ControlAxes{
		Throttle: keyAxis(k.ThrottleUp, k.ThrottleDown),
		Pitch:    keyAxis(k.PitchUp, k.PitchDown),
		Yaw:      keyAxis(k.YawRight, k.YawLeft),
		Roll:     keyAxis(k.RollRight, k.RollLeft),
	}, k.CycleView
}

// CycleGesture is the right-hand gesture that cycles views.
func (m *Mapper) CycleGesture() core.GestureName {
	return m.cycle
}

func keyAxis(pos, neg bool) float64 {
	var v float64
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func inUnit(vals ...float64) bool {
	return lo.EveryBy(vals, func(v float64) bool { return v >= -1 && v <= 1 })
}

// sortedKeys keeps validation errors stable across runs.
func sortedKeys[V any](m map[core.GestureName]V) []core.GestureName {
	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
