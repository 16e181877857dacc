package convert

import (
	"encoding/json"
	"fmt"

	"github.com/airrace/racecore/internal/geo"
	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/pkg/core"
)

// RaceToCore converts a GORM model.Race back to a core.Race.
func RaceToCore(m model.Race) (core.Race, error) {
	r := core.Race{
		ID:        m.ID.String(),
		Pilot:     m.Pilot,
		StartTime: m.StartTime,
		Countdown: m.Countdown,
		Course:    core.Course{Name: m.CourseName},
	}
	if m.Course != "" {
		cps, err := geo.ParseCourseWKT(m.Course)
		if err != nil {
			return r, fmt.Errorf("race %s: %w", m.ID, err)
		}
		r.Course.Checkpoints = cps
	}
	return r, nil
}

// ResultToCore extracts the end-of-race columns. ok is false while the
// race has not ended.
func ResultToCore(m model.Race) (res core.RaceResult, ok bool, err error) {
	if m.EndTime == nil {
		return core.RaceResult{}, false, nil
	}
	res = core.RaceResult{
		RaceID:   m.ID.String(),
		EndTime:  *m.EndTime,
		Finished: m.Finished,
		Elapsed:  m.Elapsed,
		Cleared:  m.Cleared,
		Total:    m.Total,
		Crashes:  m.Crashes,
	}
	if len(m.Splits) > 0 {
		if err := json.Unmarshal(m.Splits, &res.Splits); err != nil {
			return res, true, fmt.Errorf("race %s splits: %w", m.ID, err)
		}
	}
	return res, true, nil
}

// RaceEventToCore converts a GORM model.RaceEvent back to a core.RaceEvent.
func RaceEventToCore(m model.RaceEvent) core.RaceEvent {
	e := core.RaceEvent{
		RaceID:  m.RaceID.String(),
		Type:    core.RaceEventType(m.Type),
		Time:    m.Time,
		Elapsed: m.Elapsed,
		Index:   m.CheckpointIndex,
		View:    core.ViewMode(m.View),
		Cue:     core.AudioCue(m.Cue),
	}
	if len(m.Anchor) > 0 {
		var anchor core.VehiclePose
		if err := json.Unmarshal(m.Anchor, &anchor); err == nil {
			e.Anchor = &anchor
		}
	}
	return e
}

// TelemetrySampleToCore converts a GORM model back to a core.TelemetrySample.
func TelemetrySampleToCore(m model.TelemetrySample) core.TelemetrySample {
	return core.TelemetrySample{
		RaceID:  m.RaceID.String(),
		Time:    m.Time,
		Tick:    m.Tick,
		State:   m.State,
		Elapsed: m.Elapsed,
		Target:  m.Target,
		Axes: core.ControlAxes{
			Throttle: m.Throttle,
			Pitch:    m.Pitch,
			Yaw:      m.Yaw,
			Roll:     m.Roll,
		},
		Left:      core.GestureName(m.LeftGesture),
		Right:     core.GestureName(m.RightGesture),
		Accepting: m.Accepting,
	}
}
