// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/airrace/racecore/internal/geo"
	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/pkg/core"
)

// floatsToJSON converts a []float64 to datatypes.JSON, never null.
func floatsToJSON(vals []float64) datatypes.JSON {
	if len(vals) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(vals)
	return datatypes.JSON(data)
}

// CoreToRace converts a core.Race to a GORM model.Race. A course with
// fewer than two checkpoints is stored without geometry.
func CoreToRace(r core.Race) model.Race {
	wkt, _ := geo.CourseWKT(r.Course.Checkpoints)
	return model.Race{
		ID:           model.RaceUUID(r.ID),
		Pilot:        r.Pilot,
		CourseName:   r.Course.Name,
		Course:       wkt,
		CourseLength: geo.CourseLength(r.Course.Checkpoints),
		Countdown:    r.Countdown,
		StartTime:    r.StartTime,
		Total:        max(len(r.Course.Checkpoints)-1, 0),
		Splits:       datatypes.JSON("[]"),
	}
}

// ApplyResult copies the end-of-race columns onto m.
func ApplyResult(m *model.Race, res core.RaceResult) {
	end := res.EndTime
	m.EndTime = &end
	m.Finished = res.Finished
	m.Elapsed = res.Elapsed
	m.Cleared = res.Cleared
	m.Total = res.Total
	m.Crashes = res.Crashes
	m.Splits = floatsToJSON(res.Splits)
}

// CoreToRaceEvent converts a core.RaceEvent to a GORM model.RaceEvent.
func CoreToRaceEvent(e core.RaceEvent) model.RaceEvent {
	out := model.RaceEvent{
		RaceID:          model.RaceUUID(e.RaceID),
		Time:            e.Time,
		Type:            string(e.Type),
		Elapsed:         e.Elapsed,
		CheckpointIndex: e.Index,
		View:            string(e.View),
		Cue:             string(e.Cue),
	}
	if e.Anchor != nil {
		out.Anchor, _ = json.Marshal(e.Anchor)
	}
	return out
}

// CoreToTelemetrySample converts a core.TelemetrySample to a GORM model.
func CoreToTelemetrySample(s core.TelemetrySample) model.TelemetrySample {
	return model.TelemetrySample{
		RaceID:       model.RaceUUID(s.RaceID),
		Time:         s.Time,
		Tick:         s.Tick,
		State:        s.State,
		Elapsed:      s.Elapsed,
		Target:       s.Target,
		Throttle:     s.Axes.Throttle,
		Pitch:        s.Axes.Pitch,
		Yaw:          s.Axes.Yaw,
		Roll:         s.Axes.Roll,
		LeftGesture:  string(s.Left),
		RightGesture: string(s.Right),
		Accepting:    s.Accepting,
	}
}
