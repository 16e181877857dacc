// pkg/core/events.go
package core

import (
	"time"
)

// RaceEventType names something that happened during a race.
type RaceEventType string

const (
	EventRaceReady        RaceEventType = "race_ready"
	EventRaceStarted      RaceEventType = "race_started"
	EventCheckpointPassed RaceEventType = "checkpoint_passed"
	EventCrashed          RaceEventType = "crashed"
	EventRespawned        RaceEventType = "respawned"
	EventRaceFinished     RaceEventType = "race_finished"
	EventViewChanged      RaceEventType = "view_changed"
)

// AudioCue is a named sound the presentation layer may play.
// The core only names the cue; picking and playing the clip is not its job.
type AudioCue string

const (
	CueReady   AudioCue = "ready"
	CueDriving AudioCue = "driving"
	CuePass    AudioCue = "pass"
	CueCrash   AudioCue = "crash"
)

// RaceEvent is emitted by the race controller and the session.
// Index is the checkpoint index for checkpoint_passed, Anchor the respawn
// placement for crashed, View the new camera for view_changed.
type RaceEvent struct {
	RaceID  string        `json:"raceId"`
	Type    RaceEventType `json:"type"`
	Time    time.Time     `json:"time"`
	Elapsed float64       `json:"elapsed"`
	Index   int           `json:"index,omitempty"`
	Anchor  *VehiclePose  `json:"anchor,omitempty"`
	View    ViewMode      `json:"view,omitempty"`
	Cue     AudioCue      `json:"cue,omitempty"`
}

// TelemetrySample is one recorded tick of pilot input.
type TelemetrySample struct {
	RaceID    string      `json:"raceId"`
	Time      time.Time   `json:"time"`
	Tick      uint64      `json:"tick"`
	State     string      `json:"state"`
	Elapsed   float64     `json:"elapsed"`
	Target    int         `json:"target"`
	Axes      ControlAxes `json:"axes"`
	Left      GestureName `json:"left,omitempty"`
	Right     GestureName `json:"right,omitempty"`
	Accepting bool        `json:"accepting"`
}
