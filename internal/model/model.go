// Package model holds the GORM models races are persisted as.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DatabaseModels lists every model AutoMigrate creates.
var DatabaseModels = []any{
	&Race{},
	&RaceEvent{},
	&TelemetrySample{},
}

// Race is one attempt at a course. The result columns stay zero until the
// race ends.
type Race struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Pilot        string         `json:"pilot" gorm:"size:64;index:idx_race_pilot"`
	CourseName   string         `json:"courseName" gorm:"size:128;index:idx_race_course"`
	Course       string         `json:"course" gorm:"type:text"` // WKT LINESTRING Z
	CourseLength float64        `json:"courseLength"`
	Countdown    float64        `json:"countdown"`
	StartTime    time.Time      `json:"startTime" gorm:"index:idx_race_start"`
	EndTime      *time.Time     `json:"endTime"`
	Finished     bool           `json:"finished" gorm:"default:false"`
	Elapsed      float64        `json:"elapsed"`
	Cleared      int            `json:"cleared"`
	Total        int            `json:"total"`
	Crashes      int            `json:"crashes"`
	Splits       datatypes.JSON `json:"splits"`
}

// RaceEvent is a state change or checkpoint pass.
type RaceEvent struct {
	ID              uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	RaceID          uuid.UUID      `json:"raceId" gorm:"type:uuid;index:idx_raceevent_race_id"`
	Time            time.Time      `json:"time"`
	Type            string         `json:"type" gorm:"size:32;index:idx_raceevent_type"`
	Elapsed         float64        `json:"elapsed"`
	CheckpointIndex int            `json:"checkpointIndex"`
	Anchor          datatypes.JSON `json:"anchor"` // respawn pose for crashed events
	View            string         `json:"view" gorm:"size:32"`
	Cue             string         `json:"cue" gorm:"size:16"`
}

// TelemetrySample is one tick of pilot input.
type TelemetrySample struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	RaceID       uuid.UUID `json:"raceId" gorm:"type:uuid;index:idx_telemetry_race_id"`
	Time         time.Time `json:"time"`
	Tick         uint64    `json:"tick" gorm:"index:idx_telemetry_tick"`
	State        string    `json:"state" gorm:"size:16"`
	Elapsed      float64   `json:"elapsed"`
	Target       int       `json:"target"`
	Throttle     float64   `json:"throttle"`
	Pitch        float64   `json:"pitch"`
	Yaw          float64   `json:"yaw"`
	Roll         float64   `json:"roll"`
	LeftGesture  string    `json:"leftGesture" gorm:"size:64"`
	RightGesture string    `json:"rightGesture" gorm:"size:64"`
	Accepting    bool      `json:"accepting"`
}

// raceNamespace derives stable UUIDs for race identifiers that are not
// UUIDs themselves.
var raceNamespace = uuid.MustParse("6f1f2a3c-5b8e-4c1d-9a7e-2d4b8f0c9e11")

// RaceUUID returns id itself when it is a UUID and a name-based UUID
// otherwise, so the same identifier always maps to the same row.
func RaceUUID(id string) uuid.UUID {
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return uuid.NewSHA1(raceNamespace, []byte(id))
}
