// pkg/core/mission.go
package core

import "time"

// Course is the ordered list of checkpoints a race is flown over.
// Index 0 is the start marker.
type Course struct {
	Name        string       `json:"name"`
	Checkpoints []Position3D `json:"checkpoints"`
}

// Race describes one recorded attempt at a course.
type Race struct {
	ID        string    `json:"id"`
	Pilot     string    `json:"pilot"`
	StartTime time.Time `json:"startTime"`
	Course    Course    `json:"course"`
	Countdown float64   `json:"countdown"`
}

// RaceResult is written when a race ends, finished or abandoned.
// Splits holds the elapsed time at each cleared checkpoint, in order.
type RaceResult struct {
	RaceID   string    `json:"raceId"`
	EndTime  time.Time `json:"endTime"`
	Finished bool      `json:"finished"`
	Elapsed  float64   `json:"elapsed"`
	Cleared  int       `json:"cleared"`
	Total    int       `json:"total"`
	Crashes  int       `json:"crashes"`
	Splits   []float64 `json:"splits"`
}

// RaceSnapshot is the read-only view of the race the presentation layer
// formats for the HUD.
type RaceSnapshot struct {
	State     string  `json:"state"`
	Elapsed   float64 `json:"elapsed"`
	Countdown float64 `json:"countdown"`
	Cleared   int     `json:"cleared"`
	Total     int     `json:"total"`
	Target    int     `json:"target"`
}
