package influx

import (
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/airrace/racecore/pkg/core"
)

// Measurement names.
const (
	MeasurementEvent     = "race_event"
	MeasurementTelemetry = "race_input"
	MeasurementResult    = "race_result"
)

// EventPoint converts a race event into a point tagged by race, pilot and course.
func EventPoint(e core.RaceEvent, pilot, course string) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementEvent).
		AddTag("race_id", e.RaceID).
		AddTag("pilot", pilot).
		AddTag("course", course).
		AddTag("type", string(e.Type)).
		AddField("elapsed", e.Elapsed).
		AddField("index", e.Index).
		SetTime(e.Time)
	if e.View != "" {
		p.AddField("view", string(e.View))
	}
	if e.Cue != "" {
		p.AddField("cue", string(e.Cue))
	}
	return p
}

// TelemetryPoint converts a sample into a point carrying the four axes.
func TelemetryPoint(s core.TelemetrySample, pilot string) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementTelemetry).
		AddTag("race_id", s.RaceID).
		AddTag("pilot", pilot).
		AddTag("state", s.State).
		AddField("tick", s.Tick).
		AddField("elapsed", s.Elapsed).
		AddField("target", s.Target).
		AddField("throttle", s.Axes.Throttle).
		AddField("pitch", s.Axes.Pitch).
		AddField("yaw", s.Axes.Yaw).
		AddField("roll", s.Axes.Roll).
		AddField("left", string(s.Left)).
		AddField("right", string(s.Right)).
		AddField("accepting", s.Accepting).
		SetTime(s.Time)
}

// ResultPoint converts the end-of-race result.
func ResultPoint(r core.RaceResult, pilot, course string) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementResult).
		AddTag("race_id", r.RaceID).
		AddTag("pilot", pilot).
		AddTag("course", course).
		AddField("finished", r.Finished).
		AddField("elapsed", r.Elapsed).
		AddField("cleared", r.Cleared).
		AddField("total", r.Total).
		AddField("crashes", r.Crashes).
		SetTime(r.EndTime)
}
