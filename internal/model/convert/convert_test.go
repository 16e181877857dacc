package convert

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/pkg/core"
)

var start = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

func testRace() core.Race {
	return core.Race{
		ID:        uuid.NewString(),
		Pilot:     "goose",
		StartTime: start,
		Countdown: 10,
		Course: core.Course{
			Name:        "canyon",
			Checkpoints: []core.Position3D{{}, {X: 3, Y: 4}, {X: 3, Y: 4, Z: 12}},
		},
	}
}

func TestRace_RoundTrip(t *testing.T) {
	r := testRace()
	m := CoreToRace(r)

	assert.Equal(t, r.ID, m.ID.String())
	assert.Equal(t, 17.0, m.CourseLength)
	assert.Equal(t, 2, m.Total)
	assert.NotEmpty(t, m.Course)
	assert.Equal(t, datatypes.JSON("[]"), m.Splits)

	back, err := RaceToCore(m)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestCoreToRace_NonUUIDAndEmptyCourse(t *testing.T) {
	m := CoreToRace(core.Race{ID: "race-1"})
	assert.Equal(t, model.RaceUUID("race-1"), m.ID)
	assert.Empty(t, m.Course)
	assert.Zero(t, m.Total)

	back, err := RaceToCore(m)
	require.NoError(t, err)
	assert.Empty(t, back.Course.Checkpoints)
}

func TestRaceToCore_BadWKT(t *testing.T) {
	_, err := RaceToCore(model.Race{Course: "LINESTRING ("})
	assert.Error(t, err)
}

func TestResult_RoundTrip(t *testing.T) {
	m := CoreToRace(testRace())

	_, ok, err := ResultToCore(m)
	require.NoError(t, err)
	assert.False(t, ok)

	res := core.RaceResult{
		RaceID: m.ID.String(), EndTime: start.Add(time.Minute), Finished: true,
		Elapsed: 50.5, Cleared: 2, Total: 2, Crashes: 1, Splits: []float64{20.1, 50.5},
	}
	ApplyResult(&m, res)

	back, ok, err := ResultToCore(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res, back)
}

func TestApplyResult_EmptySplits(t *testing.T) {
	var m model.Race
	ApplyResult(&m, core.RaceResult{})
	assert.Equal(t, datatypes.JSON("[]"), m.Splits)

	back, ok, err := ResultToCore(m)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, back.Splits)
}

func TestRaceEvent_RoundTrip(t *testing.T) {
	id := uuid.NewString()
	e := core.RaceEvent{
		RaceID:  id,
		Type:    core.EventCrashed,
		Time:    start,
		Elapsed: 12.25,
		Anchor: &core.VehiclePose{
			Position: core.Position3D{X: 1, Y: 2, Z: 3},
			Forward:  core.Position3D{X: 1},
		},
		Cue: core.CueCrash,
	}
	m := CoreToRaceEvent(e)
	assert.Equal(t, "crashed", m.Type)
	assert.NotEmpty(t, m.Anchor)

	assert.Equal(t, e, RaceEventToCore(m))
}

func TestRaceEvent_NoAnchor(t *testing.T) {
	e := core.RaceEvent{RaceID: uuid.NewString(), Type: core.EventViewChanged, View: core.ViewCockpit, Time: start}
	m := CoreToRaceEvent(e)
	assert.Empty(t, m.Anchor)
	assert.Equal(t, e, RaceEventToCore(m))
}

func TestTelemetrySample_RoundTrip(t *testing.T) {
	s := core.TelemetrySample{
		RaceID: uuid.NewString(), Time: start, Tick: 99, State: "playing", Elapsed: 1.98, Target: 3,
		Axes: core.ControlAxes{Throttle: 1, Pitch: 0.5, Yaw: -1, Roll: 0.25},
		Left: "palmUp_L", Right: "fist_R", Accepting: true,
	}
	m := CoreToTelemetrySample(s)
	assert.Equal(t, 0.5, m.Pitch)
	assert.Equal(t, "fist_R", m.RightGesture)
	assert.Equal(t, s, TelemetrySampleToCore(m))
}
