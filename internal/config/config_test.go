package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/pkg/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func loadEmpty(t *testing.T) {
	t.Helper()
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"race": { "countdown": 5 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)
	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 5.0, viper.GetFloat64("race.countdown"))
	assert.Equal(t, 3.0, viper.GetFloat64("race.respawnCountdown"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	loadEmpty(t)

	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, "./airracelogs", GetString("logsDir"))
	assert.Equal(t, "localhost", GetString("db.host"))
	assert.Equal(t, "airrace", GetString("db.database"))
	assert.Equal(t, false, GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", GetString("graylog.address"))
	assert.Equal(t, "memory", GetString("storage.type"))
	assert.Equal(t, 10, GetInt("influx.sampleRate"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
	assert.True(t, IsNotFound(err))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AIRRACE_LOGLEVEL", "warn")
	loadEmpty(t)
	assert.Equal(t, "warn", GetString("logLevel"))
}

func TestGetRaceConfig(t *testing.T) {
	loadEmpty(t)

	rc, err := GetRaceConfig()
	require.NoError(t, err)
	assert.Equal(t, RaceConfig{Pilot: "pilot", Countdown: 10, RespawnCountdown: 3}, rc)
}

func TestGetTrackConfig_Default(t *testing.T) {
	loadEmpty(t)

	tc, err := GetTrackConfig()
	require.NoError(t, err)
	course, err := tc.Course()
	require.NoError(t, err)

	assert.Equal(t, "canyon", course.Name)
	require.Len(t, course.Checkpoints, 8)
	assert.Equal(t, core.Position3D{X: -2134.2096, Y: 9.144, Z: -2165.8834}, course.Checkpoints[0])
}

func TestGetTrackConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"track": { "name": "loop", "checkpoints": [[0,0,0],[0,10,100]] }
	}`)))

	tc, err := GetTrackConfig()
	require.NoError(t, err)
	course, err := tc.Course()
	require.NoError(t, err)
	assert.Equal(t, []core.Position3D{{}, {Y: 10, Z: 100}}, course.Checkpoints)
}

func TestTrackConfig_BadCheckpoint(t *testing.T) {
	_, err := TrackConfig{Checkpoints: [][]float64{{1, 2}}}.Course()
	require.ErrorIs(t, err, ErrBadCheckpoint)
}

func TestGetTriggerConfig(t *testing.T) {
	loadEmpty(t)
	tc, err := GetTriggerConfig()
	require.NoError(t, err)
	assert.Equal(t, 9.144, tc.Radius)
}

func TestDefaultGestureDictionary(t *testing.T) {
	loadEmpty(t)

	gc, err := GetGestureConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.02, gc.Threshold)

	templates, err := gc.CoreTemplates()
	require.NoError(t, err)
	store, err := gesture.NewStore(templates)
	require.NoError(t, err)
	assert.Equal(t, len(builtinGestures), store.Len())
	assert.Equal(t, defaultJointCount, store.JointCount())

	cc, err := GetControlsConfig()
	require.NoError(t, err)
	mapper, err := controls.NewMapper(cc.Mapping(), store)
	require.NoError(t, err)
	assert.Equal(t, core.GestureName("peace_R"), mapper.CycleGesture())

	// every built-in template is recognized as itself
	classifier, err := gesture.NewClassifier(store, gc.Threshold)
	require.NoError(t, err)
	for _, tpl := range templates {
		got, err := classifier.Recognize(tpl.Hand, core.LivePose{Joints: tpl.Joints})
		require.NoError(t, err)
		assert.Equal(t, tpl.Name, got)
	}
}

func TestGestureConfig_BadJoint(t *testing.T) {
	gc := GestureConfig{Templates: []TemplateConfig{{Name: "x", Hand: "left", Joints: [][]float64{{1}}}}}
	_, err := gc.CoreTemplates()
	require.ErrorIs(t, err, ErrBadCheckpoint)
}

func TestGetControlsConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"controls": {
			"cycleGesture": "okSign_R",
			"left": [{ "gesture": "palmUp_L", "pitch": 0.5 }],
			"right": [{ "gesture": "fist_R", "throttle": 0.8 }],
			"debugInput": true
		}
	}`)))

	cc, err := GetControlsConfig()
	require.NoError(t, err)
	assert.True(t, cc.DebugInput)

	m := cc.Mapping()
	assert.Equal(t, core.GestureName("okSign_R"), m.CycleGesture)
	assert.Equal(t, controls.LeftAxes{Pitch: 0.5}, m.Left["palmUp_L"])
	assert.Equal(t, controls.RightAxes{Throttle: 0.8}, m.Right["fist_R"])
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	loadEmpty(t)

	cfg, err := GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, 2*time.Second, cfg.WebSocket.ReconnectDelay)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/races.db", "dumpInterval": "10m" }
		}
	}`)))

	sc, err := GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/races.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetStorageConfig_EnvOverridesNestedKey(t *testing.T) {
	t.Setenv("AIRRACE_STORAGE_TYPE", "sqlite")
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", "/tmp/env")
	loadEmpty(t)

	sc, err := GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/env", sc.Memory.OutputDir)
	assert.Equal(t, true, sc.Memory.CompressOutput)
}

func TestGetSimConfig_SetOverridesNestedKey(t *testing.T) {
	loadEmpty(t)
	viper.Set("sim.crashAt", 2)

	sc, err := GetSimConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, sc.CrashAt)
	assert.Equal(t, 50.0, sc.TickRate)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	loadEmpty(t)

	cfg, err := GetOTelConfig()
	require.NoError(t, err)
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "airrace", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetSimConfig_Defaults(t *testing.T) {
	loadEmpty(t)

	sc, err := GetSimConfig()
	require.NoError(t, err)
	assert.Equal(t, 50.0, sc.TickRate)
	assert.Equal(t, -1, sc.CrashAt)
	assert.Equal(t, 10*time.Minute, sc.MaxDuration)
	assert.Equal(t, -1, sc.CaptureAt)
	assert.Empty(t, sc.CapturesOut)
}

func TestGetInfluxAndDBConfig(t *testing.T) {
	loadEmpty(t)

	ic, err := GetInfluxConfig()
	require.NoError(t, err)
	assert.False(t, ic.Enabled)
	assert.Equal(t, "races", ic.Bucket)
	assert.Equal(t, 8086, ic.Port)

	dc, err := GetDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", dc.SSLMode)
	assert.Equal(t, 5432, dc.Port)

	gc, err := GetGraylogConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost:12201", gc.Address)
}

func TestGetMonitorAndUploadConfig(t *testing.T) {
	loadEmpty(t)

	mc, err := GetMonitorConfig()
	require.NoError(t, err)
	assert.Empty(t, mc.StatusFile)
	assert.Equal(t, time.Second, mc.Interval)

	uc, err := GetUploadConfig()
	require.NoError(t, err)
	assert.False(t, uc.Enabled)
	assert.Equal(t, "http://localhost:5000", uc.URL)
	assert.Equal(t, 30*time.Second, uc.Timeout)
}
