package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "airrace.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. AIRRACE_LOGLEVEL.
const EnvPrefix = "AIRRACE"

// ErrBadCheckpoint is returned for a checkpoint that is not an [x,y,z] triple.
var ErrBadCheckpoint = errors.New("checkpoint must have three coordinates")

// RaceConfig holds race timing settings.
type RaceConfig struct {
	Pilot            string  `json:"pilot" mapstructure:"pilot"`
	Countdown        float64 `json:"countdown" mapstructure:"countdown"`
	RespawnCountdown float64 `json:"respawnCountdown" mapstructure:"respawnCountdown"`
}

// TrackConfig is the course: a name and checkpoints as [x,y,z] meters.
type TrackConfig struct {
	Name        string      `json:"name" mapstructure:"name"`
	Checkpoints [][]float64 `json:"checkpoints" mapstructure:"checkpoints"`
}

// Course converts the configured checkpoints.
func (t TrackConfig) Course() (core.Course, error) {
	out := core.Course{Name: t.Name, Checkpoints: make([]core.Position3D, 0, len(t.Checkpoints))}
	for i, c := range t.Checkpoints {
		if len(c) != 3 {
			return core.Course{}, fmt.Errorf("checkpoint %d: %w, got %d", i, ErrBadCheckpoint, len(c))
		}
		out.Checkpoints = append(out.Checkpoints, core.Position3D{X: c[0], Y: c[1], Z: c[2]})
	}
	return out, nil
}

// TriggerConfig tunes the proximity trigger.
type TriggerConfig struct {
	Radius      float64 `json:"radius" mapstructure:"radius"`
	GroundLevel float64 `json:"groundLevel" mapstructure:"groundLevel"`
}

// TemplateConfig is one gesture template as written in the config file.
type TemplateConfig struct {
	Name   string      `json:"name" mapstructure:"name"`
	Hand   string      `json:"hand" mapstructure:"hand"`
	Joints [][]float64 `json:"joints" mapstructure:"joints"`
}

// GestureConfig holds the dictionary and the per-joint threshold.
type GestureConfig struct {
	Threshold float64          `json:"threshold" mapstructure:"threshold"`
	Templates []TemplateConfig `json:"templates" mapstructure:"templates"`
}

// CoreTemplates converts the configured templates. Joint triples are checked
// here; names, hands and joint counts are checked by the gesture store.
func (g GestureConfig) CoreTemplates() ([]core.GestureTemplate, error) {
	out := make([]core.GestureTemplate, 0, len(g.Templates))
	for _, t := range g.Templates {
		joints := make([]core.Position3D, 0, len(t.Joints))
		for i, j := range t.Joints {
			if len(j) != 3 {
				return nil, fmt.Errorf("template %q joint %d: %w, got %d", t.Name, i, ErrBadCheckpoint, len(j))
			}
			joints = append(joints, core.Position3D{X: j[0], Y: j[1], Z: j[2]})
		}
		out = append(out, core.GestureTemplate{
			Name:   core.GestureName(t.Name),
			Hand:   core.Hand(t.Hand),
			Joints: joints,
		})
	}
	return out, nil
}

// LeftBinding maps a left hand gesture onto pitch, yaw and roll.
type LeftBinding struct {
	Gesture string  `json:"gesture" mapstructure:"gesture"`
	Pitch   float64 `json:"pitch" mapstructure:"pitch"`
	Yaw     float64 `json:"yaw" mapstructure:"yaw"`
	Roll    float64 `json:"roll" mapstructure:"roll"`
}

// RightBinding maps a right hand gesture onto throttle.
type RightBinding struct {
	Gesture  string  `json:"gesture" mapstructure:"gesture"`
	Throttle float64 `json:"throttle" mapstructure:"throttle"`
}

// ControlsConfig holds the gesture bindings. Bindings are lists rather than
// maps because viper lower-cases map keys.
type ControlsConfig struct {
	CycleGesture string         `json:"cycleGesture" mapstructure:"cycleGesture"`
	Left         []LeftBinding  `json:"left" mapstructure:"left"`
	Right        []RightBinding `json:"right" mapstructure:"right"`
	DebugInput   bool           `json:"debugInput" mapstructure:"debugInput"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite backend settings. The database lives in memory
// and is dumped to Path every DumpInterval; an empty Path picks a
// session-stamped file in the memory output directory.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds streaming backend settings.
type WebSocketConfig struct {
	URL            string        `json:"url" mapstructure:"url"`
	Secret         string        `json:"secret" mapstructure:"secret"`
	ReconnectDelay time.Duration `json:"reconnectDelay" mapstructure:"reconnectDelay"`
}

// StorageConfig selects and configures the race recorder.
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       int    `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	SampleRate int    `json:"sampleRate" mapstructure:"sampleRate"`
}

// GraylogConfig holds GELF output settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// MonitorConfig holds the status file settings. An empty StatusFile
// disables the monitor.
type MonitorConfig struct {
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
}

// UploadConfig holds the results server settings.
type UploadConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	URL     string        `json:"url" mapstructure:"url"`
	APIKey  string        `json:"apiKey" mapstructure:"apiKey"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SimConfig drives the headless autopilot.
type SimConfig struct {
	TickRate    float64       `json:"tickRate" mapstructure:"tickRate"`
	Speed       float64       `json:"speed" mapstructure:"speed"`
	TurnRate    float64       `json:"turnRate" mapstructure:"turnRate"`
	CrashAt     int           `json:"crashAt" mapstructure:"crashAt"`
	PoseNoise   float64       `json:"poseNoise" mapstructure:"poseNoise"`
	MaxDuration time.Duration `json:"maxDuration" mapstructure:"maxDuration"`
	Seed        int64         `json:"seed" mapstructure:"seed"`

	// CaptureAt captures both hands once after clearing this many
	// checkpoints; -1 never captures.
	CaptureAt   int    `json:"captureAt" mapstructure:"captureAt"`
	// CapturesOut is where captured templates are written after the run.
	CapturesOut string `json:"capturesOut" mapstructure:"capturesOut"`
}

// SetDefaults registers every default. Load calls it; tests that skip the
// config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./airracelogs")

	viper.SetDefault("race.pilot", "pilot")
	viper.SetDefault("race.countdown", 10.0)
	viper.SetDefault("race.respawnCountdown", 3.0)

	viper.SetDefault("track.name", "canyon")
	viper.SetDefault("track.checkpoints", defaultCheckpoints())

	viper.SetDefault("trigger.radius", 9.144)
	viper.SetDefault("trigger.groundLevel", 0.0)

	viper.SetDefault("gesture.threshold", 0.02)
	viper.SetDefault("gesture.templates", defaultTemplates())

	viper.SetDefault("controls.cycleGesture", "peace_R")
	viper.SetDefault("controls.left", defaultLeftBindings())
	viper.SetDefault("controls.right", defaultRightBindings())
	viper.SetDefault("controls.debugInput", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/ws/race")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.websocket.reconnectDelay", "2s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "airrace")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", 8086)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "airrace")
	viper.SetDefault("influx.bucket", "races")
	viper.SetDefault("influx.sampleRate", 10)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "airrace")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.apiKey", "")
	viper.SetDefault("upload.timeout", "30s")

	viper.SetDefault("sim.tickRate", 50.0)
	viper.SetDefault("sim.speed", 60.0)
	viper.SetDefault("sim.turnRate", 1.5)
	viper.SetDefault("sim.crashAt", -1)
	viper.SetDefault("sim.poseNoise", 0.002)
	viper.SetDefault("sim.maxDuration", "10m")
	viper.SetDefault("sim.seed", 1)
	viper.SetDefault("sim.captureAt", -1)
	viper.SetDefault("sim.capturesOut", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Environment
// variables prefixed with EnvPrefix override file values.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether err means no config file was found.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// unmarshal decodes one section. UnmarshalKey alone misses env and flag
// overrides of nested keys, so every key is resolved into a scratch viper
// first.
func unmarshal[T any](key string) (T, error) {
	var out T
	resolved := viper.New()
	if err := resolved.MergeConfigMap(viper.AllSettings()); err != nil {
		return out, fmt.Errorf("resolving %s section: %w", key, err)
	}
	if err := resolved.UnmarshalKey(key, &out); err != nil {
		return out, fmt.Errorf("decoding %s section: %w", key, err)
	}
	return out, nil
}

// GetRaceConfig returns race timing settings.
func GetRaceConfig() (RaceConfig, error) {
	return unmarshal[RaceConfig]("race")
}

// GetTrackConfig returns the configured course.
func GetTrackConfig() (TrackConfig, error) {
	return unmarshal[TrackConfig]("track")
}

// GetTriggerConfig returns proximity trigger settings.
func GetTriggerConfig() (TriggerConfig, error) {
	return unmarshal[TriggerConfig]("trigger")
}

// GetGestureConfig returns the gesture dictionary settings.
func GetGestureConfig() (GestureConfig, error) {
	return unmarshal[GestureConfig]("gesture")
}

// GetControlsConfig returns the gesture bindings.
func GetControlsConfig() (ControlsConfig, error) {
	return unmarshal[ControlsConfig]("controls")
}

// GetStorageConfig returns storage backend settings.
func GetStorageConfig() (StorageConfig, error) {
	return unmarshal[StorageConfig]("storage")
}

// GetDBConfig returns Postgres connection settings.
func GetDBConfig() (DBConfig, error) {
	return unmarshal[DBConfig]("db")
}

// GetInfluxConfig returns InfluxDB settings.
func GetInfluxConfig() (InfluxConfig, error) {
	return unmarshal[InfluxConfig]("influx")
}

// GetGraylogConfig returns GELF settings.
func GetGraylogConfig() (GraylogConfig, error) {
	return unmarshal[GraylogConfig]("graylog")
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() (OTelConfig, error) {
	return unmarshal[OTelConfig]("otel")
}

// GetMonitorConfig returns status file settings.
func GetMonitorConfig() (MonitorConfig, error) {
	return unmarshal[MonitorConfig]("monitor")
}

// GetUploadConfig returns results server settings.
func GetUploadConfig() (UploadConfig, error) {
	return unmarshal[UploadConfig]("upload")
}

// GetSimConfig returns autopilot settings.
func GetSimConfig() (SimConfig, error) {
	return unmarshal[SimConfig]("sim")
}

// Mapping converts the bindings for controls.NewMapper. A gesture bound twice
// keeps its last binding.
func (c ControlsConfig) Mapping() controls.Mapping {
	m := controls.Mapping{
		Left:         make(map[core.GestureName]controls.LeftAxes, len(c.Left)),
		Right:        make(map[core.GestureName]controls.RightAxes, len(c.Right)),
		CycleGesture: core.GestureName(c.CycleGesture),
	}
	for _, b := range c.Left {
		m.Left[core.GestureName(b.Gesture)] = controls.LeftAxes{Pitch: b.Pitch, Yaw: b.Yaw, Roll: b.Roll}
	}
	for _, b := range c.Right {
		m.Right[core.GestureName(b.Gesture)] = controls.RightAxes{Throttle: b.Throttle}
	}
	return m
}
