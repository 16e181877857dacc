package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airrace/racecore/internal/geo"
	"github.com/airrace/racecore/pkg/core"
)

// ExportVersion is bumped whenever the export layout changes.
const ExportVersion = 1

// RaceExport is the root JSON structure of an exported race.
// Telemetry rows are compact arrays, see telemetryRow.
type RaceExport struct {
	Version      int              `json:"version"`
	RaceID       string           `json:"raceId"`
	Pilot        string           `json:"pilot"`
	CourseName   string           `json:"courseName"`
	Course       string           `json:"course"` // WKT LINESTRING Z
	CourseLength float64          `json:"courseLength"`
	Countdown    float64          `json:"countdown"`
	StartTime    time.Time        `json:"startTime"`
	Result       core.RaceResult  `json:"result"`
	Events       []core.RaceEvent `json:"events"`
	Telemetry    [][]any          `json:"telemetry"`
}

// exportJSON writes the race data to a JSON file, gzipped when configured
func (b *Backend) exportJSON(res *core.RaceResult) error {
	export := b.buildExport(res)

	name := sanitizeName(b.race.Course.Name)
	if name == "" {
		name = "race"
	}
	timestamp := b.race.StartTime.UTC().Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(res *core.RaceResult) RaceExport {
	export := RaceExport{
		Version:      ExportVersion,
		RaceID:       b.race.ID,
		Pilot:        b.race.Pilot,
		CourseName:   b.race.Course.Name,
		CourseLength: geo.CourseLength(b.race.Course.Checkpoints),
		Countdown:    b.race.Countdown,
		StartTime:    b.race.StartTime,
		Events:       make([]core.RaceEvent, 0, len(b.events)),
		Telemetry:    make([][]any, 0, len(b.telemetry)),
	}
	if wkt, err := geo.CourseWKT(b.race.Course.Checkpoints); err == nil {
		export.Course = wkt
	}
	if res != nil {
		export.Result = *res
	}

	export.Events = append(export.Events, b.events...)
	for _, s := range b.telemetry {
		export.Telemetry = append(export.Telemetry, telemetryRow(s))
	}
	return export
}

// telemetryRow lays a sample out as
// [tick, elapsed, state, throttle, pitch, yaw, roll, left, right, accepting].
func telemetryRow(s core.TelemetrySample) []any {
	return []any{
		s.Tick,
		s.Elapsed,
		s.State,
		s.Axes.Throttle,
		s.Axes.Pitch,
		s.Axes.Yaw,
		s.Axes.Roll,
		string(s.Left),
		string(s.Right),
		boolToInt(s.Accepting),
	}
}

func sanitizeName(s string) string {
	return strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(s)
}

func writeJSON(path string, data RaceExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return encodeExport(f, data)
}

func writeGzipJSON(path string, data RaceExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	err = encodeExport(gzip.NewWriter(f), data)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	return err
}

// encodeExport writes data to w and closes it, reporting either failure.
func encodeExport(w io.WriteCloser, data RaceExport) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
