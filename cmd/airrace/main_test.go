package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/internal/monitor"
	"github.com/airrace/racecore/pkg/core"
)

const straightCourse = `{
	"race": { "pilot": "bot", "countdown": 0.5, "respawnCountdown": 0.5 },
	"track": { "name": "straight", "checkpoints": [[0, 50, 0], [200, 50, 0], [400, 50, 0]] },
	"sim": { "speed": 100 },
	"storage": { "memory": { "compressOutput": false } }
}`

func writeConfigDir(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Cleanup(viper.Reset)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSimulate_FinishesAndExports(t *testing.T) {
	dir := writeConfigDir(t, straightCourse)
	recordings := filepath.Join(t.TempDir(), "recordings")
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", recordings)

	out, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", filepath.Join(t.TempDir(), "logs"),
		"simulate", "--pilot", "ace")
	require.NoError(t, err)

	assert.Contains(t, out, "finished on straight")
	assert.Contains(t, out, "cleared   2/2")
	assert.Contains(t, out, "crashes   0")

	files, err := filepath.Glob(filepath.Join(recordings, "straight_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, out, files[0])

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pilot":"ace"`)
}

func TestSimulate_StatusFileAndUpload(t *testing.T) {
	var uploads []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/races" {
			if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				uploads = append(uploads, r.FormValue("pilot")+":"+r.FormValue("finished"))
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := writeConfigDir(t, straightCourse)
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", t.TempDir())
	t.Setenv("AIRRACE_UPLOAD_URL", server.URL)
	status := filepath.Join(t.TempDir(), "status.json")

	out, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", t.TempDir(),
		"simulate", "--pilot", "ace", "--status-file", status, "--upload")
	require.NoError(t, err)

	assert.Equal(t, []string{"ace:true"}, uploads)
	assert.Contains(t, out, "uploaded")

	data, err := os.ReadFile(status)
	require.NoError(t, err)
	var st monitor.Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "finished", st.Race.State)
	assert.Positive(t, st.Tick)
}

func TestSimulate_ScriptedCrash(t *testing.T) {
	dir := writeConfigDir(t, straightCourse)
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", t.TempDir())

	out, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", t.TempDir(),
		"simulate", "--crash-at", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "crashes   1")
	assert.Contains(t, out, "finished")
}

func TestSimulate_WritesCaptures(t *testing.T) {
	dir := writeConfigDir(t, straightCourse)
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", t.TempDir())
	capturesFile := filepath.Join(t.TempDir(), "captured.json")

	out, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", t.TempDir(),
		"simulate", "--capture-at", "1", "--captures-out", capturesFile)
	require.NoError(t, err)
	assert.Contains(t, out, "captures  "+capturesFile+" (2)")

	f, err := os.Open(capturesFile)
	require.NoError(t, err)
	defer f.Close()
	templates, err := gesture.ReadTemplates(f)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, core.HandLeft, templates[0].Hand)
	assert.Equal(t, core.HandRight, templates[1].Hand)
	assert.Equal(t, gesture.CapturedName, templates[0].Name)
}

func TestSimulate_CapturesOutBadPath(t *testing.T) {
	dir := writeConfigDir(t, straightCourse)
	t.Setenv("AIRRACE_STORAGE_MEMORY_OUTPUTDIR", t.TempDir())

	_, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", t.TempDir(),
		"simulate", "--captures-out", filepath.Join(t.TempDir(), "missing", "captured.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating captures file")
}

func TestSimulate_UnknownStorage(t *testing.T) {
	dir := writeConfigDir(t, straightCourse)
	_, _, err := execute(t,
		"--config-dir", dir,
		"--logs-dir", t.TempDir(),
		"--storage", "tape",
		"simulate")
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestSimulate_BadCourse(t *testing.T) {
	dir := writeConfigDir(t, `{ "track": { "checkpoints": [[0, 50, 0]] } }`)
	_, _, err := execute(t, "--config-dir", dir, "--logs-dir", t.TempDir(), "simulate")
	require.Error(t, err)
}

func TestRoot_MissingConfigUsesDefaults(t *testing.T) {
	out, errOut, err := execute(t, "--config-dir", t.TempDir(), "templates")
	require.NoError(t, err)
	assert.Contains(t, errOut, "using defaults")
	assert.Contains(t, out, "templates")
}

func TestTemplates_ListsBindings(t *testing.T) {
	out, _, err := execute(t, "--config-dir", t.TempDir(), "templates")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "left:")
	assert.Contains(t, lines, "right:")
	assert.Contains(t, out, "cycle view")
	assert.Contains(t, out, "throttle")
	assert.Contains(t, out, "pitch")
}

func TestTemplates_FileMissingBoundGesture(t *testing.T) {
	file := filepath.Join(t.TempDir(), "captured.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"name": "captured", "hand": "left", "joints": [{"x": 0, "y": 1, "z": 0}]}
	]`), 0o644))

	_, _, err := execute(t, "--config-dir", t.TempDir(), "templates", "--file", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bindings")
}

func TestTemplates_FileNotFound(t *testing.T) {
	_, _, err := execute(t, "--config-dir", t.TempDir(), "templates", "--file", "/nonexistent.json")
	require.Error(t, err)
}
