package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{"basic path", "airracelogs", filepath.Join("airracelogs", "airrace.20260212_213836.log")},
		{"relative path with dot", "./airracelogs", filepath.Join(".", "airracelogs", "airrace.20260212_213836.log")},
		{"absolute path", filepath.Join("/var", "log", "airrace"), filepath.Join("/var", "log", "airrace", "airrace.20260212_213836.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "airrace", sessionStart))
		})
	}
}

func TestLogFilePath_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2026, 2, 12, 23, 0, 0, 0, loc)
	assert.Equal(t, filepath.Join("logs", "airrace.20260212_210000.log"), LogFilePath("logs", "airrace", start))
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f, err := OpenLogFile(dir, "airrace", time.Now())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	_, err = f.WriteString("line\n")
	require.NoError(t, err)

	info, err := os.Stat(f.Name())
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
