package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/snapshot"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/internal/storage/memory"
	"github.com/airrace/racecore/pkg/core"
)

type queuedBackend struct {
	storage.Backend
	pending int
}

func (q *queuedBackend) Pending() int { return q.pending }

func readStatus(t *testing.T, path string) Status {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	return st
}

func TestGetStatus(t *testing.T) {
	board := snapshot.NewBoard()
	board.Set(snapshot.Published{
		Tick:        42,
		Race:        core.RaceSnapshot{State: "playing", Elapsed: 3.5, Cleared: 1, Total: 4, Target: 2},
		Text:        "Cleared 1/4",
		View:        core.ViewCockpit,
		Axes:        core.ControlAxes{Throttle: 1},
		Checkpoints: []string{"cleared", "cleared", "target", "pending", "pending"},
	})

	s := NewService(Dependencies{
		Board: board,
		Backends: []storage.Backend{
			memory.New(config.MemoryConfig{}),
			&queuedBackend{pending: 7},
		},
	})
	st := s.GetStatus()

	assert.Equal(t, uint64(42), st.Tick)
	assert.Equal(t, "playing", st.Race.State)
	assert.Equal(t, "Cleared 1/4", st.Text)
	assert.Equal(t, core.ViewCockpit, st.View)
	assert.Equal(t, 1.0, st.Axes.Throttle)
	assert.Equal(t, []string{"cleared", "cleared", "target", "pending", "pending"}, st.Checkpoints)
	assert.Equal(t, map[string]int{"*monitor.queuedBackend": 7}, st.Backlog)
}

func TestStart_RequiresPath(t *testing.T) {
	s := NewService(Dependencies{Board: snapshot.NewBoard()})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestStartStop_WritesStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	board := snapshot.NewBoard()
	s := NewService(Dependencies{Board: board, StatusPath: path, Interval: 5 * time.Millisecond})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	time.Sleep(20 * time.Millisecond)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no status before the first frame")

	board.Set(snapshot.Published{Tick: 1, Race: core.RaceSnapshot{State: "waiting", Countdown: 9.5}})
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	board.Set(snapshot.Published{Tick: 99, Race: core.RaceSnapshot{State: "finished"}})
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())

	st := readStatus(t, path)
	assert.Equal(t, uint64(99), st.Tick)
	assert.Equal(t, "finished", st.Race.State)
}
