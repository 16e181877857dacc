package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/database"
	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func TestEndRace_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.db")
	b, err := New(Config{DumpPath: path, DumpInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	r := &core.Race{ID: uuid.NewString(), Pilot: "hollywood", StartTime: time.Now().UTC()}
	require.NoError(t, b.StartRace(r))
	require.NoError(t, b.RecordEvent(&core.RaceEvent{RaceID: r.ID, Type: core.EventRaceStarted}))
	require.NoError(t, b.EndRace(&core.RaceResult{RaceID: r.ID, EndTime: time.Now().UTC(), Finished: true}))

	disk, err := database.OpenSqlite(path)
	require.NoError(t, err)
	var stored model.Race
	require.NoError(t, disk.First(&stored).Error)
	assert.Equal(t, "hollywood", stored.Pilot)
	assert.True(t, stored.Finished)

	var events int64
	require.NoError(t, disk.Model(&model.RaceEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Dump())
	assert.NoError(t, b.Close())
}
