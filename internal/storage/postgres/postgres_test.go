package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/database"
	"github.com/airrace/racecore/internal/model"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func TestInit_Unreachable(t *testing.T) {
	b := New(Dependencies{Config: config.DBConfig{
		Host: "127.0.0.1", Port: 1, Username: "u", Password: "p", Database: "races",
	}})
	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestInjectedDB(t *testing.T) {
	db, err := database.OpenSqliteMemory(uuid.NewString())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	r := &core.Race{ID: uuid.NewString(), Pilot: "jester", StartTime: time.Now()}
	require.NoError(t, b.StartRace(r))
	require.NoError(t, b.RecordTelemetry(&core.TelemetrySample{RaceID: r.ID, Tick: 3}))
	require.NoError(t, b.EndRace(&core.RaceResult{RaceID: r.ID, EndTime: time.Now()}))

	var count int64
	require.NoError(t, db.Model(&model.TelemetrySample{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
