package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
	"github.com/airrace/racecore/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secrets  []string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

// testServer upgrades to WebSocket, records received messages and acks
// start_race/end_race. When dropFirst is set the first connection is
// closed right after its start_race ack.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.mu.Lock()
		ml.secrets = append(ml.secrets, r.URL.Query().Get("secret"))
		ml.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartRace || env.Type == streaming.TypeEndRace {
				if err := c.WriteMessage(ws.TextMessage, streaming.Ack(env.Type)); err != nil {
					return
				}
				if dropFirst && n == 1 && env.Type == streaming.TypeStartRace {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, ml
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testRace() *core.Race {
	return &core.Race{
		ID:    "race-1",
		Pilot: "rooster",
		Course: core.Course{
			Name:        "canyon",
			Checkpoints: []core.Position3D{{}, {X: 10}},
		},
	}
}

func TestStartAndEndRace(t *testing.T) {
	srv, ml := testServer(t, false)

	b := New(Config{URL: wsURL(srv), Secret: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRace(testRace()))
	require.NoError(t, b.EndRace(&core.RaceResult{RaceID: "race-1", Finished: true}))

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartRace, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndRace, msgs[len(msgs)-1].Type)

	var start streaming.StartRacePayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, "rooster", start.Race.Pilot)
	assert.Contains(t, start.Course, "LINESTRING")

	ml.mu.Lock()
	assert.Equal(t, []string{"test"}, ml.secrets)
	ml.mu.Unlock()
}

func TestRecordBeforeStart(t *testing.T) {
	srv, _ := testServer(t, false)

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.RecordEvent(&core.RaceEvent{}), storage.ErrNoRace)
	assert.ErrorIs(t, b.RecordTelemetry(&core.TelemetrySample{}), storage.ErrNoRace)
	assert.ErrorIs(t, b.EndRace(&core.RaceResult{}), storage.ErrNoRace)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t, false)

	b := New(Config{URL: wsURL(srv), Secret: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRace(testRace()))
	require.NoError(t, b.RecordEvent(&core.RaceEvent{Type: core.EventRaceStarted}))
	require.NoError(t, b.RecordEvent(&core.RaceEvent{Type: core.EventCheckpointPassed, Index: 1}))
	require.NoError(t, b.RecordTelemetry(&core.TelemetrySample{Tick: 1}))
	require.NoError(t, b.EndRace(&core.RaceResult{}))

	// end_race is acked after everything queued before it was read
	assert.Equal(t, 1, ml.count(streaming.TypeStartRace))
	assert.Equal(t, 2, ml.count(streaming.TypeRaceEvent))
	assert.Equal(t, 1, ml.count(streaming.TypeTelemetry))
	assert.Equal(t, 1, ml.count(streaming.TypeEndRace))
}

func TestReconnectReplaysStart(t *testing.T) {
	srv, ml := testServer(t, true)

	b := New(Config{URL: wsURL(srv), ReconnectDelay: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRace(testRace()))

	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartRace) == 2 && b.Connected()
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, b.RecordTelemetry(&core.TelemetrySample{Tick: 9}))
	require.NoError(t, b.EndRace(&core.RaceResult{}))
	assert.Equal(t, 1, ml.count(streaming.TypeTelemetry))
}

func TestInit_BadURL(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/race"})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}
