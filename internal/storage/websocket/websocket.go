// Package websocket streams a race live to a spectator or HUD server.
package websocket

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/airrace/racecore/internal/geo"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
	"github.com/airrace/racecore/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL            string
	Secret         string
	ReconnectDelay time.Duration // first reconnect backoff, doubled per attempt
	Logger         *slog.Logger
}

// Backend streams race data over WebSocket. Telemetry and events are
// fire-and-forget; start and end wait for a server ack.
type Backend struct {
	conn   *connection
	cfg    Config
	active atomic.Bool
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger, cfg.ReconnectDelay),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Connected reports whether the socket is currently up.
func (b *Backend) Connected() bool {
	return b.conn.connected()
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartRace sends the race header and waits for server ack.
func (b *Backend) StartRace(r *core.Race) error {
	wkt, _ := geo.CourseWKT(r.Course.Checkpoints)
	data, err := streaming.Marshal(streaming.TypeStartRace, streaming.StartRacePayload{Race: r, Course: wkt})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()
	b.active.Store(true)

	return b.conn.sendAndWait(data, streaming.TypeStartRace, ackTimeout)
}

// EndRace sends end_race and waits for server ack.
func (b *Backend) EndRace(res *core.RaceResult) error {
	if !b.active.Swap(false) {
		return storage.ErrNoRace
	}
	data, err := streaming.Marshal(streaming.TypeEndRace, streaming.EndRacePayload{Result: res})
	if err == nil {
		err = b.conn.sendAndWait(data, streaming.TypeEndRace, ackTimeout)
	}

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

// RecordEvent streams a race event.
func (b *Backend) RecordEvent(e *core.RaceEvent) error {
	if !b.active.Load() {
		return storage.ErrNoRace
	}
	return b.sendEnvelope(streaming.TypeRaceEvent, e)
}

// RecordTelemetry streams a telemetry sample.
func (b *Backend) RecordTelemetry(s *core.TelemetrySample) error {
	if !b.active.Load() {
		return storage.ErrNoRace
	}
	return b.sendEnvelope(streaming.TypeTelemetry, s)
}
