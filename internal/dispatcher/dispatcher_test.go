package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.record("DEBUG", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.record("INFO", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.record("ERROR", msg, keysAndValues)
}

func (l *testLogger) record(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(":CHECKPOINT:", func(e Event) (any, error) {
		got = e
		return "ok", nil
	})

	result, err := d.Dispatch(Event{Command: ":CHECKPOINT:", Payload: 3})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, got.Payload)
	assert.False(t, got.Timestamp.IsZero(), "timestamp is filled in")
}

func TestDispatcher_KeepsTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var got time.Time
	d.Register(":POSE:LEFT:", func(e Event) (any, error) {
		got = e.Timestamp
		return nil, nil
	})

	_, err := d.Dispatch(Event{Command: ":POSE:LEFT:", Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, ts, got)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(Event{Command: ":UNKNOWN:"})
	require.Error(t, err)
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	d.Register(":TELEMETRY:", func(e Event) (any, error) {
		processed.Add(1)
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: ":TELEMETRY:"})
		require.NoError(t, err)
		assert.Equal(t, "queued", result)
	}

	d.Close()
	assert.Equal(t, int32(3), processed.Load())
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register(":FULL:", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	_, err := d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)
	<-started

	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)
	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)

	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register(":BLOCKING:", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	_, err := d.Dispatch(Event{Command: ":BLOCKING:"})
	require.NoError(t, err)
	<-started
	_, err = d.Dispatch(Event{Command: ":BLOCKING:"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: ":BLOCKING:"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_DispatchAfterClose(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(":TELEMETRY:", func(e Event) (any, error) { return nil, nil }, Buffered(4))

	d.Close()
	d.Close()

	_, err := d.Dispatch(Event{Command: ":TELEMETRY:"})
	require.ErrorIs(t, err, ErrClosed)
}

func TestDispatcher_BufferedErrorIsLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":TELEMETRY:", func(e Event) (any, error) {
		return nil, errors.New("backend down")
	}, Buffered(4))

	_, err := d.Dispatch(Event{Command: ":TELEMETRY:"})
	require.NoError(t, err)
	d.Close()

	msgs := logger.snapshot()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "backend down")
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":KEYS:", func(e Event) (any, error) { return "ok", nil }, Logged())

	_, err := d.Dispatch(Event{Command: ":KEYS:", Payload: struct{}{}})
	require.NoError(t, err)

	msgs := logger.snapshot()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[0], "DEBUG: handling event"))
	assert.True(t, strings.HasPrefix(msgs[1], "DEBUG: event complete"))
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":COLLISION:", func(e Event) (any, error) {
		return nil, errors.New("test error")
	}, Logged())

	_, err := d.Dispatch(Event{Command: ":COLLISION:"})
	require.Error(t, err)

	msgs := logger.snapshot()
	require.NotEmpty(t, msgs)
	assert.True(t, strings.HasPrefix(msgs[len(msgs)-1], "ERROR"))
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(":EXISTS:", func(e Event) (any, error) { return nil, nil })

	assert.True(t, d.HasHandler(":EXISTS:"))
	assert.False(t, d.HasHandler(":NOT_EXISTS:"))
}
