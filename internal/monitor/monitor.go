// Package monitor periodically writes the live race status to a file that
// overlays and operators can poll.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/airrace/racecore/internal/logging"
	"github.com/airrace/racecore/internal/snapshot"
	"github.com/airrace/racecore/internal/storage"
	"github.com/airrace/racecore/pkg/core"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Board      *snapshot.Board
	Backends   []storage.Backend
	LogManager *logging.SlogManager
	StatusPath string
	Interval   time.Duration
}

// Status is one line of the status file.
type Status struct {
	Time        time.Time         `json:"time"`
	Tick        uint64            `json:"tick"`
	Race        core.RaceSnapshot `json:"race"`
	Text        string            `json:"text"`
	View        core.ViewMode     `json:"view"`
	Axes        core.ControlAxes  `json:"axes"`
	Checkpoints []string          `json:"checkpoints,omitempty"`
	Backlog     map[string]int    `json:"backlog,omitempty"`
}

// pender is implemented by backends that queue rows before writing them.
type pender interface {
	Pending() int
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status.
func (s *Service) GetStatus() Status {
	p := s.deps.Board.Get()
	st := Status{
		Time:        time.Now().UTC(),
		Tick:        p.Tick,
		Race:        p.Race,
		Text:        p.Text,
		View:        p.View,
		Axes:        p.Axes,
		Checkpoints: p.Checkpoints,
	}
	for _, b := range s.deps.Backends {
		if q, ok := b.(pender); ok {
			if st.Backlog == nil {
				st.Backlog = make(map[string]int)
			}
			st.Backlog[fmt.Sprintf("%T", b)] = q.Pending()
		}
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if s.deps.Board == nil || s.deps.StatusPath == "" {
		return fmt.Errorf("monitor: board and status path are required")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stopChan, s.done)
	return nil
}

func (s *Service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logger := s.deps.LogManager.Logger()
	logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// nothing to report before the first frame
			if s.deps.Board.Get().Tick == 0 {
				continue
			}
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// Stop stops the status monitor and writes a final status.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	if err := s.WriteStatus(); err != nil {
		s.deps.LogManager.Logger().Error("Error writing final status", "error", err)
	}
}
