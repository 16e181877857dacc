// Package snapshot publishes the last computed frame to readers on other
// goroutines (HUD, log context, spectator stream).
package snapshot

import (
	"sync"

	"github.com/airrace/racecore/pkg/core"
)

// Published is what presentation code may read between ticks.
type Published struct {
	Tick      uint64
	Race      core.RaceSnapshot
	Text      string
	Axes      core.ControlAxes
	View      core.ViewMode
	ShowModel bool
	From      core.Position3D
	To        core.Position3D

	// Checkpoints holds one indicator status per course checkpoint:
	// "cleared", "target" or "pending".
	Checkpoints []string
}

// Board holds the latest Published value.
type Board struct {
	mu  sync.RWMutex
	cur Published
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Get returns the latest frame.
func (b *Board) Get() Published {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur
}

// Race returns only the race snapshot. Its signature fits logging.RaceContext.
func (b *Board) Race() core.RaceSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur.Race
}

// Set replaces the latest frame.
func (b *Board) Set(p Published) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = p
}
