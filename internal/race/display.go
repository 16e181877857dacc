package race

import (
	"fmt"
	"strings"

	"github.com/airrace/racecore/pkg/core"
)

// FormatClock renders seconds as mm:ss.s. Tenths are truncated so the
// seconds field never shows 60.0, and negative or non-finite input shows
// as zero.
func FormatClock(seconds float64) string {
	if !finiteNonNegative(seconds) {
		seconds = 0
	}
	// epsilon absorbs accumulated float error from summing frame deltas
	tenths := int64(seconds*10 + 1e-9)
	minutes := tenths / 600
	rest := float64(tenths%600) / 10
	return fmt.Sprintf("%02d:%04.1f", minutes, rest)
}

// FormatCountdown renders a countdown with one decimal.
func FormatCountdown(seconds float64) string {
	if !finiteNonNegative(seconds) {
		seconds = 0
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// DisplayText builds the HUD text for a snapshot.
func DisplayText(s core.RaceSnapshot) string {
	var b strings.Builder
	switch Kind(s.State) {
	case KindWaiting:
		b.WriteString("Ready! ")
		b.WriteString(FormatCountdown(s.Countdown))

	case KindPlaying:
		fmt.Fprintf(&b, "Cleared %d/%d\n", s.Cleared, s.Total)
		b.WriteString(FormatClock(s.Elapsed))

	case KindRespawning:
		b.WriteString("Crashed! Respawning in ")
		b.WriteString(FormatCountdown(s.Countdown))
		fmt.Fprintf(&b, "\nCleared %d/%d\n", s.Cleared, s.Total)
		b.WriteString(FormatClock(s.Elapsed))

	case KindFinished:
		b.WriteString("Finished! ")
		b.WriteString(FormatClock(s.Elapsed))
	}
	return b.String()
}
