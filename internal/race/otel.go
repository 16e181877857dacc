package race

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/airrace/racecore/internal/race"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics are created from the global meter provider, which is a no-op
// until one is installed.
type metrics struct {
	passed   metric.Int64Counter
	crashes  metric.Int64Counter
	finished metric.Int64Counter
	finishAt metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.passed, err = m.Int64Counter(
		"race.checkpoints.passed",
		metric.WithDescription("Checkpoints cleared"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating checkpoint counter: %w", err)
	}

	out.crashes, err = m.Int64Counter(
		"race.crashes",
		metric.WithDescription("Collisions that triggered a respawn"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating crash counter: %w", err)
	}

	out.finished, err = m.Int64Counter(
		"race.finished",
		metric.WithDescription("Races flown to the last checkpoint"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating finish counter: %w", err)
	}

	out.finishAt, err = m.Float64Histogram(
		"race.finish.elapsed",
		metric.WithDescription("Final race time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating finish histogram: %w", err)
	}

	return &out, nil
}

func (m *metrics) checkpoint() {
	m.passed.Add(context.Background(), 1)
}

func (m *metrics) crash() {
	m.crashes.Add(context.Background(), 1)
}

func (m *metrics) finish(elapsed float64) {
	ctx := context.Background()
	m.finished.Add(ctx, 1)
	m.finishAt.Record(ctx, elapsed)
}
