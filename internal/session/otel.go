package session

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/airrace/racecore/pkg/core"
)

const instrumentationName = "github.com/airrace/racecore/internal/session"

type metrics struct {
	gestures metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	gestures, err := otel.Meter(instrumentationName).Int64Counter(
		"gesture.recognized",
		metric.WithDescription("Classified poses by hand and gesture"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gesture counter: %w", err)
	}
	return &metrics{gestures: gestures}, nil
}

func (m *metrics) recognized(hand core.Hand, name core.GestureName) {
	if name == core.NoGesture {
		name = "none"
	}
	m.gestures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("hand", string(hand)),
		attribute.String("gesture", string(name)),
	))
}
