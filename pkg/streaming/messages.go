// Package streaming defines the live race protocol spoken over WebSocket
// to spectator and HUD servers.
package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/airrace/racecore/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRace = "start_race"
	TypeEndRace   = "end_race"
	TypeRaceEvent = "race_event"
	TypeTelemetry = "telemetry"
	TypeAck       = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRacePayload carries the race header and its course as WKT.
type StartRacePayload struct {
	Race   *core.Race `json:"race"`
	Course string     `json:"course,omitempty"`
}

// EndRacePayload carries the final result.
type EndRacePayload struct {
	Result *core.RaceResult `json:"result"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Ack builds the acknowledgement for msgType.
func Ack(msgType string) []byte {
	data, _ := json.Marshal(AckMessage{Type: TypeAck, For: msgType})
	return data
}
