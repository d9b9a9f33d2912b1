package models

import (
	"encoding/json"
	"time"
)

// Envelope kinds recognized on the wire. Unknown kinds are ignored by every
// consumer, never treated as fatal.
const (
	KindTranscript     = "transcript_packet"
	KindSignal         = "signal"
	KindMarket         = "market"
	KindInsight        = "insight"
	KindInsightLegacy  = "nfl_insight"
	KindContext        = "context"
	KindMarketsRefresh = "markets_refresh"
	KindStatus         = "ws_status"
	KindSnapshotReq    = "request_snapshot"
	KindControl        = "control"
)

// Envelope is the canonical wire unit exchanged over the hub. Payload shape
// is fully determined by Type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	TS      time.Time       `json:"ts"`
}

// NewEnvelope wraps payload in an envelope of the given kind, stamped now.
func NewEnvelope(kind string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: kind, Payload: raw, TS: time.Now().UTC()}, nil
}

// IsInsight reports whether the envelope carries a matchup insight, under
// either the current or the legacy kind name.
func (e Envelope) IsInsight() bool {
	return e.Type == KindInsight || e.Type == KindInsightLegacy
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](e Envelope) (T, error) {
	var v T
	err := json.Unmarshal(e.Payload, &v)
	return v, err
}
