package models

import "time"

// Signal polarity values as they appear on the wire.
const (
	PolaritySupports = "supports_outcome"
	PolarityWeakens  = "weakens_outcome"
	PolarityNeutral  = "neutral"
)

// Signal time horizons.
const (
	HorizonImmediate = "immediate"
	HorizonShort     = "short"
	HorizonMid       = "mid"
	HorizonLong      = "long"
)

// TranscriptPacket is one transcription window produced by an external
// speech-to-text collaborator. Immutable once created.
type TranscriptPacket struct {
	ID            string    `json:"id"`
	WindowStart   time.Time `json:"windowStart"`
	WindowEnd     time.Time `json:"windowEnd"`
	Transcript    string    `json:"transcript"`
	STTConfidence float64   `json:"sttConfidence"`
	VADConfidence float64   `json:"vadConfidence"`
	Source        string    `json:"source"`
}

// Signal is a structured claim extracted from live commentary about an
// entity's effect on an outcome.
type Signal struct {
	ID          string    `json:"id"`
	SignalType  string    `json:"signalType"`
	Entity      string    `json:"entity"`
	Polarity    string    `json:"polarity"`
	Confidence  float64   `json:"confidence"`
	TimeHorizon string    `json:"timeHorizon"`
	Explanation string    `json:"explanation,omitempty"`
	TS          time.Time `json:"ts"`
}

// PageContext is a hint about what the user is currently looking at, emitted
// by the display surface. The core only uses it to derive insight queries.
type PageContext struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Keywords   []string  `json:"keywords"`
	Query      string    `json:"query"`
	Source     string    `json:"source"`
	IsLiveHint bool      `json:"isLiveHint"`
	Timestamp  time.Time `json:"timestamp"`
}
