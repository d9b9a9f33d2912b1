package models

import (
	"strings"
	"time"
)

// MarketCandidate is a tradable prediction-market contract matched to one or
// more commentary signals. Outcomes and OutcomePrices are parallel arrays when
// both are present.
type MarketCandidate struct {
	ID                   string    `json:"id"`
	Slug                 string    `json:"slug,omitempty"`
	Title                string    `json:"title"`
	URL                  string    `json:"url"`
	Probability          float64   `json:"probability"`
	VolumeUSD            float64   `json:"volumeUsd"`
	LiquidityUSD         float64   `json:"liquidityUsd"`
	TimeRemainingMinutes int       `json:"timeRemainingMinutes"`
	MatchedSignals       []string  `json:"matchedSignals"`
	Outcomes             []string  `json:"outcomes,omitempty"`
	OutcomePrices        []float64 `json:"outcomePrices,omitempty"`
	TS                   time.Time `json:"ts"`
}

// Key returns the identity used for deduplication: id, then slug, then title.
func (m MarketCandidate) Key() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Slug != "" {
		return m.Slug
	}
	return m.Title
}

// ResolveProbability derives a single implied probability from a candidate.
// Precedence: the "yes"-labelled outcome price, then the longest outcome label
// found in the title, then index 0, then the raw probability field, then 0.5.
// The result is always clamped to [0,1].
func ResolveProbability(m MarketCandidate) float64 {
	if len(m.Outcomes) > 0 && len(m.OutcomePrices) == len(m.Outcomes) {
		for i, outcome := range m.Outcomes {
			if strings.EqualFold(strings.TrimSpace(outcome), "yes") {
				return ClampProbability(m.OutcomePrices[i])
			}
		}
		title := strings.ToLower(m.Title)
		bestIndex := -1
		bestLen := 0
		for i, outcome := range m.Outcomes {
			text := strings.ToLower(strings.TrimSpace(outcome))
			if text != "" && strings.Contains(title, text) && len(text) > bestLen {
				bestIndex = i
				bestLen = len(text)
			}
		}
		if bestIndex >= 0 {
			return ClampProbability(m.OutcomePrices[bestIndex])
		}
		return ClampProbability(m.OutcomePrices[0])
	}
	if m.Probability > 0 {
		return ClampProbability(m.Probability)
	}
	return 0.5
}

// ClampProbability bounds a probability to [0,1].
func ClampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// DedupeMarkets collapses a list to at most one candidate per Key, keeping the
// first-seen entry and preserving order.
func DedupeMarkets(markets []MarketCandidate) []MarketCandidate {
	seen := make(map[string]struct{}, len(markets))
	out := make([]MarketCandidate, 0, len(markets))
	for _, m := range markets {
		key := m.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
