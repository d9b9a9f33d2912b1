package usecase

import (
	"sync"

	"LiveEdge/internal/domain/models"
)

// InsightStore holds the most recent matchup insight for API reads.
type InsightStore struct {
	mu     sync.RWMutex
	latest *models.MatchupInsight
}

// NewInsightStore creates an empty store.
func NewInsightStore() *InsightStore {
	return &InsightStore{}
}

// Set replaces the latest insight.
func (s *InsightStore) Set(ins *models.MatchupInsight) {
	s.mu.Lock()
	s.latest = ins
	s.mu.Unlock()
}

// Latest returns the most recent insight, or nil.
func (s *InsightStore) Latest() *models.MatchupInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
