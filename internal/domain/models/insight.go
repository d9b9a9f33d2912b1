package models

import "time"

// LeanTooClose marks a matchup where neither side has a meaningful edge.
const LeanTooClose = "too_close"

// Team is one competing party resolved from the external team directory.
type Team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Location     string `json:"location"`
	Slug         string `json:"slug,omitempty"`
}

// Competitor is one side of a completed or scheduled game. Score is nil when
// the provider reported no usable value.
type Competitor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Score        *int   `json:"score"`
}

// Game is a normalized schedule or scoreboard event.
type Game struct {
	ID        string     `json:"id"`
	Date      time.Time  `json:"date"`
	Completed bool       `json:"completed"`
	Home      Competitor `json:"home"`
	Away      Competitor `json:"away"`
}

// HasValidScores reports whether both sides carry real scores. A 0-0 line is
// treated as a provider placeholder, not a result.
func (g Game) HasValidScores() bool {
	if g.Home.Score == nil || g.Away.Score == nil {
		return false
	}
	return !(*g.Home.Score == 0 && *g.Away.Score == 0)
}

// Involves reports whether teamID played in the game.
func (g Game) Involves(teamID string) bool {
	return g.Home.ID == teamID || g.Away.ID == teamID
}

// DedupeKey identifies a game across the schedule and scoreboard feeds.
func (g Game) DedupeKey() string {
	if g.ID != "" {
		return g.ID
	}
	return g.Date.UTC().Format(time.RFC3339) + "-" + g.Home.ID + "-" + g.Away.ID
}

// RecentForm summarizes a team's last few completed games.
type RecentForm struct {
	Games        int           `json:"games"`
	Wins         int           `json:"wins"`
	Losses       int           `json:"losses"`
	AvgPointDiff float64       `json:"avgPointDiff"`
	Recent       []RecentEntry `json:"recent,omitempty"`
}

// RecentEntry is one line of a team's recent results. Date is the game day
// as YYYY-MM-DD.
type RecentEntry struct {
	Date     string `json:"date"`
	Opponent string `json:"opponent"`
	Result   string `json:"result"`
	Score    string `json:"score"`
}

// TeamStats are per-game aggregates pulled from the statistics endpoint.
// Nil pointer fields mean the provider did not report that stat.
type TeamStats struct {
	PointsForPerGame     *float64 `json:"pointsForPerGame"`
	PointsAgainstPerGame *float64 `json:"pointsAgainstPerGame"`
	YardsPerGame         *float64 `json:"yardsPerGame"`
	YardsAllowedPerGame  *float64 `json:"yardsAllowedPerGame"`
}

// LastMeeting records the most recent head-to-head result. Winner is "Tied"
// when the game ended level. Date is YYYY-MM-DD.
type LastMeeting struct {
	Date   string `json:"date"`
	Winner string `json:"winner"`
	Score  string `json:"score"`
}

// HeadToHead tallies results between exactly the two resolved teams, keyed by
// team abbreviation.
type HeadToHead struct {
	Games       int            `json:"games"`
	Wins        map[string]int `json:"wins"`
	LastMeeting *LastMeeting   `json:"lastMeeting,omitempty"`
}

// Lean is the directional pick between the two teams. Team holds an
// abbreviation or LeanTooClose.
type Lean struct {
	Team       string  `json:"team"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Narrative is an optional free-text enrichment from the language-model
// collaborator. Absent whenever the call fails or no credential is set.
type Narrative struct {
	Summary     string    `json:"summary"`
	KeyFactors  []string  `json:"keyFactors,omitempty"`
	Caution     string    `json:"caution,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// MatchupInsight is the structured analysis of a two-team matchup, keyed by
// the query that produced it. RecentForm and TeamStats are keyed by team
// abbreviation.
type MatchupInsight struct {
	Query       string                 `json:"query"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Source      string                 `json:"source"`
	Teams       [2]Team                `json:"teams"`
	RecentForm  map[string]RecentForm  `json:"recent"`
	TeamStats   map[string]*TeamStats  `json:"teamStats,omitempty"`
	HeadToHead  HeadToHead             `json:"headToHead"`
	Lean        Lean                   `json:"lean"`
	Narrative   *Narrative             `json:"narrative,omitempty"`
}
