package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"LiveEdge/pkg/cache"
	applogger "LiveEdge/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

const teamsBody = `{
	"sports": [{"leagues": [{"teams": [
		{"team": {"id": "12", "abbreviation": "KC", "displayName": "Kansas City Chiefs", "shortDisplayName": "Chiefs", "location": "Kansas City", "slug": "kansas-city-chiefs"}},
		{"team": {"id": "33", "abbreviation": "BAL", "displayName": "Baltimore Ravens", "shortDisplayName": "Ravens", "location": "Baltimore", "slug": "baltimore-ravens"}}
	]}]}]
}`

const scheduleBody = `{
	"events": [{
		"id": "g1",
		"date": "2026-01-11T18:00Z",
		"competitions": [{
			"status": {"type": {"completed": true}},
			"competitors": [
				{"homeAway": "home", "team": {"id": "12", "abbreviation": "KC", "displayName": "Kansas City Chiefs"}, "score": {"value": 27}},
				{"homeAway": "away", "team": {"id": "33", "abbreviation": "BAL", "displayName": "Baltimore Ravens"}, "score": {"value": 20}}
			]
		}]
	}]
}`

const scoreboardBody = `{
	"events": [{
		"id": "g2",
		"date": "2026-01-18T23:30Z",
		"competitions": [{
			"status": {"type": {"completed": false}},
			"competitors": [
				{"homeAway": "home", "team": {"id": "33", "abbreviation": "BAL", "displayName": "Baltimore Ravens"}, "score": "3"},
				{"homeAway": "away", "team": {"id": "12", "abbreviation": "KC", "displayName": "Kansas City Chiefs"}, "score": "7"}
			]
		}]
	}]
}`

func TestTeamsParsesDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(teamsBody))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0, testLogger(t))
	teams, err := c.Teams(context.Background())
	if err != nil {
		t.Fatalf("Teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0].Abbreviation != "KC" || teams[1].Name != "Baltimore Ravens" {
		t.Fatalf("unexpected teams: %+v", teams)
	}
}

func TestTeamsCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(teamsBody))
	}))
	defer srv.Close()

	mc := cache.NewMemoryCache()
	defer mc.Close()
	c := New(srv.URL, time.Second, mc, time.Hour, testLogger(t))

	for i := 0; i < 3; i++ {
		if _, err := c.Teams(context.Background()); err != nil {
			t.Fatalf("Teams: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}
}

func TestTeamScheduleNormalizesGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams/12/schedule" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(scheduleBody))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0, testLogger(t))
	games, err := c.TeamSchedule(context.Background(), "12")
	if err != nil {
		t.Fatalf("TeamSchedule: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	g := games[0]
	if !g.Completed || g.Home.ID != "12" || g.Away.ID != "33" {
		t.Fatalf("unexpected game: %+v", g)
	}
	if g.Home.Score == nil || *g.Home.Score != 27 {
		t.Fatalf("expected home score 27, got %+v", g.Home.Score)
	}
	if g.Date.IsZero() {
		t.Fatal("expected parsed date")
	}
}

func TestScoreboardStringScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scoreboardBody))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0, testLogger(t))
	games, err := c.Scoreboard(context.Background())
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	if games[0].Away.Score == nil || *games[0].Away.Score != 7 {
		t.Fatalf("expected away score 7, got %+v", games[0].Away.Score)
	}
}

func TestTeamStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": {"stats": {"categories": [
				{"name": "scoring", "stats": [
					{"name": "totalPointsPerGame", "value": 28.4},
					{"name": "pointsAgainstPerGame", "value": 19.1}
				]},
				{"name": "offense", "stats": [{"name": "yardsPerGame", "value": 371.2}]}
			]}}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0, testLogger(t))
	stats, err := c.TeamStatistics(context.Background(), "12")
	if err != nil {
		t.Fatalf("TeamStatistics: %v", err)
	}
	if stats.PointsForPerGame == nil || *stats.PointsForPerGame != 28.4 {
		t.Fatalf("unexpected points for: %+v", stats.PointsForPerGame)
	}
	if stats.PointsAgainstPerGame == nil || *stats.PointsAgainstPerGame != 19.1 {
		t.Fatalf("unexpected points against: %+v", stats.PointsAgainstPerGame)
	}
	if stats.YardsPerGame == nil || *stats.YardsPerGame != 371.2 {
		t.Fatalf("unexpected yards: %+v", stats.YardsPerGame)
	}
	if stats.YardsAllowedPerGame != nil {
		t.Fatalf("expected absent stat to stay nil")
	}
}
