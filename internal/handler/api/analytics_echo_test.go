package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LiveEdge/internal/analytics"
	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/usecase"
	applogger "LiveEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopPublisher struct{}

func (nopPublisher) PublishPayload(kind string, payload interface{}) error { return nil }

func setup(t *testing.T) (*echo.Echo, *usecase.Tracker, *usecase.InsightStore) {
	t.Helper()
	engine := analytics.NewEngine(analytics.Options{})
	tracker := usecase.NewTracker(nil, engine, nopPublisher{}, time.Hour, testLogger(t))
	store := usecase.NewInsightStore()
	h := NewAnalyticsEchoHandler(testLogger(t), tracker, engine, store)

	e := echo.New()
	h.RegisterRoutes(e)
	return e, tracker, store
}

func do(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _, _ := setup(t)
	rec := do(e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMarketsSnapshot(t *testing.T) {
	e, tracker, _ := setup(t)
	tracker.Track(models.MarketCandidate{ID: "m1", Title: "A", VolumeUSD: 100})
	tracker.Track(models.MarketCandidate{ID: "m2", Title: "B", VolumeUSD: 900})

	rec := do(e, "/api/markets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Rows  []models.MarketCandidate `json:"rows"`
			Total int64                    `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 2 || len(body.Data.Rows) != 2 {
		t.Fatalf("unexpected body: %+v", body.Data)
	}
	if body.Data.Rows[0].ID != "m2" {
		t.Fatalf("expected volume ranking, got %+v", body.Data.Rows)
	}
}

func TestAnalyticsRequiresMarket(t *testing.T) {
	e, _, _ := setup(t)
	rec := do(e, "/api/analytics")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("expected embedded 400 status, got %d", body.Status)
	}
}

func TestAnalyticsUnknownMarket(t *testing.T) {
	e, _, _ := setup(t)
	rec := do(e, "/api/analytics?market=ghost")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusNotFound {
		t.Fatalf("expected embedded 404 status, got %d", body.Status)
	}
}

func TestAnalyticsTrackedMarket(t *testing.T) {
	e, tracker, _ := setup(t)
	tracker.Track(models.MarketCandidate{ID: "m1", Title: "A", Probability: 0.4, VolumeUSD: 5000, LiquidityUSD: 2000})

	rec := do(e, "/api/analytics?market=m1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data analyticsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Market.ID != "m1" {
		t.Fatalf("unexpected market: %+v", body.Data.Market)
	}
	if body.Data.PnL.Cost != 0.4 {
		t.Fatalf("unexpected pnl: %+v", body.Data.PnL)
	}
}

func TestEdgeEndpoint(t *testing.T) {
	e, tracker, store := setup(t)
	tracker.Track(models.MarketCandidate{ID: "m1", Title: "Will the Chiefs win?", Probability: 0.45, VolumeUSD: 10000, LiquidityUSD: 5000})
	store.Set(&models.MatchupInsight{
		Teams: [2]models.Team{
			{ID: "12", Abbreviation: "KC", Name: "Kansas City Chiefs", ShortName: "Chiefs"},
			{ID: "33", Abbreviation: "BAL", Name: "Baltimore Ravens", ShortName: "Ravens"},
		},
		RecentForm: map[string]models.RecentForm{
			"KC":  {Games: 5, Wins: 4, Losses: 1, AvgPointDiff: 7},
			"BAL": {Games: 5, Wins: 2, Losses: 3, AvgPointDiff: -3},
		},
		HeadToHead: models.HeadToHead{Games: 1, Wins: map[string]int{"KC": 1, "BAL": 0}},
		Lean:       models.Lean{Team: "KC", Confidence: 0.6},
	})

	rec := do(e, "/api/edge?market=m1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data analytics.EdgeReport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.TargetTeam != "KC" {
		t.Fatalf("unexpected target: %+v", body.Data)
	}
}

func TestInsightEmpty(t *testing.T) {
	e, _, _ := setup(t)
	rec := do(e, "/api/insight")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusNotFound {
		t.Fatalf("expected embedded 404 status, got %d", body.Status)
	}
}
