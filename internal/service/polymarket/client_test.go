package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func TestStringListDoubleEncoded(t *testing.T) {
	var got StringList
	if err := json.Unmarshal([]byte(`"[\"Yes\", \"No\"]"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0] != "Yes" || got[1] != "No" {
		t.Fatalf("got %v", got)
	}
}

func TestStringListPlainArray(t *testing.T) {
	var got StringList
	if err := json.Unmarshal([]byte(`["Yes","No"]`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestStringListGarbageFailsSoft(t *testing.T) {
	var got StringList
	if err := json.Unmarshal([]byte(`"not a list"`), &got); err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestFloatListStringElements(t *testing.T) {
	var got FloatList
	if err := json.Unmarshal([]byte(`"[\"0.63\", \"0.37\"]"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0] != 0.63 || got[1] != 0.37 {
		t.Fatalf("got %v", got)
	}
}

func TestNumberString(t *testing.T) {
	var n Number
	if err := json.Unmarshal([]byte(`"15000.5"`), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if float64(n) != 15000.5 {
		t.Fatalf("got %v", n)
	}
}

func TestSearchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("search") != "chiefs" || q.Get("active") != "true" || q.Get("closed") != "false" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "m1",
			"question": "Will the Chiefs win?",
			"slug": "chiefs-win",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.63\", \"0.37\"]",
			"volumeNum": 15000,
			"liquidityNum": "2500",
			"endDate": "2026-02-08T23:00:00Z",
			"active": true,
			"closed": false
		}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, testLogger(t))
	markets, err := c.SearchMarkets(context.Background(), "chiefs", 12)
	if err != nil {
		t.Fatalf("SearchMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
	m := markets[0]
	if m.VolumeUSD != 15000 || m.LiquidityUSD != 2500 {
		t.Fatalf("unexpected volume/liquidity: %+v", m)
	}
	if len(m.Outcomes) != 2 || m.OutcomePrices[0] != 0.63 {
		t.Fatalf("unexpected outcomes: %+v", m)
	}
}

func TestToCandidateYesOutcome(t *testing.T) {
	now := time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)
	m := GammaMarket{
		ID:            "m1",
		Question:      "Will the Chiefs win?",
		Slug:          "chiefs-win",
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []float64{0.63, 0.37},
		EndDate:       now.Add(3 * time.Hour),
	}
	cand := m.ToCandidate(now)
	if cand.Probability != 0.63 {
		t.Fatalf("expected yes-outcome probability 0.63, got %v", cand.Probability)
	}
	if cand.TimeRemainingMinutes != 180 {
		t.Fatalf("expected 180 minutes remaining, got %v", cand.TimeRemainingMinutes)
	}
	if cand.URL != "https://polymarket.com/market/chiefs-win" {
		t.Fatalf("unexpected url %q", cand.URL)
	}
}

func TestToCandidateFallbackTitle(t *testing.T) {
	cand := GammaMarket{ID: "m2"}.ToCandidate(time.Now())
	if cand.Title != "Polymarket market" {
		t.Fatalf("expected placeholder title, got %q", cand.Title)
	}
	if cand.Probability != 0.5 {
		t.Fatalf("expected fallback probability 0.5, got %v", cand.Probability)
	}
}
