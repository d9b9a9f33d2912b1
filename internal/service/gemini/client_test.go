package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"LiveEdge/internal/domain/models"
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

func TestEnabled(t *testing.T) {
	if New("http://x", "m", "", time.Second, testLogger(t)).Enabled() {
		t.Fatal("empty key should disable the client")
	}
	if !New("http://x", "m", "k", time.Second, testLogger(t)).Enabled() {
		t.Fatal("key should enable the client")
	}
}

func TestParseNarrativeFencedJSON(t *testing.T) {
	text := "```json\n{\"summary\":\"KC favored\",\"keyFactors\":[\"form\"],\"caution\":\"thin market\"}\n```"
	n := parseNarrative(text)
	if n == nil || n.Summary != "KC favored" {
		t.Fatalf("unexpected narrative: %+v", n)
	}
	if len(n.KeyFactors) != 1 || n.Caution != "thin market" {
		t.Fatalf("fields not parsed: %+v", n)
	}
}

func TestParseNarrativePlainText(t *testing.T) {
	n := parseNarrative("The Chiefs look stronger on recent form.")
	if n == nil || !strings.Contains(n.Summary, "Chiefs") {
		t.Fatalf("unexpected narrative: %+v", n)
	}
	if len(n.KeyFactors) != 0 {
		t.Fatalf("plain text should carry no factors: %+v", n)
	}
}

func TestParseNarrativeEmpty(t *testing.T) {
	if parseNarrative("") != nil {
		t.Fatal("empty text should yield nil")
	}
}

func TestNarrativeCallsModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("missing api key")
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": `{"summary":"ok"}`}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", "secret", time.Second, testLogger(t))
	n := c.Narrative(context.Background(), &models.MatchupInsight{Query: "chiefs ravens"})
	if n == nil || n.Summary != "ok" {
		t.Fatalf("unexpected narrative: %+v", n)
	}
}

func TestNarrativeServerErrorReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", "secret", time.Second, testLogger(t))
	if n := c.Narrative(context.Background(), &models.MatchupInsight{}); n != nil {
		t.Fatalf("expected nil on server error, got %+v", n)
	}
}
