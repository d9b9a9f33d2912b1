package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: test
server:
  port: 8090
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 10s
metrics:
  enabled: true
  path: /metrics
hub:
  listen_addr: ":8765"
  insight_log: "insights.log"
providers:
  gamma_base_url: "https://gamma-api.polymarket.com"
matcher:
  top_k: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Providers.RequestTimeout != 3500*time.Millisecond {
		t.Fatalf("expected default request timeout 3.5s, got %v", c.Providers.RequestTimeout)
	}
	if c.Providers.SearchLimit != 12 {
		t.Fatalf("expected default search limit 12, got %d", c.Providers.SearchLimit)
	}
	if c.Matcher.SemanticWeight != 0.5 || c.Matcher.TimeWeight != 0.1 {
		t.Fatalf("expected default matcher weights, got %+v", c.Matcher)
	}
	if c.Insight.Debounce != 700*time.Millisecond {
		t.Fatalf("expected default debounce 700ms, got %v", c.Insight.Debounce)
	}
	if c.Analytics.MaxPoints != 60 || c.Analytics.MaxAge != 30*time.Minute {
		t.Fatalf("expected default window caps, got %+v", c.Analytics)
	}
}

func TestLoadMissingEnvironment(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: 8090\n"))
	if err == nil {
		t.Fatal("expected error for missing environment")
	}
}

func TestValidateWeights(t *testing.T) {
	body := sampleYAML + `
  semantic_weight: 0.9
  liquidity_weight: 0.5
  volume_weight: 0.2
  time_weight: 0.1
`
	_, err := Load(writeConfig(t, body))
	if err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("HUB_URL", "ws://localhost:9999/ws")
	c, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Gemini.APIKey != "test-key" {
		t.Fatalf("expected env api key, got %q", c.Gemini.APIKey)
	}
	if c.Hub.URL != "ws://localhost:9999/ws" {
		t.Fatalf("expected env hub url, got %q", c.Hub.URL)
	}
}
