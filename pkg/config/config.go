package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Hub struct {
		ListenAddr     string        `yaml:"listen_addr"`
		URL            string        `yaml:"url"`
		InsightLog     string        `yaml:"insight_log"`
		SendBuffer     int           `yaml:"send_buffer"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"hub"`
	Providers struct {
		GammaBaseURL   string        `yaml:"gamma_base_url"`
		ESPNBaseURL    string        `yaml:"espn_base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		SearchLimit    int           `yaml:"search_limit"`
	} `yaml:"providers"`
	Gemini struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gemini"`
	Matcher struct {
		SemanticWeight  float64 `yaml:"semantic_weight"`
		LiquidityWeight float64 `yaml:"liquidity_weight"`
		VolumeWeight    float64 `yaml:"volume_weight"`
		TimeWeight      float64 `yaml:"time_weight"`
		TopK            int     `yaml:"top_k"`
	} `yaml:"matcher"`
	Insight struct {
		TeamsTTL time.Duration `yaml:"teams_ttl"`
		Debounce time.Duration `yaml:"debounce"`
		Cooldown time.Duration `yaml:"cooldown"`
	} `yaml:"insight"`
	Analytics struct {
		RefreshInterval   time.Duration `yaml:"refresh_interval"`
		MaxPoints         int           `yaml:"max_points"`
		MaxAge            time.Duration `yaml:"max_age"`
		CalmThreshold     float64       `yaml:"calm_threshold"`
		ModerateThreshold float64       `yaml:"moderate_threshold"`
		HighThreshold     float64       `yaml:"high_threshold"`
	} `yaml:"analytics"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("HUB_URL"); v != "" {
		c.Hub.URL = v
	}
	if v := os.Getenv("HUB_LISTEN_ADDR"); v != "" {
		c.Hub.ListenAddr = v
	}
	if v := os.Getenv("GAMMA_BASE_URL"); v != "" {
		c.Providers.GammaBaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Hub.SendBuffer <= 0 {
		c.Hub.SendBuffer = 64
	}
	if c.Hub.ReconnectDelay <= 0 {
		c.Hub.ReconnectDelay = time.Second
	}
	if c.Hub.InsightLog == "" {
		c.Hub.InsightLog = "insights.log"
	}
	if c.Providers.GammaBaseURL == "" {
		c.Providers.GammaBaseURL = "https://gamma-api.polymarket.com"
	}
	if c.Providers.ESPNBaseURL == "" {
		c.Providers.ESPNBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	}
	if c.Providers.RequestTimeout <= 0 {
		c.Providers.RequestTimeout = 3500 * time.Millisecond
	}
	if c.Providers.SearchLimit <= 0 {
		c.Providers.SearchLimit = 12
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Gemini.Timeout <= 0 {
		c.Gemini.Timeout = 8 * time.Second
	}
	if c.Matcher.SemanticWeight == 0 && c.Matcher.LiquidityWeight == 0 &&
		c.Matcher.VolumeWeight == 0 && c.Matcher.TimeWeight == 0 {
		c.Matcher.SemanticWeight = 0.5
		c.Matcher.LiquidityWeight = 0.2
		c.Matcher.VolumeWeight = 0.2
		c.Matcher.TimeWeight = 0.1
	}
	if c.Matcher.TopK <= 0 {
		c.Matcher.TopK = 5
	}
	if c.Insight.TeamsTTL <= 0 {
		c.Insight.TeamsTTL = 24 * time.Hour
	}
	if c.Insight.Debounce <= 0 {
		c.Insight.Debounce = 700 * time.Millisecond
	}
	if c.Insight.Cooldown <= 0 {
		c.Insight.Cooldown = 2 * time.Minute
	}
	if c.Analytics.RefreshInterval <= 0 {
		c.Analytics.RefreshInterval = 10 * time.Second
	}
	if c.Analytics.MaxPoints <= 0 {
		c.Analytics.MaxPoints = 60
	}
	if c.Analytics.MaxAge <= 0 {
		c.Analytics.MaxAge = 30 * time.Minute
	}
	if c.Analytics.CalmThreshold <= 0 {
		c.Analytics.CalmThreshold = 0.005
	}
	if c.Analytics.ModerateThreshold <= 0 {
		c.Analytics.ModerateThreshold = 0.015
	}
	if c.Analytics.HighThreshold <= 0 {
		c.Analytics.HighThreshold = 0.03
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Hub.ListenAddr == "" && c.Hub.URL == "" {
		return fmt.Errorf("hub.listen_addr or hub.url is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	sum := c.Matcher.SemanticWeight + c.Matcher.LiquidityWeight + c.Matcher.VolumeWeight + c.Matcher.TimeWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("matcher weights must sum to 1, got %.3f", sum)
	}
	if c.Analytics.CalmThreshold >= c.Analytics.ModerateThreshold ||
		c.Analytics.ModerateThreshold >= c.Analytics.HighThreshold {
		return fmt.Errorf("analytics volatility thresholds must be increasing")
	}
	return nil
}
