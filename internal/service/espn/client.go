package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"LiveEdge/internal/domain/models"
	"LiveEdge/pkg/cache"
	xhttp "LiveEdge/pkg/http"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/util"
)

const teamsCacheKey = "espn:teams"

// Client consumes the ESPN site API for the configured league.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	cache    cache.Service
	teamsTTL time.Duration
	logger   *applogger.Logger
}

// New creates an ESPN client. cacheSvc may be nil to disable directory caching.
func New(baseURL string, timeout time.Duration, cacheSvc cache.Service, teamsTTL time.Duration, logger *applogger.Logger) *Client {
	if timeout <= 0 {
		timeout = 3500 * time.Millisecond
	}
	if teamsTTL <= 0 {
		teamsTTL = 24 * time.Hour
	}
	return &Client{
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:  baseURL,
		cache:    cacheSvc,
		teamsTTL: teamsTTL,
		logger:   logger,
	}
}

// scoreValue accepts a number, a numeric string, or a {value} object.
type scoreValue struct {
	set   bool
	value float64
}

func (s *scoreValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		s.set, s.value = true, f
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			s.set, s.value = true, f
		}
		return nil
	}
	var obj struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Value != nil {
		s.set, s.value = true, *obj.Value
	}
	return nil
}

type teamDirectory struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team struct {
					ID           string `json:"id"`
					Abbreviation string `json:"abbreviation"`
					DisplayName  string `json:"displayName"`
					ShortName    string `json:"shortDisplayName"`
					Location     string `json:"location"`
					Slug         string `json:"slug"`
				} `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

type eventsPayload struct {
	Events []wireEvent `json:"events"`
}

type wireEvent struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Competitions []struct {
		Competitors []struct {
			ID       string `json:"id"`
			HomeAway string `json:"homeAway"`
			Team     struct {
				ID           string `json:"id"`
				Abbreviation string `json:"abbreviation"`
				DisplayName  string `json:"displayName"`
			} `json:"team"`
			Score scoreValue `json:"score"`
		} `json:"competitors"`
		Status struct {
			Type struct {
				Completed bool `json:"completed"`
			} `json:"type"`
		} `json:"status"`
	} `json:"competitions"`
}

// Teams returns the league team directory, cached with the configured TTL.
func (c *Client) Teams(ctx context.Context) ([]models.Team, error) {
	if c.cache != nil {
		var cached []models.Team
		if err := c.cache.Get(ctx, teamsCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var dir teamDirectory
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/teams",
	}, &dir)
	if err != nil {
		return nil, fmt.Errorf("espn teams: %w", err)
	}
	if len(dir.Sports) == 0 || len(dir.Sports[0].Leagues) == 0 {
		return nil, fmt.Errorf("espn teams: empty directory")
	}

	rows := dir.Sports[0].Leagues[0].Teams
	teams := make([]models.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, models.Team{
			ID:           row.Team.ID,
			Abbreviation: row.Team.Abbreviation,
			Name:         row.Team.DisplayName,
			ShortName:    row.Team.ShortName,
			Location:     row.Team.Location,
			Slug:         row.Team.Slug,
		})
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, teamsCacheKey, teams, c.teamsTTL); err != nil {
			c.logger.Warn("espn: cache teams", applogger.Error(err))
		}
	}
	return teams, nil
}

// TeamSchedule returns the team's season games.
func (c *Client) TeamSchedule(ctx context.Context, teamID string) ([]models.Game, error) {
	var payload eventsPayload
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/teams/" + teamID + "/schedule",
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("espn schedule %s: %w", teamID, err)
	}
	return normalizeEvents(payload.Events), nil
}

// Scoreboard returns the current league scoreboard games.
func (c *Client) Scoreboard(ctx context.Context) ([]models.Game, error) {
	var payload eventsPayload
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/scoreboard",
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("espn scoreboard: %w", err)
	}
	return normalizeEvents(payload.Events), nil
}

// TeamStatistics returns season aggregate per-game stats for a team.
// Absent stats stay nil.
func (c *Client) TeamStatistics(ctx context.Context, teamID string) (*models.TeamStats, error) {
	var raw json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/teams/" + teamID + "/statistics",
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("espn statistics %s: %w", teamID, err)
	}

	values := map[string]float64{}
	collectStats(raw, values)

	stats := &models.TeamStats{}
	assign := func(dst **float64, names ...string) {
		for _, n := range names {
			if v, ok := values[n]; ok {
				f := v
				*dst = &f
				return
			}
		}
	}
	assign(&stats.PointsForPerGame, "totalPointsPerGame", "pointsPerGame", "avgPointsFor")
	assign(&stats.PointsAgainstPerGame, "pointsAgainstPerGame", "avgPointsAgainst")
	assign(&stats.YardsPerGame, "yardsPerGame", "totalYardsPerGame")
	assign(&stats.YardsAllowedPerGame, "yardsAllowedPerGame", "totalYardsAllowedPerGame")
	return stats, nil
}

// collectStats walks arbitrary ESPN statistics JSON and records every
// {name, value} pair it finds.
func collectStats(raw json.RawMessage, out map[string]float64) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		var name string
		var value scoreValue
		if n, ok := obj["name"]; ok {
			_ = json.Unmarshal(n, &name)
		}
		if v, ok := obj["value"]; ok {
			_ = json.Unmarshal(v, &value)
		}
		if name != "" && value.set {
			if _, exists := out[name]; !exists {
				out[name] = value.value
			}
		}
		for _, v := range obj {
			collectStats(v, out)
		}
		return
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, v := range arr {
			collectStats(v, out)
		}
	}
}

func normalizeEvents(events []wireEvent) []models.Game {
	games := make([]models.Game, 0, len(events))
	for _, ev := range events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		game := models.Game{
			ID:        ev.ID,
			Date:      util.ParseTimeDefault(ev.Date, time.Time{}),
			Completed: comp.Status.Type.Completed,
		}
		for _, ctr := range comp.Competitors {
			side := models.Competitor{
				ID:           ctr.Team.ID,
				Name:         ctr.Team.DisplayName,
				Abbreviation: ctr.Team.Abbreviation,
			}
			if side.ID == "" {
				side.ID = ctr.ID
			}
			if ctr.Score.set {
				v := int(ctr.Score.value)
				side.Score = &v
			}
			switch ctr.HomeAway {
			case "home":
				game.Home = side
			case "away":
				game.Away = side
			}
		}
		if game.Home.ID == "" && game.Away.ID == "" {
			continue
		}
		games = append(games, game)
	}
	return games
}
