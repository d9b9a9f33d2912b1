package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/service/ratelimit"
	xhttp "LiveEdge/pkg/http"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/util"

	"github.com/google/uuid"
)

// Client consumes Polymarket Gamma endpoints.
type Client struct {
	http    *xhttp.Client
	baseURL string
	limiter *ratelimit.Limiter
	logger  *applogger.Logger
}

// New creates a Gamma API client.
func New(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *applogger.Logger) *Client {
	if timeout <= 0 {
		timeout = 3500 * time.Millisecond
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		limiter: limiter,
		logger:  logger,
	}
}

// StringList handles outcome arrays that arrive either as JSON arrays or as
// double-encoded JSON strings.
type StringList []string

func (t *StringList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*t = direct
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), (*[]string)(t)); err != nil {
		*t = nil
	}
	return nil
}

// FloatList handles outcome price arrays in the same two encodings, where the
// elements themselves may be numbers or numeric strings.
type FloatList []float64

func (t *FloatList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = nil
			return nil
		}
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			*t = nil
			return nil
		}
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		var f float64
		if err := json.Unmarshal(r, &f); err == nil {
			out = append(out, f)
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				out = append(out, f)
				continue
			}
		}
		out = append(out, 0)
	}
	*t = out
	return nil
}

// Number accepts both JSON numbers and numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Number(f)
			return nil
		}
	}
	*n = 0
	return nil
}

type gammaMarket struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	Outcomes      StringList `json:"outcomes"`
	OutcomePrices FloatList  `json:"outcomePrices"`
	Volume        Number     `json:"volumeNum"`
	Liquidity     Number     `json:"liquidityNum"`
	EndDate       string     `json:"endDate"`
	Active        bool       `json:"active"`
	Closed        bool       `json:"closed"`
}

// SearchMarkets queries active open markets matching query.
func (c *Client) SearchMarkets(ctx context.Context, query string, limit int) ([]GammaMarket, error) {
	if limit <= 0 {
		limit = 12
	}
	if !c.allow() {
		return nil, fmt.Errorf("polymarket: rate limited")
	}

	var raw []gammaMarket
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets",
		QueryParams: map[string][]string{
			"search": {query},
			"active": {"true"},
			"closed": {"false"},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("polymarket search: %w", err)
	}
	return exportAll(raw), nil
}

// MarketByID fetches a single market snapshot.
func (c *Client) MarketByID(ctx context.Context, id string) (*GammaMarket, error) {
	if !c.allow() {
		return nil, fmt.Errorf("polymarket: rate limited")
	}
	var raw gammaMarket
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets/" + url.PathEscape(id),
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("polymarket market %s: %w", id, err)
	}
	m := export(raw)
	return &m, nil
}

// MarketBySlug fetches a market snapshot by slug.
func (c *Client) MarketBySlug(ctx context.Context, slug string) (*GammaMarket, error) {
	if !c.allow() {
		return nil, fmt.Errorf("polymarket: rate limited")
	}
	var raw []gammaMarket
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets",
		QueryParams: map[string][]string{
			"slug": {slug},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("polymarket slug %s: %w", slug, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("polymarket slug %s: not found", slug)
	}
	m := export(raw[0])
	return &m, nil
}

func (c *Client) allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow("gamma", 10, 5)
}

// GammaMarket is a normalized market row from the Gamma API.
type GammaMarket struct {
	ID            string
	Question      string
	Slug          string
	Description   string
	Outcomes      []string
	OutcomePrices []float64
	VolumeUSD     float64
	LiquidityUSD  float64
	EndDate       time.Time
	Active        bool
	Closed        bool
}

func exportAll(raw []gammaMarket) []GammaMarket {
	out := make([]GammaMarket, 0, len(raw))
	for _, r := range raw {
		out = append(out, export(r))
	}
	return out
}

func export(r gammaMarket) GammaMarket {
	end, _ := util.ParseTime(r.EndDate)
	return GammaMarket{
		ID:            r.ID,
		Question:      r.Question,
		Slug:          r.Slug,
		Description:   r.Description,
		Outcomes:      r.Outcomes,
		OutcomePrices: r.OutcomePrices,
		VolumeUSD:     float64(r.Volume),
		LiquidityUSD:  float64(r.Liquidity),
		EndDate:       end,
		Active:        r.Active,
		Closed:        r.Closed,
	}
}

// ToCandidate converts a GammaMarket to a MarketCandidate at time now.
func (m GammaMarket) ToCandidate(now time.Time) models.MarketCandidate {
	title := m.Question
	if title == "" {
		title = m.Slug
	}
	if title == "" {
		title = "Polymarket market"
	}

	pageURL := ""
	if m.Slug != "" {
		pageURL = "https://polymarket.com/market/" + m.Slug
	}

	remaining := 0.0
	if !m.EndDate.IsZero() {
		remaining = m.EndDate.Sub(now).Minutes()
		if remaining < 0 {
			remaining = 0
		}
	}

	id := m.ID
	if id == "" && m.Slug == "" {
		id = uuid.NewString()
	}

	cand := models.MarketCandidate{
		ID:                   id,
		Slug:                 m.Slug,
		Title:                title,
		URL:                  pageURL,
		VolumeUSD:            m.VolumeUSD,
		LiquidityUSD:         m.LiquidityUSD,
		TimeRemainingMinutes: int(remaining),
		Outcomes:             m.Outcomes,
		OutcomePrices:        m.OutcomePrices,
		TS:                   now,
	}
	cand.Probability = models.ResolveProbability(cand)
	return cand
}
