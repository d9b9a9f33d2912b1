package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"LiveEdge/internal/domain/models"
	xhttp "LiveEdge/pkg/http"
	applogger "LiveEdge/pkg/logger"
)

// Client generates short matchup narratives. A missing API key disables it.
type Client struct {
	http    *xhttp.Client
	baseURL string
	model   string
	apiKey  string
	logger  *applogger.Logger
}

// New creates a Gemini client.
func New(baseURL, model, apiKey string, timeout time.Duration, logger *applogger.Logger) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Enabled reports whether narrative generation is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateRequest struct {
	Contents []promptContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type narrativeJSON struct {
	Summary    string   `json:"summary"`
	KeyFactors []string `json:"keyFactors"`
	Caution    string   `json:"caution"`
}

// Narrative asks the model to summarize an insight. Returns nil on any
// failure; callers must never block an insight on it.
func (c *Client) Narrative(ctx context.Context, insight *models.MatchupInsight) *models.Narrative {
	if !c.Enabled() || insight == nil {
		return nil
	}

	req := generateRequest{
		Contents: []promptContent{{Parts: []promptPart{{Text: buildPrompt(insight)}}}},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	var resp generateResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    url,
		Body:   req,
	}, &resp)
	if err != nil {
		c.logger.Warn("gemini: generate failed", applogger.Error(err))
		return nil
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	return parseNarrative(text)
}

// parseNarrative tries the structured JSON shape first, then falls back to
// treating the whole reply as a summary.
func parseNarrative(text string) *models.Narrative {
	if text == "" {
		return nil
	}

	cleaned := text
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var parsed narrativeJSON
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Summary != "" {
		return &models.Narrative{
			Summary:     parsed.Summary,
			KeyFactors:  parsed.KeyFactors,
			Caution:     parsed.Caution,
			GeneratedAt: time.Now().UTC(),
		}
	}

	return &models.Narrative{
		Summary:     text,
		GeneratedAt: time.Now().UTC(),
	}
}

func buildPrompt(insight *models.MatchupInsight) string {
	var b strings.Builder
	b.WriteString("You are a sports trading analyst. Given the matchup data below, ")
	b.WriteString("reply with strict JSON {\"summary\": string, \"keyFactors\": [string], \"caution\": string}. ")
	b.WriteString("Keep the summary under 60 words.\n\n")
	data, _ := json.Marshal(insight)
	b.Write(data)
	return b.String()
}
