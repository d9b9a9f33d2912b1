package insight

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"LiveEdge/internal/domain/models"
	icache "LiveEdge/internal/service/cache"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/metrics"
	"LiveEdge/pkg/util"
)

// SportsProvider is the schedule/scoreboard/stats source for insights.
type SportsProvider interface {
	Teams(ctx context.Context) ([]models.Team, error)
	TeamSchedule(ctx context.Context, teamID string) ([]models.Game, error)
	Scoreboard(ctx context.Context) ([]models.Game, error)
	TeamStatistics(ctx context.Context, teamID string) (*models.TeamStats, error)
}

// Narrator optionally decorates an insight with generated prose.
type Narrator interface {
	Enabled() bool
	Narrative(ctx context.Context, insight *models.MatchupInsight) *models.Narrative
}

// Publisher sends envelopes back to the hub.
type Publisher interface {
	PublishPayload(kind string, payload interface{}) error
}

// Options configures the Builder.
type Options struct {
	Debounce time.Duration
	Cooldown time.Duration
	// RecentGames is the form window length.
	RecentGames int
}

// Builder produces matchup insights from page-context queries.
type Builder struct {
	opts      Options
	provider  SportsProvider
	narrator  Narrator
	publisher Publisher
	cooldown  *icache.TTLCache
	logger    *applogger.Logger
	recorder  *metrics.Recorder

	// OnInsight, when set, observes every published insight.
	OnInsight func(*models.MatchupInsight)
}

// New creates a Builder.
func New(opts Options, provider SportsProvider, narrator Narrator, publisher Publisher, logger *applogger.Logger, recorder *metrics.Recorder) *Builder {
	if opts.Debounce <= 0 {
		opts.Debounce = 700 * time.Millisecond
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 2 * time.Minute
	}
	if opts.RecentGames <= 0 {
		opts.RecentGames = 5
	}
	return &Builder{
		opts:      opts,
		provider:  provider,
		narrator:  narrator,
		publisher: publisher,
		cooldown:  icache.NewTTLCache(),
		logger:    logger,
		recorder:  recorder,
	}
}

// Run consumes context envelopes, debouncing rapid context changes and
// building at most one insight per query per cooldown window.
func (b *Builder) Run(ctx context.Context, envelopes <-chan models.Envelope) {
	var timer *time.Timer
	var pending string
	fire := make(chan string, 1)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case query := <-fire:
			b.handleQuery(ctx, query)
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			if env.Type != models.KindContext {
				continue
			}
			pc, err := models.DecodePayload[models.PageContext](env)
			if err != nil {
				b.logger.Warn("insight: bad context payload", applogger.Error(err))
				continue
			}
			query := contextQuery(pc)
			if query == "" {
				continue
			}
			// Replace any pending build with the newest context.
			pending = query
			if timer != nil {
				timer.Stop()
			}
			q := pending
			timer = time.AfterFunc(b.opts.Debounce, func() {
				select {
				case fire <- q:
				default:
				}
			})
		}
	}
}

func (b *Builder) handleQuery(ctx context.Context, query string) {
	key := util.NormalizeText(query)
	if _, hot := b.cooldown.Get(key); hot {
		return
	}

	start := time.Now()
	ins, err := b.BuildInsight(ctx, query)
	if b.recorder != nil {
		b.recorder.RecordLatency("insight_build", time.Since(start).Seconds())
	}
	if err != nil {
		if b.recorder != nil {
			b.recorder.RecordError("insight_build")
		}
		b.logger.Warn("insight: build failed", applogger.String("query", query), applogger.Error(err))
		return
	}
	if ins == nil {
		return
	}

	b.cooldown.Set(key, struct{}{}, b.opts.Cooldown)
	if err := b.publisher.PublishPayload(models.KindInsight, ins); err != nil {
		b.logger.Warn("insight: publish failed", applogger.Error(err))
	}
	if b.OnInsight != nil {
		b.OnInsight(ins)
	}
}

// BuildInsight resolves two teams from query and assembles the full insight.
// It returns (nil, nil) when fewer than two teams match.
func (b *Builder) BuildInsight(ctx context.Context, query string) (*models.MatchupInsight, error) {
	teams, err := b.provider.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("team directory: %w", err)
	}

	pair := ResolveTeams(query, teams)
	if pair == nil {
		return nil, nil
	}
	teamA, teamB := pair[0], pair[1]

	var (
		scheduleA, scheduleB, board []models.Game
		statsA, statsB              *models.TeamStats
	)
	errs := make(chan error, 5)
	run := func(fn func() error) { go func() { errs <- fn() }() }

	run(func() (err error) { scheduleA, err = b.provider.TeamSchedule(ctx, teamA.ID); return })
	run(func() (err error) { scheduleB, err = b.provider.TeamSchedule(ctx, teamB.ID); return })
	run(func() (err error) { board, err = b.provider.Scoreboard(ctx); return })
	run(func() (err error) { statsA, err = b.provider.TeamStatistics(ctx, teamA.ID); return })
	run(func() (err error) { statsB, err = b.provider.TeamStatistics(ctx, teamB.ID); return })

	for i := 0; i < 5; i++ {
		if err := <-errs; err != nil {
			return nil, err
		}
	}

	gamesA := mergeGames(teamA.ID, scheduleA, board)
	gamesB := mergeGames(teamB.ID, scheduleB, board)

	formA := recentForm(teamA, gamesA, b.opts.RecentGames)
	formB := recentForm(teamB, gamesB, b.opts.RecentGames)
	h2h := headToHead(teamA, teamB, gamesA)
	lean := computeLean(teamA, teamB, formA, formB, h2h)

	ins := &models.MatchupInsight{
		Query:       query,
		GeneratedAt: time.Now().UTC(),
		Source:      "espn",
		Teams:       [2]models.Team{teamA, teamB},
		RecentForm: map[string]models.RecentForm{
			teamA.Abbreviation: formA,
			teamB.Abbreviation: formB,
		},
		TeamStats:  map[string]*models.TeamStats{},
		HeadToHead: h2h,
		Lean:       lean,
	}
	if statsA != nil {
		ins.TeamStats[teamA.Abbreviation] = statsA
	}
	if statsB != nil {
		ins.TeamStats[teamB.Abbreviation] = statsB
	}

	if b.narrator != nil && b.narrator.Enabled() {
		ins.Narrative = b.narrator.Narrative(ctx, ins)
	}
	return ins, nil
}

// ResolveTeams scores every directory team against the query and returns the
// top two distinct matches, or nil when fewer than two score above zero.
func ResolveTeams(query string, teams []models.Team) *[2]models.Team {
	tokens := util.Tokens(query)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		team  models.Team
		score float64
	}
	ranked := make([]scored, 0, len(teams))
	for _, team := range teams {
		s := scoreTeam(tokens, team)
		if s > 0 {
			ranked = append(ranked, scored{team: team, score: s})
		}
	}
	if len(ranked) < 2 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return &[2]models.Team{ranked[0].team, ranked[1].team}
}

func scoreTeam(tokens []string, team models.Team) float64 {
	text := util.NormalizeText(strings.Join([]string{
		team.Name, team.ShortName, team.Location, team.Abbreviation, team.Slug,
	}, " "))

	score := 0.0
	for _, tok := range tokens {
		matched := util.ContainsWord(text, tok)
		if !matched {
			if sv := util.SingularVariant(tok); sv != "" {
				matched = util.ContainsWord(text, sv)
			}
		}
		if !matched {
			continue
		}
		if util.IsNumeric(tok) {
			score += 2
		} else {
			score++
		}
	}
	return score
}

// mergeGames joins schedule and scoreboard rows for a team, keeping only
// completed games with valid scores, deduped, newest first.
func mergeGames(teamID string, schedule, board []models.Game) []models.Game {
	seen := make(map[string]struct{})
	merged := make([]models.Game, 0, len(schedule)+len(board))
	for _, g := range append(append([]models.Game{}, schedule...), board...) {
		if !g.Involves(teamID) || !g.Completed || !g.HasValidScores() {
			continue
		}
		key := g.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, g)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.After(merged[j].Date) })
	return merged
}

func recentForm(team models.Team, games []models.Game, window int) models.RecentForm {
	if len(games) > window {
		games = games[:window]
	}

	form := models.RecentForm{Games: len(games)}
	totalDiff := 0.0
	for _, g := range games {
		own, opp := perspective(team.ID, g)
		diff := float64(*own.Score - *opp.Score)
		totalDiff += diff
		result := "T"
		switch {
		case diff > 0:
			result = "W"
			form.Wins++
		case diff < 0:
			result = "L"
			form.Losses++
		}
		form.Recent = append(form.Recent, models.RecentEntry{
			Date:     g.Date.Format("2006-01-02"),
			Opponent: opp.Abbreviation,
			Result:   result,
			Score:    fmt.Sprintf("%d-%d", *own.Score, *opp.Score),
		})
	}
	if form.Games > 0 {
		form.AvgPointDiff = math.Round(totalDiff/float64(form.Games)*100) / 100
	}
	return form
}

func perspective(teamID string, g models.Game) (own, opp models.Competitor) {
	if g.Home.ID == teamID {
		return g.Home, g.Away
	}
	return g.Away, g.Home
}

func headToHead(teamA, teamB models.Team, gamesA []models.Game) models.HeadToHead {
	h2h := models.HeadToHead{Wins: map[string]int{teamA.Abbreviation: 0, teamB.Abbreviation: 0}}
	for _, g := range gamesA {
		if !g.Involves(teamB.ID) {
			continue
		}
		h2h.Games++
		own, opp := perspective(teamA.ID, g)
		winner := "Tied"
		switch {
		case *own.Score > *opp.Score:
			h2h.Wins[teamA.Abbreviation]++
			winner = teamA.Name
		case *opp.Score > *own.Score:
			h2h.Wins[teamB.Abbreviation]++
			winner = teamB.Name
		}
		if h2h.LastMeeting == nil {
			// gamesA is newest-first, so the first hit is the last meeting.
			h2h.LastMeeting = &models.LastMeeting{
				Date:   g.Date.Format("2006-01-02"),
				Winner: winner,
				Score:  fmt.Sprintf("%d-%d", *own.Score, *opp.Score),
			}
		}
	}
	return h2h
}

func computeLean(teamA, teamB models.Team, formA, formB models.RecentForm, h2h models.HeadToHead) models.Lean {
	winRate := func(f models.RecentForm) float64 {
		if f.Games == 0 {
			return 0
		}
		return float64(f.Wins) / float64(f.Games)
	}
	h2hDelta := float64(h2h.Wins[teamA.Abbreviation] - h2h.Wins[teamB.Abbreviation])

	score := (winRate(formA) - winRate(formB)) +
		(formA.AvgPointDiff-formB.AvgPointDiff)/14 +
		h2hDelta*0.15

	confidence := math.Abs(score)
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 0.9 {
		confidence = 0.9
	}

	lean := models.Lean{Confidence: confidence}
	switch {
	case score > 0.15:
		lean.Team = teamA.Abbreviation
		lean.Reason = fmt.Sprintf("%s ahead on recent form and point differential", teamA.ShortName)
	case score < -0.15:
		lean.Team = teamB.Abbreviation
		lean.Reason = fmt.Sprintf("%s ahead on recent form and point differential", teamB.ShortName)
	default:
		lean.Team = models.LeanTooClose
		lean.Reason = "recent form and head-to-head nearly even"
	}
	return lean
}

func contextQuery(pc models.PageContext) string {
	if q := strings.TrimSpace(pc.Query); q != "" {
		return q
	}
	return strings.TrimSpace(pc.Title)
}
