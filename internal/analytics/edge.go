package analytics

import (
	"math"

	"LiveEdge/internal/domain/models"
	"LiveEdge/pkg/util"
)

// EdgeReport compares a model probability built from insight data against the
// market's implied probability.
type EdgeReport struct {
	Market           string  `json:"market"`
	TargetTeam       string  `json:"targetTeam"`
	ModelProbability float64 `json:"modelProbability"`
	MarketPrice      float64 `json:"marketPrice"`
	ExpectedValue    float64 `json:"expectedValue"`
	Confidence       float64 `json:"confidence"`
}

// Edge estimates the model's win probability for the team the contract is
// about and prices the expected value of one yes share. Returns nil when the
// contract cannot be tied to either insight team.
func Edge(m models.MarketCandidate, insight *models.MatchupInsight) *EdgeReport {
	if insight == nil {
		return nil
	}

	target, opponent, ok := resolveTargetTeam(m, insight)
	if !ok {
		return nil
	}

	est := modelProbability(target, opponent, insight)
	mkt := clamp(m.Probability, 0.01, 0.99)
	ev := est*(1-mkt) - (1-est)*mkt

	return &EdgeReport{
		Market:           m.Key(),
		TargetTeam:       target.Abbreviation,
		ModelProbability: est,
		MarketPrice:      mkt,
		ExpectedValue:    ev,
		Confidence:       edgeConfidence(est, mkt, target, insight, m),
	}
}

// resolveTargetTeam decides which insight team the contract title refers to.
// When both teams appear, the better token match wins.
func resolveTargetTeam(m models.MarketCandidate, insight *models.MatchupInsight) (target, opponent models.Team, ok bool) {
	title := util.NormalizeText(m.Title + " " + m.Slug)
	scoreFor := func(t models.Team) float64 {
		s := 0.0
		for _, field := range []string{t.Name, t.ShortName, t.Location, t.Abbreviation} {
			for _, tok := range util.Tokens(field) {
				if util.ContainsWord(title, tok) {
					s++
				}
			}
		}
		return s
	}

	a, b := insight.Teams[0], insight.Teams[1]
	sa, sb := scoreFor(a), scoreFor(b)
	switch {
	case sa == 0 && sb == 0:
		return models.Team{}, models.Team{}, false
	case sa >= sb:
		return a, b, true
	default:
		return b, a, true
	}
}

// modelProbability maps recent form, head-to-head, and season stat ratings to
// a win probability for the target team.
func modelProbability(target, opponent models.Team, insight *models.MatchupInsight) float64 {
	formT := insight.RecentForm[target.Abbreviation]
	formO := insight.RecentForm[opponent.Abbreviation]

	winRate := func(f models.RecentForm) float64 {
		if f.Games == 0 {
			return 0.5
		}
		return float64(f.Wins) / float64(f.Games)
	}

	p := 0.5
	p += (winRate(formT) - winRate(formO)) * 0.35
	p += clamp((formT.AvgPointDiff-formO.AvgPointDiff)/24, -0.15, 0.15)

	h2hDelta := float64(insight.HeadToHead.Wins[target.Abbreviation] - insight.HeadToHead.Wins[opponent.Abbreviation])
	p += clamp(h2hDelta*0.05, -0.1, 0.1)

	if rt, ro, ok := statRatings(target, opponent, insight); ok {
		p += clamp((rt-ro)/20, -0.12, 0.12)
	}

	return clamp(p, 0.05, 0.95)
}

// statRatings derives a net points-per-game rating for each side when the
// season stats carry scoring numbers.
func statRatings(target, opponent models.Team, insight *models.MatchupInsight) (rt, ro float64, ok bool) {
	rating := func(abbr string) (float64, bool) {
		s := insight.TeamStats[abbr]
		if s == nil || s.PointsForPerGame == nil || s.PointsAgainstPerGame == nil {
			return 0, false
		}
		return *s.PointsForPerGame - *s.PointsAgainstPerGame, true
	}
	rt, okT := rating(target.Abbreviation)
	ro, okO := rating(opponent.Abbreviation)
	return rt, ro, okT && okO
}

// edgeConfidence scales the probability gap by lean confidence, the form
// sample size, and market quality.
func edgeConfidence(est, mkt float64, target models.Team, insight *models.MatchupInsight, m models.MarketCandidate) float64 {
	gap := math.Min(1, math.Abs(est-mkt)*2)
	base := (gap + insight.Lean.Confidence) / 2

	formT := insight.RecentForm[target.Abbreviation]
	games := formT.Games
	for _, f := range insight.RecentForm {
		if f.Games < games {
			games = f.Games
		}
	}
	var sampleCap float64
	switch {
	case games >= 4:
		sampleCap = 1.0
	case games == 3:
		sampleCap = 0.8
	case games == 2:
		sampleCap = 0.65
	default:
		sampleCap = 0.5
	}

	quality := math.Min(1, math.Max(0.4, (math.Log10(m.VolumeUSD+1)+math.Log10(m.LiquidityUSD+1))/6))

	return clamp(base*sampleCap*quality, 0, 1)
}
