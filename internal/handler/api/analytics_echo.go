package api

import (
	"time"

	"LiveEdge/internal/analytics"
	"LiveEdge/internal/domain/models"
	svcmetrics "LiveEdge/internal/service/metrics"
	"LiveEdge/internal/usecase"
	xhttp "LiveEdge/pkg/http"
	xlogger "LiveEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalyticsEchoHandler serves the tracked-market analytics surface.
type AnalyticsEchoHandler struct {
	logger   *xlogger.Logger
	tracker  *usecase.Tracker
	engine   *analytics.Engine
	insights *usecase.InsightStore
}

func NewAnalyticsEchoHandler(logger *xlogger.Logger, tracker *usecase.Tracker, engine *analytics.Engine, insights *usecase.InsightStore) *AnalyticsEchoHandler {
	svcmetrics.Register()
	return &AnalyticsEchoHandler{logger: logger, tracker: tracker, engine: engine, insights: insights}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/markets", h.Markets)
	g.GET("/analytics", h.Analytics)
	g.GET("/edge", h.Edge)
	g.GET("/insight", h.Insight)
}

func (h *AnalyticsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalyticsEchoHandler) Markets(c echo.Context) error {
	req := &models.MarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap := h.tracker.Snapshot()
	if req.Limit > 0 && len(snap) > req.Limit {
		snap = snap[:req.Limit]
	}
	return xhttp.ListResponse(c, snap, int64(len(snap)))
}

// analyticsResponse bundles every per-market analytic in one read.
type analyticsResponse struct {
	Market     models.MarketCandidate     `json:"market"`
	Volatility analytics.VolatilityReport `json:"volatility"`
	Clustering analytics.ClusteringReport `json:"clustering"`
	Confidence analytics.ConfidenceReport `json:"confidence"`
	Drawdown   analytics.DrawdownReport   `json:"drawdown"`
	PnL        analytics.PnLReport        `json:"pnl"`
}

func (h *AnalyticsEchoHandler) Analytics(c echo.Context) error {
	start := time.Now()
	defer func() {
		svcmetrics.AnalyticsLatency.WithLabelValues("analytics").Observe(time.Since(start).Seconds())
	}()

	req := &models.AnalyticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cand, ok := h.tracker.Get(req.Market)
	if !ok {
		svcmetrics.AnalyticsErrors.WithLabelValues("analytics").Inc()
		return xhttp.NotFoundResponse(c, "market not tracked")
	}

	res := analyticsResponse{
		Market:     cand,
		Volatility: h.engine.Volatility(req.Market),
		Clustering: h.engine.TradeClustering(req.Market),
		Confidence: h.engine.PriceConfidence(req.Market, cand),
		Drawdown:   h.engine.ExpectedDrawdown(req.Market, cand, 0),
		PnL:        analytics.PnLPerShare(cand.Probability),
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalyticsEchoHandler) Edge(c echo.Context) error {
	start := time.Now()
	defer func() {
		svcmetrics.AnalyticsLatency.WithLabelValues("edge").Observe(time.Since(start).Seconds())
	}()

	req := &models.EdgeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cand, ok := h.tracker.Get(req.Market)
	if !ok {
		svcmetrics.AnalyticsErrors.WithLabelValues("edge").Inc()
		return xhttp.NotFoundResponse(c, "market not tracked")
	}

	ins := h.insights.Latest()
	if ins == nil {
		return xhttp.NotFoundResponse(c, "no insight available")
	}
	rep := analytics.Edge(cand, ins)
	if rep == nil {
		return xhttp.NotFoundResponse(c, "market not tied to current matchup")
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *AnalyticsEchoHandler) Insight(c echo.Context) error {
	ins := h.insights.Latest()
	if ins == nil {
		return xhttp.NotFoundResponse(c, "no insight available")
	}
	return xhttp.SuccessResponse(c, ins)
}
