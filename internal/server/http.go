package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/sirupsen/logrus"

	"github.com/polyterm/polyterm/internal/analysis"
	"github.com/polyterm/polyterm/internal/archive"
	"github.com/polyterm/polyterm/internal/config"
	"github.com/polyterm/polyterm/internal/models"
	"github.com/polyterm/polyterm/internal/polymarket"
	"github.com/polyterm/polyterm/internal/risk"
)

// Service 聚合 HTTP 层依赖
type Service struct {
	gamma    *polymarket.GammaClient
	clob     *polymarket.ClobClient
	pipeline *analysis.Pipeline
	archive  *archive.PostgresArchive
	log      *logrus.Logger
}

func NewService(gamma *polymarket.GammaClient, clob *polymarket.ClobClient,
	pipeline *analysis.Pipeline, archive *archive.PostgresArchive, log *logrus.Logger) *Service {
	return &Service{gamma: gamma, clob: clob, pipeline: pipeline, archive: archive, log: log}
}

// NewHTTPServer 构建带 recovery 中间件的 kratos HTTP 服务并注册全部路由
func NewHTTPServer(c config.ServerConfig, s *Service) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.GET("/healthz", s.health)

	r.GET("/api/events", s.listEvents)
	r.GET("/api/events/{id}", s.getEvent)
	r.GET("/api/events/{id}/markets", s.getEventMarkets)
	r.GET("/api/markets/{id}", s.getMarket)
	r.GET("/api/search", s.searchMarkets)

	r.GET("/api/markets/{id}/snapshot", s.getSnapshot)
	r.GET("/api/markets/{id}/orderbook", s.getOrderbook)
	r.GET("/api/markets/{id}/timeseries", s.getTimeseries)

	r.POST("/api/analysis", s.submitAnalysis)
	r.GET("/api/analysis/{id}", s.getAnalysis)
	r.GET("/api/analysis/history/{market_id}", s.analysisHistory)

	r.POST("/api/risk/scenario", s.riskScenario)
	r.POST("/api/risk/montecarlo", s.riskMonteCarlo)
	r.GET("/api/risk/liquidity/{id}", s.riskLiquidity)
	r.POST("/api/risk/hedge", s.riskHedge)

	// websocket 走原生 handler，升级需要未包装的 ResponseWriter
	srv.HandleFunc("/api/analysis/{id}/stream", s.streamAnalysis)

	return srv
}

func (s *Service) health(ctx http.Context) error {
	return ctx.Result(200, map[string]string{"status": "ok"})
}

func (s *Service) listEvents(ctx http.Context) error {
	q := ctx.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	status := q.Get("status")
	if status == "" {
		status = "active"
	}

	events, err := s.gamma.ListEvents(ctx.Request().Context(), limit, offset, status, q.Get("q"))
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, events)
}

func (s *Service) getEvent(ctx http.Context) error {
	event, err := s.gamma.GetEvent(ctx.Request().Context(), ctx.Vars().Get("id"))
	if errors.Is(err, polymarket.ErrEventNotFound) {
		return kerrors.NotFound("EVENT_NOT_FOUND", "event not found")
	}
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, event)
}

func (s *Service) getEventMarkets(ctx http.Context) error {
	markets, err := s.gamma.GetEventMarkets(ctx.Request().Context(), ctx.Vars().Get("id"))
	if errors.Is(err, polymarket.ErrEventNotFound) {
		return kerrors.NotFound("EVENT_NOT_FOUND", "event not found")
	}
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, markets)
}

func (s *Service) getMarket(ctx http.Context) error {
	market, err := s.gamma.GetMarket(ctx.Request().Context(), ctx.Vars().Get("id"))
	if errors.Is(err, polymarket.ErrMarketNotFound) {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market not found")
	}
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, market)
}

func (s *Service) searchMarkets(ctx http.Context) error {
	query := ctx.Query().Get("q")
	if query == "" {
		return kerrors.BadRequest("INVALID_REQUEST", "query parameter q is required")
	}
	markets, err := s.gamma.SearchMarkets(ctx.Request().Context(), query)
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, markets)
}

func (s *Service) getSnapshot(ctx http.Context) error {
	snapshot, err := s.clob.GetSnapshot(ctx.Request().Context(), ctx.Vars().Get("id"))
	if errors.Is(err, polymarket.ErrMarketNotFound) || errors.Is(err, polymarket.ErrSnapshotUnavailable) {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market snapshot unavailable")
	}
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, snapshot)
}

// resolveToken 市场 id 到首个 CLOB token 的映射
func (s *Service) resolveToken(ctx context.Context, marketID string) (string, error) {
	market, err := s.gamma.GetMarket(ctx, marketID)
	if err != nil {
		return "", err
	}
	if len(market.ClobTokenIDs) == 0 {
		return "", polymarket.ErrSnapshotUnavailable
	}
	return market.ClobTokenIDs[0], nil
}

func (s *Service) getOrderbook(ctx http.Context) error {
	reqCtx := ctx.Request().Context()
	tokenID, err := s.resolveToken(reqCtx, ctx.Vars().Get("id"))
	if err != nil {
		return kerrors.NotFound("MARKET_NOT_FOUND", "orderbook unavailable")
	}
	book, err := s.clob.GetOrderbook(reqCtx, tokenID)
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, book)
}

func (s *Service) getTimeseries(ctx http.Context) error {
	reqCtx := ctx.Request().Context()
	tokenID, err := s.resolveToken(reqCtx, ctx.Vars().Get("id"))
	if err != nil {
		return kerrors.NotFound("MARKET_NOT_FOUND", "timeseries unavailable")
	}

	interval := ctx.Query().Get("interval")
	if interval == "" {
		interval = "1h"
	}
	lookback, _ := strconv.Atoi(ctx.Query().Get("lookback_days"))
	if lookback <= 0 {
		lookback = 30
	}

	series, err := s.clob.GetTimeseries(reqCtx, tokenID, interval, lookback)
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, series)
}

// submitAnalysis 受理分析请求。仅入参非法返回 400，
// 管道内部故障一律通过状态记录暴露。
func (s *Service) submitAnalysis(ctx http.Context) error {
	var req models.AnalysisRequest
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest("INVALID_REQUEST", "malformed request body")
	}

	id, err := s.pipeline.Submit(ctx.Request().Context(), req)
	if errors.Is(err, analysis.ErrInvalidRequest) {
		return kerrors.BadRequest("INVALID_REQUEST", "market_id is required")
	}
	if err != nil {
		return kerrors.InternalServer("SUBMIT_FAILED", err.Error())
	}

	return ctx.Result(200, models.AnalysisResponse{
		AnalysisID: id,
		Status:     models.JobQueued,
	})
}

func (s *Service) getAnalysis(ctx http.Context) error {
	job, err := s.pipeline.Status(ctx.Request().Context(), ctx.Vars().Get("id"))
	if errors.Is(err, analysis.ErrJobNotFound) {
		return kerrors.NotFound("ANALYSIS_NOT_FOUND", "analysis not found or expired")
	}
	if err != nil {
		return kerrors.InternalServer("STORE_ERROR", err.Error())
	}

	return ctx.Result(200, models.AnalysisResponse{
		AnalysisID: job.ID,
		Status:     job.Status,
		Progress:   job.Progress,
		Error:      job.Error,
		Result:     job.Result,
	})
}

func (s *Service) analysisHistory(ctx http.Context) error {
	if s.archive == nil {
		return ctx.Result(200, []models.ArchivedAnalysis{})
	}
	limit, _ := strconv.Atoi(ctx.Query().Get("limit"))
	records, err := s.archive.RecentAnalyses(ctx.Request().Context(), ctx.Vars().Get("market_id"), limit)
	if err != nil {
		return kerrors.InternalServer("ARCHIVE_ERROR", err.Error())
	}
	return ctx.Result(200, records)
}

type scenarioRequest struct {
	MarketID string          `json:"market_id"`
	Position models.Position `json:"position"`
	Shocks   []float64       `json:"shocks"`
}

func (s *Service) riskScenario(ctx http.Context) error {
	var req scenarioRequest
	if err := ctx.Bind(&req); err != nil || req.MarketID == "" {
		return kerrors.BadRequest("INVALID_REQUEST", "market_id is required")
	}
	if len(req.Shocks) == 0 {
		req.Shocks = []float64{-20, -10, 10, 20}
	}

	snapshot, err := s.clob.GetSnapshot(ctx.Request().Context(), req.MarketID)
	if err != nil {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market snapshot unavailable")
	}
	return ctx.Result(200, risk.ComputeScenarios(snapshot, req.Position, req.Shocks))
}

type monteCarloRequest struct {
	MarketID    string `json:"market_id"`
	HorizonDays int    `json:"horizon_days"`
	NPaths      int    `json:"n_paths"`
}

func (s *Service) riskMonteCarlo(ctx http.Context) error {
	var req monteCarloRequest
	if err := ctx.Bind(&req); err != nil || req.MarketID == "" {
		return kerrors.BadRequest("INVALID_REQUEST", "market_id is required")
	}

	reqCtx := ctx.Request().Context()
	tokenID, err := s.resolveToken(reqCtx, req.MarketID)
	if err != nil {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market not found")
	}

	// 小时级历史，波动率在模拟内换算为日级
	series, err := s.clob.GetTimeseries(reqCtx, tokenID, "1h", 30)
	if err != nil {
		s.log.Warnf("montecarlo: timeseries fetch failed for %s: %v", req.MarketID, err)
		series = nil
	}
	return ctx.Result(200, risk.RunMonteCarlo(series, req.HorizonDays, req.NPaths))
}

func (s *Service) riskLiquidity(ctx http.Context) error {
	marketID := ctx.Vars().Get("id")
	reqCtx := ctx.Request().Context()

	tokenID, err := s.resolveToken(reqCtx, marketID)
	if err != nil {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market not found")
	}
	book, err := s.clob.GetOrderbook(reqCtx, tokenID)
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}
	return ctx.Result(200, risk.ComputeLiquidityMetrics(book, marketID))
}

type hedgeRequest struct {
	MarketID string          `json:"market_id"`
	Position models.Position `json:"position"`
}

func (s *Service) riskHedge(ctx http.Context) error {
	var req hedgeRequest
	if err := ctx.Bind(&req); err != nil || req.MarketID == "" {
		return kerrors.BadRequest("INVALID_REQUEST", "market_id is required")
	}

	reqCtx := ctx.Request().Context()
	current, err := s.gamma.GetMarket(reqCtx, req.MarketID)
	if errors.Is(err, polymarket.ErrMarketNotFound) {
		return kerrors.NotFound("MARKET_NOT_FOUND", "market not found")
	}
	if err != nil {
		return kerrors.InternalServer("UPSTREAM_ERROR", err.Error())
	}

	// 同事件市场作为对冲候选池；没有事件归属时退化为问题文本检索
	var related []models.Market
	if current.GroupID != "" {
		related, err = s.gamma.GetEventMarkets(reqCtx, current.GroupID)
	} else {
		related, err = s.gamma.SearchMarkets(reqCtx, current.Question)
	}
	if err != nil {
		s.log.Warnf("hedge: related market lookup failed for %s: %v", req.MarketID, err)
		related = nil
	}

	return ctx.Result(200, risk.SuggestHedges(current, req.Position, related))
}
