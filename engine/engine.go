// Package engine 编排一次混合推荐：文本理解 -> 用户画像 -> 并发召回 -> 融合排序 -> 解释 -> 审计。
//
// 容错策略：
//   - 文本理解失败：整次请求失败（ErrQueryProcessing）
//   - 画像构建失败：降级为空画像
//   - 单路召回失败：该路结果为空，其余照常
//   - 审计写入失败：响应照常返回，查询 ID 带 "local-" 前缀
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/explain"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
	"github.com/rushteam/hybridrec/profile"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/recall"
)

// ErrQueryProcessing 文本理解失败，推荐无法进行。
var ErrQueryProcessing = errors.New("engine: query processing failed")

// LocalQueryIDPrefix 审计记录未能持久化时查询 ID 的前缀。
const LocalQueryIDPrefix = "local-"

const (
	explanationFound = "Recommendations combine semantic search, collaborative filtering and content analysis"
	explanationEmpty = "No items matched your query; try broadening your filters"
)

// Deps 推荐编排依赖。
type Deps struct {
	NLP          core.NLPService
	Vector       core.VectorService
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Users        core.UserStore
	Audit        core.AuditStore

	// Stats 可选，用于统计意图分布
	Stats core.KeyValueStore

	Policy   core.Policy
	Observer Observer
	Logger   zerolog.Logger
}

// Engine 推荐编排器。构造后只读，可并发使用。
type Engine struct {
	cfg      Config
	deps     Deps
	profiles *profile.Builder
	pipeline *pipeline.Pipeline
	observer Observer
	logger   zerolog.Logger
}

// New 创建推荐编排器。
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.NLP == nil:
		return nil, errors.New("engine: nlp service is required")
	case deps.Catalog == nil:
		return nil, errors.New("engine: catalog store is required")
	case deps.Interactions == nil:
		return nil, errors.New("engine: interaction store is required")
	case deps.Audit == nil:
		return nil, errors.New("engine: audit store is required")
	}
	deps.Policy = deps.Policy.OrDefault()
	if err := deps.Policy.Validate(); err != nil {
		return nil, err
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	e := &Engine{
		cfg:      cfg,
		deps:     deps,
		observer: deps.Observer,
		logger:   deps.Logger.With().Str("component", "engine").Logger(),
		profiles: &profile.Builder{
			Interactions: deps.Interactions,
			Catalog:      deps.Catalog,
			Users:        deps.Users,
			Policy:       deps.Policy,
		},
	}

	sources, err := buildSources(deps, cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.pipeline = &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources:       sources,
				Timeout:       cfg.RecallTimeout,
				MaxConcurrent: cfg.MaxConcurrent,
				Logger:        e.logger,
				Observer: func(res core.RecallResult, elapsed time.Duration) {
					e.observer.ObserveRecall(res.Source, res.Status, elapsed)
				},
			},
			&rank.Hybrid{Catalog: deps.Catalog, Policy: deps.Policy, Logger: e.logger},
			&explain.Node{Explainer: &explain.Explainer{Policy: deps.Policy}, Logger: e.logger},
		},
		Hook: func(node pipeline.Node, elapsed time.Duration, _ int, _ error) {
			e.observer.ObserveStage(string(node.Kind()), elapsed)
		},
	}
	return e, nil
}

// Recommend 执行一次推荐。
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := e.recommend(ctx, req, start)
	elapsed := time.Since(start)

	outcome, n := OutcomeOK, 0
	switch {
	case err == nil:
		n = len(res.Recommendations)
	case core.IsInvalidInput(err):
		outcome = OutcomeInvalidInput
	case errors.Is(err, ErrQueryProcessing):
		outcome = OutcomeNLPError
	default:
		outcome = OutcomeError
	}
	e.observer.ObserveRequest(outcome, elapsed, n)
	e.logger.Debug().Str("outcome", outcome).Int("results", n).Dur("latency", elapsed).Msg("recommendation finished")
	return res, err
}

func (e *Engine) recommend(ctx context.Context, req Request, start time.Time) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "query is required")
	}
	requestFilters, err := core.ParseFilters(req.Filters)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "invalid filters", err)
	}
	limit := e.cfg.limit(req.Limit)

	// 1. 文本理解（必需步骤）
	var userContext map[string]any
	if req.UserID != nil {
		userContext = map[string]any{"user_id": *req.UserID}
	}
	nlpStart := time.Now()
	nlpRes, err := e.deps.NLP.Process(ctx, query, userContext)
	e.observer.ObserveStage("nlp", time.Since(nlpStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryProcessing, err)
	}
	if nlpRes == nil {
		return nil, fmt.Errorf("%w: empty nlp result", ErrQueryProcessing)
	}

	rctx := &core.RecommendContext{
		UserID: req.UserID,
		Query:  query,
		NLP:    nlpRes,
		Limit:  limit,
	}

	// 2. 用户画像（失败降级为空画像）
	rctx.User = e.buildProfile(ctx, rctx)

	// 3. 合并过滤条件：请求条件优先
	nlpFilters, err := core.ParseFilters(nlpRes.Filters)
	if err != nil {
		e.logger.Warn().Err(err).Msg("ignoring malformed nlp filters")
		nlpFilters = core.Filters{}
	}
	rctx.Filters = nlpFilters.Override(requestFilters)

	// 4-5. 召回 -> 排序 -> 解释
	candidates, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	res := &Result{
		OriginalQuery:    req.Query,
		ProcessedQuery:   nlpRes.CleanedText,
		Intent:           nlpRes.Intent,
		IntentConfidence: nlpRes.IntentConfidence,
		Recommendations:  make([]Recommendation, 0, len(candidates)),
		Explanation:      explanationEmpty,
	}
	for _, c := range candidates {
		res.Recommendations = append(res.Recommendations, Recommendation{
			ItemID:      c.ItemID,
			Item:        c.Item,
			Score:       c.Score,
			Confidence:  c.Confidence,
			Scores:      c.Scores,
			Explanation: c.Explanation,
		})
	}
	res.TotalFound = len(res.Recommendations)
	if res.TotalFound > 0 {
		res.Explanation = explanationFound
	}

	// 6. 审计（尽力而为）
	res.QueryID = e.persistAudit(ctx, req, res, start)
	e.recordIntent(ctx, res.Intent)

	// 7. 处理耗时
	res.ProcessingTimeMS = milliseconds(time.Since(start))
	return res, nil
}

func (e *Engine) buildProfile(ctx context.Context, rctx *core.RecommendContext) *core.UserProfile {
	if rctx.UserID == nil {
		return core.NewUserProfile(0)
	}
	p, err := e.profiles.Build(ctx, *rctx.UserID)
	if err != nil {
		e.logger.Warn().Int64("user_id", *rctx.UserID).Err(err).Msg("profile build failed, using empty profile")
		rctx.PutLabel("profile", utils.Label{Value: "degraded", Source: "engine"})
		return core.NewUserProfile(*rctx.UserID)
	}
	return p
}

// persistAudit 写入审计记录并返回查询 ID；失败时返回本地生成的 ID。
// 写入与请求的取消解耦：调用方断开后审计仍会完成。
func (e *Engine) persistAudit(ctx context.Context, req Request, res *Result, start time.Time) string {
	id := uuid.NewString()
	rec := &core.AuditRecord{
		QueryID:          id,
		UserID:           req.UserID,
		QueryText:        req.Query,
		ProcessedQuery:   res.ProcessedQuery,
		Intent:           res.Intent,
		SelectedItemIDs:  make([]int64, 0, len(res.Recommendations)),
		AlgorithmVersion: core.AlgorithmVersion,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		CreatedAt:        time.Now(),
	}
	for _, r := range res.Recommendations {
		rec.SelectedItemIDs = append(rec.SelectedItemIDs, r.ItemID)
	}

	auditCtx := context.WithoutCancel(ctx)
	if e.cfg.AuditTimeout > 0 {
		var cancel context.CancelFunc
		auditCtx, cancel = context.WithTimeout(auditCtx, e.cfg.AuditTimeout)
		defer cancel()
	}
	if err := e.deps.Audit.Save(auditCtx, rec); err != nil {
		e.observer.AuditFailed()
		e.logger.Error().Str("query_id", id).Err(err).Msg("audit persistence failed")
		return LocalQueryIDPrefix + id
	}
	return id
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
