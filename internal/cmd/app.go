package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/audit"
	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/metrics"
	"github.com/rushteam/hybridrec/nlp"
	"github.com/rushteam/hybridrec/pkg/breaker"
	"github.com/rushteam/hybridrec/store"
	"github.com/rushteam/hybridrec/store/postgres"
	"github.com/rushteam/hybridrec/vector"
)

// app 持有按配置装配好的全部依赖
type app struct {
	engine  *engine.Engine
	metrics http.Handler

	// 导入种子数据用
	vector  core.VectorIndexer
	seed    func(ctx context.Context, fx *store.Fixture) error
	closers []io.Closer
	logger  zerolog.Logger
}

// newApp 按配置装配依赖：存储、向量检索、缓存、文本理解、审计镜像与指标。
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		observer engine.Observer
		listener breaker.StateListener
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)
		observer, listener = m, m.BreakerStateChanged
		a.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	deps := engine.Deps{
		Policy:   cfg.Policy,
		Observer: observer,
		Logger:   logger,
	}

	// 目录、行为日志、用户、审计
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, err
		}
		stores := postgres.NewStores(db)
		a.closers = append(a.closers, stores)
		deps.Catalog, deps.Interactions, deps.Users, deps.Audit = stores.Catalog, stores.Interactions, stores.Users, stores.Audit
		a.seed = stores.Load
	default:
		mem := store.NewMemory()
		a.closers = append(a.closers, mem)
		deps.Catalog, deps.Interactions, deps.Users, deps.Audit = mem.Catalog, mem.Interactions, mem.Users, mem.Audit
		a.seed = mem.Load
	}

	// 键值缓存：文本理解结果与意图统计
	var kv core.Store
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rs, err := store.NewRedisStore(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, err
		}
		kv = rs
	default:
		kv = store.NewMemoryStore()
	}
	a.closers = append(a.closers, kv)
	if stats, ok := kv.(core.KeyValueStore); ok {
		deps.Stats = stats
	}

	// 向量检索
	switch cfg.Vector.Backend {
	case config.BackendMilvus:
		mv, err := vector.NewMilvus(ctx, cfg.Vector.Milvus, logger, listener)
		if err != nil {
			return nil, err
		}
		a.vector = mv
	default:
		a.vector = vector.NewMemoryIndex(cfg.Engine.Collection, cfg.Vector.Dimension)
	}
	a.closers = append(a.closers, a.vector)
	deps.Vector = a.vector

	// 文本理解
	var svc core.NLPService = nlp.NewClient(cfg.NLP.Endpoint,
		nlp.WithTimeout(cfg.NLP.Timeout),
		nlp.WithAuth(&cfg.NLP.Auth),
		nlp.WithBreaker(cfg.NLP.Breaker, listener),
		nlp.WithLogger(logger),
	)
	if cfg.NLP.CacheTTL > 0 {
		svc = nlp.NewCached(svc, kv, cfg.NLP.CacheTTL, logger)
	}
	deps.NLP = svc

	// 审计镜像
	if cfg.Kafka.Enabled {
		pub, err := audit.NewKafka(cfg.Kafka.Audit, logger)
		if err != nil {
			return nil, err
		}
		mirror := audit.NewMirror(deps.Audit, pub)
		a.closers = append(a.closers, mirror)
		deps.Audit = mirror
	}

	a.engine, err = engine.New(cfg.Engine, deps)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return a, nil
}

// Load 导入种子数据：写入存储并把向量写入向量索引
func (a *app) Load(ctx context.Context, fx *store.Fixture, collection string) error {
	if err := a.seed(ctx, fx); err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}
	if len(fx.Embeddings) == 0 {
		return nil
	}
	if mv, ok := a.vector.(*vector.Milvus); ok {
		if err := mv.EnsureCollection(ctx); err != nil {
			return err
		}
	}
	if err := a.vector.Upsert(ctx, fx.IndexRequest(collection)); err != nil {
		return fmt.Errorf("index embeddings: %w", err)
	}
	return nil
}

// Close 逆序关闭资源
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn().Err(err).Msg("close resources")
		return err
	}
	return nil
}
