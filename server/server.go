// Package server 提供推荐服务的 HTTP API。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
)

// Service 是 HTTP 层依赖的推荐能力，由 *engine.Engine 实现。
type Service interface {
	Recommend(ctx context.Context, req engine.Request) (*engine.Result, error)
	SubmitFeedback(ctx context.Context, fb engine.Feedback) error
	GetItem(ctx context.Context, id int64) (*core.Item, error)
	SearchItems(ctx context.Context, q core.CatalogQuery) (*core.ItemPage, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	IntentStats(ctx context.Context, n int) ([]engine.IntentCount, error)
	Health(ctx context.Context) engine.Health
}

var _ Service = (*engine.Engine)(nil)

// Options HTTP 服务选项
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RateLimit 每个 IP 在 RateLimitWindow 内的请求数，0 表示不限流
	RateLimit       int
	RateLimitWindow time.Duration

	CORSOrigins []string

	// MetricsHandler 非 nil 时挂载到 MetricsPath
	MetricsHandler http.Handler
	MetricsPath    string
}

// Server HTTP 服务
type Server struct {
	svc      Service
	opts     Options
	logger   zerolog.Logger
	validate *validator.Validate
	router   chi.Router
}

// New 创建服务并注册路由
func New(svc Service, opts Options, logger zerolog.Logger) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	s := &Server{
		svc:      svc,
		opts:     opts,
		logger:   logger.With().Str("component", "http").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.routes()
	return s
}

// Handler 返回根 handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.opts.MetricsHandler != nil {
		r.Handle(s.opts.MetricsPath, s.opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, s.opts.RateLimitWindow))
		}
		r.Post("/recommendations", s.handleRecommend)
		r.Post("/recommendations/feedback", s.handleFeedback)
		r.Get("/items/{id}", s.handleGetItem)
		r.Get("/search", s.handleSearch)
		r.Get("/categories", s.handleCategories)
		r.Get("/stats/intents", s.handleIntentStats)
	})
	return r
}

// Run 启动服务，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request completed")
	})
}
