// Package nlp 对接外部文本理解服务。
package nlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/breaker"
)

// AuthConfig 认证配置
type AuthConfig struct {
	Type     string `koanf:"type"` // "basic", "bearer", "api_key"
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Token    string `koanf:"token"`
	APIKey   string `koanf:"api_key"`
}

// Client 是文本理解服务的 HTTP 客户端，实现 core.NLPService。
//
// 接口约定：
//
//	POST {Endpoint}/nlp/process
//	{"text": "...", "context": {...}}
//	-> {"cleaned_text": "...", "intent": "...", "filters": {...}, "embedding": [...], ...}
//
// 请求经过熔断器：连续失败后短时间内直接返回 UNAVAILABLE，不再打到下游。
type Client struct {
	// Endpoint 服务根地址，例如 "http://localhost:8001"
	Endpoint string

	// Timeout 单次请求超时时间
	Timeout time.Duration

	// Auth 认证信息
	Auth *AuthConfig

	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*core.NLPResult]
	breakerCfg breaker.Config
	listener   breaker.StateListener
	logger     zerolog.Logger
}

// Option 客户端配置选项
type Option func(*Client)

// WithTimeout 设置超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息
func WithAuth(auth *AuthConfig) Option {
	return func(c *Client) {
		c.Auth = auth
	}
}

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBreaker 设置熔断配置与状态回调
func WithBreaker(cfg breaker.Config, listener breaker.StateListener) Option {
	return func(c *Client) {
		c.breakerCfg = cfg
		c.listener = listener
	}
}

// WithLogger 设置日志
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient 创建文本理解服务客户端。
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Timeout:    5 * time.Second,
		breakerCfg: breaker.DefaultConfig(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	c.logger = c.logger.With().Str("component", "nlp").Logger()
	c.cb = breaker.New[*core.NLPResult]("nlp", c.breakerCfg, c.logger, c.listener)
	return c
}

type processRequest struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

// Process 实现 core.NLPService 接口
func (c *Client) Process(ctx context.Context, text string, userContext map[string]any) (*core.NLPResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.NewDomainError(core.ModuleNLP, core.ErrorCodeInvalidInput, "nlp: text is required")
	}

	res, err := c.cb.Execute(func() (*core.NLPResult, error) {
		return c.process(ctx, text, userContext)
	})
	if breaker.IsRejected(err) {
		return nil, core.WrapDomainError(core.ModuleNLP, core.ErrorCodeUnavailable, "nlp: circuit open", err)
	}
	if err != nil {
		return nil, err
	}
	if res.OriginalText == "" {
		res.OriginalText = text
	}
	if res.CleanedText == "" {
		res.CleanedText = strings.TrimSpace(text)
	}
	return res, nil
}

func (c *Client) process(ctx context.Context, text string, userContext map[string]any) (*core.NLPResult, error) {
	body, err := json.Marshal(processRequest{Text: text, Context: userContext})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/nlp/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleNLP, core.ErrorCodeUnavailable, "nlp: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, core.NewDomainError(core.ModuleNLP, core.ErrorCodeUnavailable,
			fmt.Sprintf("nlp: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))))
	}

	var result core.NLPResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapDomainError(core.ModuleNLP, core.ErrorCodeInternalError, "nlp: decode response", err)
	}
	return &result, nil
}

// Ping 健康检查（GET {Endpoint}/health）
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status=%d", resp.StatusCode)
	}
	return nil
}

// addAuth 添加认证信息到 HTTP 请求
func (c *Client) addAuth(req *http.Request) {
	if c.Auth == nil {
		return
	}

	switch c.Auth.Type {
	case "basic":
		req.SetBasicAuth(c.Auth.Username, c.Auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.Auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", c.Auth.APIKey)
	}
}

var (
	_ core.NLPService = (*Client)(nil)
	_ core.Pinger     = (*Client)(nil)
)
