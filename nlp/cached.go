package nlp

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
)

// Cached 为任意 NLPService 增加 KV 缓存：相同文本与上下文直接返回缓存结果。
//
// 缓存是尽力而为的：读写缓存出错只打日志，不影响请求。
type Cached struct {
	Service core.NLPService
	Store   core.Store

	// TTL 缓存有效期，0 表示不过期
	TTL time.Duration

	// KeyPrefix key 前缀，默认 "nlp:"
	KeyPrefix string

	Logger zerolog.Logger
}

// NewCached 创建带缓存的文本理解服务。
func NewCached(svc core.NLPService, store core.Store, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		Service:   svc,
		Store:     store,
		TTL:       ttl,
		KeyPrefix: "nlp:",
		Logger:    logger.With().Str("component", "nlp_cache").Logger(),
	}
}

func (c *Cached) Process(ctx context.Context, text string, userContext map[string]any) (*core.NLPResult, error) {
	key, err := c.key(text, userContext)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("build cache key failed, bypassing cache")
		return c.Service.Process(ctx, text, userContext)
	}

	if data, err := c.Store.Get(ctx, key); err == nil {
		var res core.NLPResult
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, nil
		}
		c.Logger.Warn().Str("key", key).Msg("corrupt cache entry, recomputing")
		if err := c.Store.Delete(ctx, key); err != nil {
			c.Logger.Warn().Err(err).Msg("evict corrupt cache entry failed")
		}
	} else if !core.IsStoreNotFound(err) {
		c.Logger.Warn().Err(err).Msg("nlp cache read failed")
	}

	res, err := c.Service.Process(ctx, text, userContext)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("encode nlp result failed")
		return res, nil
	}
	var ttl []int
	if secs := int(c.TTL / time.Second); secs > 0 {
		ttl = []int{secs}
	}
	if err := c.Store.Set(ctx, key, data, ttl...); err != nil {
		c.Logger.Warn().Err(err).Msg("nlp cache write failed")
	}
	return res, nil
}

// key = 前缀 + xxhash(文本 + 上下文)。上下文按 JSON 编码，map 的 key 有序，结果稳定。
func (c *Cached) key(text string, userContext map[string]any) (string, error) {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	if len(userContext) > 0 {
		raw, err := json.Marshal(userContext)
		if err != nil {
			return "", err
		}
		_, _ = d.Write([]byte{0})
		_, _ = d.Write(raw)
	}
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = "nlp:"
	}
	return prefix + strconv.FormatUint(d.Sum64(), 16), nil
}

var _ core.NLPService = (*Cached)(nil)

// Ping 透传给底层服务
func (c *Cached) Ping(ctx context.Context) error {
	if p, ok := c.Service.(core.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
