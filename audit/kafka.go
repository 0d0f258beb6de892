package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConfig Kafka 发布器配置
type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	ClientID     string        `koanf:"client_id"`
	RequiredAcks int16         `koanf:"required_acks"` // 1=leader, -1=all
	Compression  string        `koanf:"compression"`   // gzip, snappy, lz4, zstd
	MaxRetries   int           `koanf:"max_retries"`
	FlushTimeout time.Duration `koanf:"flush_timeout"`
}

// Kafka 基于 franz-go 的异步事件发布器，以 query_id 为 key 保证同一次推荐的事件有序。
type Kafka struct {
	client       *kgo.Client
	topic        string
	flushTimeout time.Duration
	logger       zerolog.Logger
}

// NewKafka 创建 Kafka 发布器
func NewKafka(cfg KafkaConfig, logger zerolog.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("audit: kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("audit: kafka topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "hybridrec-audit"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RecordRetries(cfg.MaxRetries),
	}

	// 幂等写要求 all ack
	if cfg.RequiredAcks == -1 {
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	} else {
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	}

	switch cfg.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Kafka{
		client:       client,
		topic:        cfg.Topic,
		flushTimeout: cfg.FlushTimeout,
		logger:       logger.With().Str("component", "audit_kafka").Logger(),
	}, nil
}

// Publish 异步发送，不阻塞
func (k *Kafka) Publish(ctx context.Context, ev *Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		k.logger.Error().Err(err).Str("query_id", ev.QueryID).Msg("failed to encode audit event")
		return
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(ev.QueryID),
		Value: data,
	}
	k.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn().Err(err).Str("query_id", ev.QueryID).Str("type", string(ev.Type)).
				Msg("failed to publish audit event")
		}
	})
}

// Ping 检查 broker 连通性
func (k *Kafka) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

// Close 等待缓冲中的事件发送完成后关闭
func (k *Kafka) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), k.flushTimeout)
	defer cancel()
	err := k.client.Flush(ctx)
	k.client.Close()
	return err
}

var _ Publisher = (*Kafka)(nil)
