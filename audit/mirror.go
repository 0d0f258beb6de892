package audit

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Mirror 组合审计存储：先写主存储，成功后把事件交给 Publisher。
// 发布是尽力而为的，主存储的结果即 Mirror 的结果。
type Mirror struct {
	Primary   core.AuditStore
	Publisher Publisher
}

func NewMirror(primary core.AuditStore, pub Publisher) *Mirror {
	return &Mirror{Primary: primary, Publisher: pub}
}

func (m *Mirror) Save(ctx context.Context, rec *core.AuditRecord) error {
	if err := m.Primary.Save(ctx, rec); err != nil {
		return err
	}
	ev := newEvent(EventChoice, rec.QueryID)
	ev.Record = rec
	m.Publisher.Publish(ctx, ev)
	return nil
}

func (m *Mirror) AttachFeedback(ctx context.Context, queryID string, rating int, text string) error {
	if err := m.Primary.AttachFeedback(ctx, queryID, rating, text); err != nil {
		return err
	}
	ev := newEvent(EventFeedback, queryID)
	ev.Rating = rating
	ev.FeedbackText = text
	m.Publisher.Publish(ctx, ev)
	return nil
}

func (m *Mirror) Get(ctx context.Context, queryID string) (*core.AuditRecord, error) {
	return m.Primary.Get(ctx, queryID)
}

// Ping 仅检查主存储
func (m *Mirror) Ping(ctx context.Context) error {
	if p, ok := m.Primary.(core.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close 关闭 Publisher
func (m *Mirror) Close() error {
	return m.Publisher.Close()
}

var (
	_ core.AuditStore = (*Mirror)(nil)
	_ core.Pinger     = (*Mirror)(nil)
)
