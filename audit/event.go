// Package audit 把推荐审计记录与用户反馈镜像到消息队列，供离线分析消费。
package audit

import (
	"context"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// EventType 审计事件类型
type EventType string

const (
	EventChoice   EventType = "choice"
	EventFeedback EventType = "feedback"
)

// Event 写入消息队列的审计事件
type Event struct {
	Type         EventType         `json:"type"`
	QueryID      string            `json:"query_id"`
	Record       *core.AuditRecord `json:"record,omitempty"`
	Rating       int               `json:"rating,omitempty"`
	FeedbackText string            `json:"feedback_text,omitempty"`
	Timestamp    int64             `json:"timestamp"`
}

// Publisher 事件发布器。Publish 不阻塞调用方，发送失败由实现自行记录。
type Publisher interface {
	Publish(ctx context.Context, ev *Event)
	Close() error
}

func newEvent(t EventType, queryID string) *Event {
	return &Event{Type: t, QueryID: queryID, Timestamp: time.Now().Unix()}
}
