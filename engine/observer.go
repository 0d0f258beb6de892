package engine

import (
	"time"

	"github.com/rushteam/hybridrec/core"
)

// 请求结果分类
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNLPError     = "nlp_error"
	OutcomeError        = "error"
)

// Observer 接收编排过程中的打点事件，metrics.Collectors 实现此接口。
type Observer interface {
	ObserveRequest(outcome string, elapsed time.Duration, results int)
	ObserveStage(stage string, elapsed time.Duration)
	ObserveRecall(source string, status core.RecallStatus, elapsed time.Duration)
	AuditFailed()
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, time.Duration, int)              {}
func (nopObserver) ObserveStage(string, time.Duration)                     {}
func (nopObserver) ObserveRecall(string, core.RecallStatus, time.Duration) {}
func (nopObserver) AuditFailed()                                           {}
