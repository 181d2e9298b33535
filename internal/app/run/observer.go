package run

import (
	"time"

	"github.com/John-Robertt/acrofind/internal/config"
	"github.com/John-Robertt/acrofind/internal/domain"
)

// Observer 用于把“运行进度/阶段结果”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用：tables / extract / collect / write。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFinish 在成功生成报告后调用（失败时不调用）。
	OnFinish(rr domain.Report, elapsed time.Duration)
}
