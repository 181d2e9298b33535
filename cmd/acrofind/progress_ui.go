package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/John-Robertt/acrofind/internal/app/run"
	"github.com/John-Robertt/acrofind/internal/config"
	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/logx"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的阶段输出。
// 所有过程信息写到 stderr，不污染 stdout 的报告输出。
type progressUI struct {
	w io.Writer
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	fmt.Fprintf(p.w, "[%s] acrofind %s\n", time.Now().Format("15:04:05"), filepath.Base(eff.Path))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  config: %s\n", orNone(eff.ConfigFile))
	fmt.Fprintf(p.w, "  known_acronyms: %s\n", orNone(eff.KnownAcronyms))
	fmt.Fprintf(p.w, "  exclude_acronyms: %s (+%d 内置", orNone(eff.ExcludeAcronyms), len(domain.DefaultExclusions))
	if n := len(eff.ExtraExclusions); n > 0 {
		fmt.Fprintf(p.w, ", +%d 配置文件", n)
	}
	fmt.Fprintln(p.w, ")")
	fmt.Fprintf(p.w, "  log: %s %s%s\n", logx.LevelName(eff.LogLevel), eff.LogFormat, formatLogFile(eff.LogFile))
	fmt.Fprintf(p.w, "  write_slide: %s\n", onOff(eff.WriteSlide))
	if eff.ReportPath != "" {
		fmt.Fprintf(p.w, "  report: %s\n", eff.ReportPath)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "tables":
		fmt.Fprintf(p.w, "读表: known=%d exclusions=%d skipped_rows=%d (%s)\n",
			intField(fields, "known"), intField(fields, "exclusions"), intField(fields, "skipped_rows"), formatShortDuration(dur),
		)
	case "extract":
		fmt.Fprintf(p.w, "抽取: slides=%d shapes=%d (%s)\n",
			intField(fields, "slides"), intField(fields, "shapes"), formatShortDuration(dur),
		)
	case "collect":
		fmt.Fprintf(p.w, "匹配: acronyms=%d new=%d excluded=%d (%s)\n",
			intField(fields, "acronyms"), intField(fields, "new"), intField(fields, "excluded"), formatShortDuration(dur),
		)
	case "write":
		fmt.Fprintf(p.w, "写出: (%s)\n", formatShortDuration(dur))
		for _, k := range []string{"report", "slide"} {
			if v, ok := fields[k].(string); ok && v != "" {
				fmt.Fprintf(p.w, "  %s: %s\n", k, v)
			}
		}
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnFinish(rr domain.Report, elapsed time.Duration) {
	fmt.Fprintf(p.w, "耗时: %s\n\n", formatElapsed(elapsed))
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatLogFile(path string) string {
	if path == "" {
		return ""
	}
	return " (+ " + path + ")"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
