// Package logx 构造 slog.Logger，并通过 context 传递。
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelCritical 高于 ERROR，用于致命错误（退出前最后一条日志）。
const LevelCritical = slog.Level(12)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel 解析 DEBUG/INFO/WARNING(WARN)/ERROR/CRITICAL，大小写不敏感。
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log-level 只能是 DEBUG/INFO/WARNING/ERROR/CRITICAL，实际是 %q", s)
	}
}

// LevelName 是 ParseLevel 的反向映射（输出统一用 WARNING/CRITICAL 的写法）。
func LevelName(l slog.Level) string {
	switch {
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// New 创建一个独立的 logger（不修改全局 slog.Default）。
// 多个 writer 时同时写入（例如 stderr + 日志文件）。
func New(level slog.Level, format string, ws ...io.Writer) *slog.Logger {
	var w io.Writer
	switch len(ws) {
	case 0:
		w = io.Discard
	case 1:
		w = ws[0]
	default:
		w = io.MultiWriter(ws...)
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelName(lv))
				}
			}
			return a
		},
	}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// OpenFile 以追加方式打开日志文件（父目录不存在时创建）。
func OpenFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type ctxKey struct{}

// WithLogger 把 logger 放入 context。
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出 logger；缺失时返回丢弃所有输出的 logger（库代码不应因此崩溃）。
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return discard
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))
