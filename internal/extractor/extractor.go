// Package extractor 把“文档格式差异”限制在各自的实现包内部；核心流程只依赖统一接口与 domain.Slide。
package extractor

import (
	"context"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// Extractor 从一种文档格式中抽取逐页文本。
//
// 约束：
// - Extract 只读输入文件，不做任何写入
// - 相同输入 => 相同输出（页序、形状顺序都必须稳定）
// - 文件不存在返回 ErrCodeInputNotFound；文件损坏返回 ErrCodeDocumentInvalid
type Extractor interface {
	Name() string
	// Extensions 返回支持的扩展名（小写，带 '.'）。
	Extensions() []string
	Extract(ctx context.Context, path string) ([]domain.Slide, error)
}

// SummaryWriter 是可选能力：在文档副本末尾追加缩略词汇总页。
type SummaryWriter interface {
	// SummaryPath 返回 src 对应的默认输出路径。
	SummaryPath(src string) string
	// AppendSummary 读取 src，把汇总页追加到末尾后写入 dst；src 不会被修改。
	AppendSummary(ctx context.Context, src, dst string, rr domain.Report) error
}
