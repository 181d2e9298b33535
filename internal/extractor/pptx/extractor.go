// Package pptx 读取 PowerPoint（OOXML）演示文稿的逐页文本，并能在副本末尾追加缩略词汇总页。
package pptx

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/extractor"
	"github.com/John-Robertt/acrofind/internal/logx"
)

var (
	_ extractor.Extractor     = Extractor{}
	_ extractor.SummaryWriter = Extractor{}
)

// Extractor 实现 PresentationML 家族（pptx/pptm/ppsx/ppsm/potx/potm）的文本抽取。
type Extractor struct{}

func (Extractor) Name() string { return "pptx" }

func (Extractor) Extensions() []string {
	return []string{".pptx", ".pptm", ".ppsx", ".ppsm", ".potx", ".potm"}
}

// Extract 按放映顺序返回每张幻灯片的形状文本。
func (Extractor) Extract(ctx context.Context, path string) ([]domain.Slide, error) {
	log := logx.FromContext(ctx)

	p, err := openPackage(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	info, err := p.presentation()
	if err != nil {
		return nil, err
	}
	log.Debug("presentation opened", "path", path, "slides", len(info.Slides), "main", info.Part)

	slides := make([]domain.Slide, 0, len(info.Slides))
	for i, ref := range info.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := p.read(ref.Part)
		if err != nil {
			return nil, err
		}
		shapes, err := ShapeTexts(b)
		if err != nil {
			return nil, p.invalid("幻灯片 %q 无法解析：%v", ref.Part, err)
		}
		slides = append(slides, domain.Slide{
			Number: i + 1,
			Part:   ref.Part,
			Shapes: shapes,
		})
		log.Debug("slide extracted", "slide", i+1, "part", ref.Part, "shapes", len(shapes))
	}
	return slides, nil
}

// OutputPath 返回追加汇总页后的输出路径：<dir>/<stem>_with_acronyms<ext>。
func OutputPath(src string) string {
	ext := filepath.Ext(src)
	return fmt.Sprintf("%s_with_acronyms%s", src[:len(src)-len(ext)], ext)
}

func (Extractor) SummaryPath(src string) string { return OutputPath(src) }

func (Extractor) AppendSummary(ctx context.Context, src, dst string, rr domain.Report) error {
	return AppendAcronymSlide(ctx, src, dst, rr)
}
