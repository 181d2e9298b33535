package extractor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// Registry 是按扩展名索引的只读注册表。
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry(extractors ...Extractor) (Registry, error) {
	byExt := make(map[string]Extractor, 8)
	for _, x := range extractors {
		if x == nil {
			return Registry{}, fmt.Errorf("extractor 不能为空")
		}
		if strings.TrimSpace(x.Name()) == "" {
			return Registry{}, fmt.Errorf("extractor.Name 不能为空")
		}
		for _, ext := range x.Extensions() {
			ext = normExt(ext)
			if ext == "" {
				return Registry{}, fmt.Errorf("extractor %q 声明了空扩展名", x.Name())
			}
			if prev, ok := byExt[ext]; ok {
				return Registry{}, fmt.Errorf("扩展名 %q 重复注册：%s 与 %s", ext, prev.Name(), x.Name())
			}
			byExt[ext] = x
		}
	}
	return Registry{byExt: byExt}, nil
}

// ForPath 按 path 的扩展名选择 extractor；不支持时返回 ErrCodeUnsupportedFormat。
func (r Registry) ForPath(path string) (Extractor, error) {
	ext := normExt(filepath.Ext(path))
	if x, ok := r.byExt[ext]; ok {
		return x, nil
	}
	return nil, &domain.Error{
		Code: domain.ErrCodeUnsupportedFormat,
		Path: path,
		Err:  fmt.Errorf("不支持的文件类型 %q（支持：%s）", ext, strings.Join(r.Extensions(), " ")),
	}
}

// Extensions 返回所有已注册扩展名（排序后）。
func (r Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
