// Package run 串起一次完整的扫描：读表 -> 抽取 -> 匹配/过滤 -> 报告（可选写出）。
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/John-Robertt/acrofind/internal/app"
	"github.com/John-Robertt/acrofind/internal/config"
	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/extractor"
	"github.com/John-Robertt/acrofind/internal/glossary"
	"github.com/John-Robertt/acrofind/internal/infra/fsx"
	"github.com/John-Robertt/acrofind/internal/logx"
)

// Execute 执行一次扫描并返回报告。
// 任何阶段失败都直接返回错误（带 error_code），不产生部分报告；坏行只告警并计入 skipped_rows。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg extractor.Registry) (domain.Report, error) {
	return ExecuteWithObserver(ctx, eff, reg, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg extractor.Registry, obs Observer) (domain.Report, error) {
	started := time.Now()
	log := logx.FromContext(ctx)

	if obs != nil {
		obs.OnStart(eff)
	}

	// 先选 extractor：不支持的格式不必再读表。
	x, err := reg.ForPath(eff.Path)
	if err != nil {
		return domain.Report{}, err
	}

	tablesStarted := time.Now()
	tb, err := loadTables(ctx, eff)
	if err != nil {
		return domain.Report{}, err
	}
	if obs != nil {
		obs.OnPhaseDone("tables", map[string]any{
			"known":        len(tb.known),
			"exclusions":   len(tb.excl),
			"skipped_rows": tb.skipped,
		}, time.Since(tablesStarted))
	}

	extractStarted := time.Now()
	slides, err := x.Extract(ctx, eff.Path)
	if err != nil {
		return domain.Report{}, err
	}
	shapes := 0
	for _, s := range slides {
		shapes += len(s.Shapes)
	}
	log.Info("presentation loaded", "path", eff.Path, "format", x.Name(), "slides", len(slides), "shapes", shapes)
	if obs != nil {
		obs.OnPhaseDone("extract", map[string]any{
			"slides": len(slides),
			"shapes": shapes,
		}, time.Since(extractStarted))
	}

	collectStarted := time.Now()
	items, excluded := app.Collect(slides, tb.known, tb.excl)
	rr := domain.Report{
		Source: eff.Path,
		Slides: len(slides),
		Items:  items,
	}
	rr.Summary.Excluded = excluded
	rr.Summary.SkippedRows = tb.skipped
	rr.Finalize()

	for _, it := range rr.Items {
		attrs := []any{"acronym", it.Acronym, "status", it.Status, "slides", it.Slides}
		if it.Definition != "" {
			attrs = append(attrs, "definition", it.Definition)
		}
		if it.Status == domain.StatusNew {
			log.Info("new acronym", attrs...)
		} else {
			log.Debug("acronym", attrs...)
		}
	}
	log.Info("scan finished",
		"acronyms", rr.Summary.Acronyms,
		"known", rr.Summary.Known,
		"defined", rr.Summary.Defined,
		"new", rr.Summary.New,
		"excluded", rr.Summary.Excluded,
	)
	if obs != nil {
		obs.OnPhaseDone("collect", map[string]any{
			"acronyms": rr.Summary.Acronyms,
			"new":      rr.Summary.New,
			"excluded": rr.Summary.Excluded,
		}, time.Since(collectStarted))
	}

	if eff.WriteSlide || eff.ReportPath != "" {
		writeStarted := time.Now()
		fields, err := writeOutputs(ctx, eff, x, rr)
		if err != nil {
			return domain.Report{}, err
		}
		if obs != nil {
			obs.OnPhaseDone("write", fields, time.Since(writeStarted))
		}
	}

	if obs != nil {
		obs.OnFinish(rr, time.Since(started))
	}
	return rr, nil
}

type tables struct {
	known   domain.Glossary
	excl    domain.ExclusionSet
	skipped int
}

func loadTables(ctx context.Context, eff config.EffectiveConfig) (tables, error) {
	log := logx.FromContext(ctx)
	tb := tables{excl: domain.NewExclusionSet(eff.ExtraExclusions...)}

	warn := func(issues []glossary.RowIssue) {
		for _, is := range issues {
			log.Warn("skipping malformed row", "file", is.Path, "line", is.Line, "reason", is.Reason)
		}
		tb.skipped += len(issues)
	}

	if eff.KnownAcronyms != "" {
		g, issues, err := glossary.LoadKnown(eff.KnownAcronyms)
		if err != nil {
			return tables{}, err
		}
		warn(issues)
		tb.known = g
		log.Info("known acronyms loaded", "path", eff.KnownAcronyms, "entries", len(g), "skipped", len(issues))
	}

	if eff.ExcludeAcronyms != "" {
		as, issues, err := glossary.LoadExclusions(eff.ExcludeAcronyms)
		if err != nil {
			return tables{}, err
		}
		warn(issues)
		tb.excl.Add(as...)
		log.Info("exclusions loaded", "path", eff.ExcludeAcronyms, "entries", len(as), "skipped", len(issues))
	}
	log.Debug("exclusion set ready", "size", len(tb.excl))
	return tb, nil
}

func writeOutputs(ctx context.Context, eff config.EffectiveConfig, x extractor.Extractor, rr domain.Report) (map[string]any, error) {
	log := logx.FromContext(ctx)
	fields := make(map[string]any, 2)

	if eff.ReportPath != "" {
		b, err := json.MarshalIndent(rr, "", "  ")
		if err != nil {
			return nil, err
		}
		b = append(b, '\n')
		if err := fsx.WriteFileAtomic(eff.ReportPath, b); err != nil {
			return nil, &domain.Error{Code: domain.ErrCodeIOFailed, Path: eff.ReportPath, Err: err}
		}
		fields["report"] = eff.ReportPath
		log.Info("report written", "path", eff.ReportPath)
	}

	if eff.WriteSlide {
		sw, ok := x.(extractor.SummaryWriter)
		if !ok {
			return nil, &domain.Error{Code: domain.ErrCodeUnsupportedFormat, Path: eff.Path, Err: fmt.Errorf("%s 不支持写出汇总页", x.Name())}
		}
		dst := sw.SummaryPath(eff.Path)
		if err := sw.AppendSummary(ctx, eff.Path, dst, rr); err != nil {
			return nil, err
		}
		fields["slide"] = dst
		log.Info("summary slide written", "path", dst, "rows", len(rr.Items))
	}
	return fields, nil
}
