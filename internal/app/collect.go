// Package app 把抽取结果汇总为报告条目。
package app

import (
	"sort"

	"github.com/John-Robertt/acrofind/internal/acronym"
	"github.com/John-Robertt/acrofind/internal/domain"
)

// Collect 把所有幻灯片中的候选缩略词按 Acronym 分组为 ItemResult。
//
// - items 稳定排序：按 Acronym 字典序
// - 同一形状内多次命中只记一个 location，但 Occurrences 逐次累加
// - 释义：已知表中的非空释义优先；否则取文档顺序中第一个在同一形状文本里找到的释义
// - 状态：在已知表中 => known；否则找到释义 => defined；否则 => new
//
// excluded 是被排除集合拦下的大写词次数（仅用于统计）。
func Collect(slides []domain.Slide, known domain.Glossary, excl domain.ExclusionSet) (items []domain.ItemResult, excluded int) {
	index := make(map[domain.Acronym]int, 64)
	items = make([]domain.ItemResult, 0, 64)

	for _, sl := range slides {
		for _, sh := range sl.Shapes {
			found, ex := acronym.Candidates(sh.Text, excl)
			excluded += ex

			seen := make(map[domain.Acronym]bool, len(found))
			for _, a := range found {
				idx, ok := index[a]
				if !ok {
					idx = len(items)
					index[a] = idx
					items = append(items, domain.ItemResult{Acronym: string(a)})
				}
				it := &items[idx]
				it.Occurrences++
				if seen[a] {
					continue
				}
				seen[a] = true
				it.Slides = append(it.Slides, sl.Number)
				it.Locations = append(it.Locations, domain.Occurrence{Slide: sl.Number, ShapeID: sh.ID, Shape: sh.Name})

				if it.Definition == "" {
					if def, ok := acronym.FindDefinition(sh.Text, a); ok {
						it.Definition = def
						it.DefinitionSource = domain.DefinitionFromSlideText
					}
				}
			}
		}
	}

	for i := range items {
		resolveStatus(&items[i], known)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Acronym < items[j].Acronym })
	return items, excluded
}

func resolveStatus(it *domain.ItemResult, known domain.Glossary) {
	def, ok := known.Lookup(domain.Acronym(it.Acronym))
	switch {
	case ok:
		it.Status = domain.StatusKnown
		if def != "" {
			it.Definition = def
			it.DefinitionSource = domain.DefinitionFromKnownList
		}
	case it.Definition != "":
		it.Status = domain.StatusDefined
	default:
		it.Status = domain.StatusNew
	}
}
