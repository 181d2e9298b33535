package domain

import (
	"encoding/json"
	"sort"
)

const (
	// StatusKnown：出现在已知表中。
	StatusKnown = "known"
	// StatusDefined：不在已知表中，但在幻灯片文本里找到了释义。
	StatusDefined = "defined"
	// StatusNew：既不在已知表中，也没有找到释义。
	StatusNew = "new"
)

const (
	DefinitionFromKnownList = "known_list"
	DefinitionFromSlideText = "slide_text"
)

// Report 是对外稳定输出（stdout JSON / --report 文件）的结构。
//
// 约束：同一输入必须得到逐字节相同的 JSON，因此这里不放时间戳等非确定字段。
type Report struct {
	Source string `json:"source"`
	Slides int    `json:"slides"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Acronyms    int `json:"acronyms"`
	Known       int `json:"known"`
	Defined     int `json:"defined"`
	New         int `json:"new"`
	Occurrences int `json:"occurrences"`

	// 以下两项不由 items 推导，由流水线填写。
	Excluded    int `json:"excluded"`
	SkippedRows int `json:"skipped_rows"`
}

type ItemResult struct {
	Acronym          string `json:"acronym"`
	Definition       string `json:"definition"`
	DefinitionSource string `json:"definition_source"`
	Status           string `json:"status"`

	Slides      []int        `json:"slides"`
	Occurrences int          `json:"occurrences"`
	Locations   []Occurrence `json:"locations"`
}

// Finalize 做三件事：
// 1) items 稳定排序：按 acronym 字典序
// 2) 每个 item 的 slides 升序去重；locations 按 (slide, shape_id) 排序
// 3) summary 的计数项由 items 计算得出
func (r *Report) Finalize() {
	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Acronym < r.Items[j].Acronym })

	s := ReportSummary{
		Excluded:    r.Summary.Excluded,
		SkippedRows: r.Summary.SkippedRows,
	}
	for i := range r.Items {
		it := &r.Items[i]
		it.Slides = uniqueSortedInts(it.Slides)
		if it.Locations == nil {
			it.Locations = []Occurrence{}
		}
		sort.SliceStable(it.Locations, func(a, b int) bool {
			la, lb := it.Locations[a], it.Locations[b]
			if la.Slide != lb.Slide {
				return la.Slide < lb.Slide
			}
			return la.ShapeID < lb.ShapeID
		})

		s.Acronyms++
		s.Occurrences += it.Occurrences
		switch it.Status {
		case StatusKnown:
			s.Known++
		case StatusDefined:
			s.Defined++
		case StatusNew:
			s.New++
		}
	}
	r.Summary = s
}

// NewItems 返回 status=new 的条目（保持 Items 的顺序）。
func (r Report) NewItems() []ItemResult {
	out := make([]ItemResult, 0, r.Summary.New)
	for _, it := range r.Items {
		if it.Status == StatusNew {
			out = append(out, it)
		}
	}
	return out
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(Alias(r))
}

func uniqueSortedInts(in []int) []int {
	if len(in) == 0 {
		return []int{}
	}
	out := append([]int(nil), in...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
