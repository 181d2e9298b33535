package domain

import "strings"

// Acronym 是规范化后的缩略词（全大写，已 TrimSpace）。
//
// 约束：报告、已知表、排除表之间一律以 Acronym 比较，避免大小写差异造成漏判。
type Acronym string

// NormalizeAcronym 把任意输入规范化为 Acronym；空白输入返回 ""。
func NormalizeAcronym(s string) Acronym {
	return Acronym(strings.ToUpper(strings.TrimSpace(s)))
}

// Occurrence 记录一次命中的来源位置。
type Occurrence struct {
	Slide   int    `json:"slide"`
	ShapeID string `json:"shape_id"`
	Shape   string `json:"shape"`
}
