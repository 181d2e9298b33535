// Package acronym 负责从纯文本中切词、判定候选缩略词，并在上下文中寻找释义。
//
// 本包只处理字符串，不关心文本来自哪一种文档格式。
package acronym

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// 切词：Unicode 字母/数字/下划线，以及缩略词里常见的 '/', '&', '-'。
// RE2 的 \w 与 \b 只认 ASCII，CAFÉ 会被切成 CAF，所以这里显式列出 Unicode 类别，
// 再由 Tokens 去掉首尾的 '/', '&', '-'。
var tokenRE = regexp.MustCompile(`[\p{L}\p{M}\p{N}_/&-]+`)

var (
	digitsRE = regexp.MustCompile(`^[0-9]+$`)
	// 形如 ABC-12345 的编号（工单号、型号），不是缩略词。
	serialRE = regexp.MustCompile(`^[A-Z]+-[0-9]{2,5}$`)
	// 形如 123-456 的数字段。
	numericRunRE = regexp.MustCompile(`^([0-9]+-)+[0-9]+$`)
)

// 允许的缩略词形态（必须整体匹配，且原文必须是大写）。
var candidateREs = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2,6}$`),          // NASA
	regexp.MustCompile(`^[0-9][A-Z]{1,5}$`),     // 4CYC
	regexp.MustCompile(`^[A-Z]&[A-Z]$`),         // I&T
	regexp.MustCompile(`^[A-Z]+/[A-Z]+$`),       // L/TA
	regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]+$`), // X-RAY
}

// Tokens 按文档顺序返回 text 中的所有词。
func Tokens(text string) []string {
	raw := tokenRE.FindAllString(text, -1)
	out := raw[:0]
	for _, w := range raw {
		w = strings.TrimFunc(w, func(r rune) bool { return !isWordRune(r) })
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r)
}

// IsCandidate 判定 word 是否可能是缩略词；是则返回规范化后的 Acronym。
//
// 判定顺序（固定）：
// 1) 排除集合（按大写比较）
// 2) 纯数字、编号（ABC-123）、数字段（12-34）
// 3) 任一形态整体匹配
func IsCandidate(word string, excl domain.ExclusionSet) (domain.Acronym, bool) {
	a := domain.NormalizeAcronym(word)
	if a == "" || excl.Has(a) {
		return "", false
	}
	if !hasAcronymShape(word) {
		return "", false
	}
	return a, true
}

// hasAcronymShape 是 IsCandidate 去掉排除集合后的部分。
func hasAcronymShape(word string) bool {
	if digitsRE.MatchString(word) {
		return false
	}
	u := strings.ToUpper(word)
	if serialRE.MatchString(u) || numericRunRE.MatchString(u) {
		return false
	}
	for _, re := range candidateREs {
		if re.MatchString(word) {
			return true
		}
	}
	return false
}

// Candidates 对 text 切词并返回所有候选（保持文档顺序，允许重复），以及被排除集合拦下的次数。
func Candidates(text string, excl domain.ExclusionSet) (found []domain.Acronym, excluded int) {
	for _, w := range Tokens(text) {
		if a, ok := IsCandidate(w, excl); ok {
			found = append(found, a)
			continue
		}
		// 只统计本来会被当作缩略词的词：代词 I、句首的 A、小写 the 都不算。
		if a := domain.NormalizeAcronym(w); excl.Has(a) && hasAcronymShape(w) {
			excluded++
		}
	}
	return found, excluded
}
