package acronym

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// 释义正文：字母数字（含重音字母）、空白、逗号、斜杠、连字符。
const defBody = `([\p{L}\p{M}\p{N}_\s,/-]+)`

// RE2 的 \b 只认 ASCII，ÉABC 中的 ABC 也会被当成独立的词；这里用显式的非词字符做边界。
const (
	nonWord  = `[^\p{L}\p{M}\p{N}_]`
	acrStart = `(?:^|` + nonWord + `)`
	acrEnd   = `(?:$|` + nonWord + `)`
)

// definitionTemplates 中的 %s 会被替换为转义后的缩略词；顺序即优先级。
var definitionTemplates = []string{
	acrStart + `%s\s*\(` + defBody + `\)`,       // ABC (American Broadcasting Company)
	`\(` + defBody + `\)\s*%s` + acrEnd,         // (American Broadcasting Company) ABC
	acrStart + `%s:\s*` + defBody,               // ABC: American Broadcasting Company
	acrStart + `%s\s+-\s+` + defBody,            // ABC - American Broadcasting Company
	acrStart + `%s\s+stands\s+for\s+` + defBody, // ABC stands for American Broadcasting Company
	acrStart + `%s\s+means\s+` + defBody,        // ABC means American Broadcasting Company
}

// FindDefinition 在 text 中寻找 acr 的释义（大小写不敏感，第一条命中的规则胜出）。
//
// 释义截断到第一个换行处，并去掉首尾空白与多余的标点；过短或与缩略词本身相同的结果视为未命中。
func FindDefinition(text string, acr domain.Acronym) (string, bool) {
	if acr == "" || strings.TrimSpace(text) == "" {
		return "", false
	}
	q := regexp.QuoteMeta(string(acr))
	for _, tpl := range definitionTemplates {
		re, err := regexp.Compile(`(?i)` + strings.ReplaceAll(tpl, "%s", q))
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if def, ok := cleanDefinition(m[1], acr); ok {
			return def, true
		}
	}
	return "", false
}

func cleanDefinition(s string, acr domain.Acronym) (string, bool) {
	if i := strings.IndexAny(s, "\r\n\v"); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " ,/-")
	if len(s) < 2 || strings.EqualFold(s, string(acr)) {
		return "", false
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return "", false
	}
	return s, true
}
