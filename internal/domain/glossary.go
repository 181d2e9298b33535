package domain

// Glossary 是已知缩略词表：Acronym -> 释义（释义允许为空）。
type Glossary map[Acronym]string

// Lookup 对 nil 安全。
func (g Glossary) Lookup(a Acronym) (string, bool) {
	if g == nil {
		return "", false
	}
	def, ok := g[a]
	return def, ok
}

// ExclusionSet 是排除集合：命中的词无论是否匹配模式都不进入报告。
type ExclusionSet map[Acronym]struct{}

// DefaultExclusions 是内置排除项（常见的大写英文单词/缩写噪音）。
var DefaultExclusions = []Acronym{"I", "A", "OK", "ID", "NO", "AM", "PM", "THE"}

// NewExclusionSet 以内置排除项为基础构造集合，再合并 extra。
func NewExclusionSet(extra ...Acronym) ExclusionSet {
	s := make(ExclusionSet, len(DefaultExclusions)+len(extra))
	for _, a := range DefaultExclusions {
		s[a] = struct{}{}
	}
	s.Add(extra...)
	return s
}

func (s ExclusionSet) Add(as ...Acronym) {
	for _, a := range as {
		if a == "" {
			continue
		}
		s[a] = struct{}{}
	}
}

// Has 对 nil 安全。
func (s ExclusionSet) Has(a Acronym) bool {
	if s == nil {
		return false
	}
	_, ok := s[a]
	return ok
}
