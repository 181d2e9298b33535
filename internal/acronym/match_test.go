package acronym

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/acrofind/internal/domain"
)

func TestIsCandidate(t *testing.T) {
	excl := domain.NewExclusionSet("TBD")

	cases := []struct {
		word string
		want domain.Acronym
		ok   bool
	}{
		{"NASA", "NASA", true},
		{"4CYC", "4CYC", true},
		{"I&T", "I&T", true},
		{"L/TA", "L/TA", true},
		{"X-RAY", "X-RAY", true},
		{"A1-B2", "A1-B2", true},

		{"THE", "", false},      // 内置排除
		{"TBD", "", false},      // 额外排除
		{"nasa", "", false},     // 原文必须大写
		{"Nasa", "", false},     // 首字母大写的普通词
		{"2024", "", false},     // 纯数字
		{"ABC-1234", "", false}, // 编号
		{"12-34-56", "", false}, // 数字段
		{"ABCDEFG", "", false},  // 超长
		{"Q", "", false},        // 单字母
		{"FOO_BAR", "", false},  // 下划线
		{"AB&CD", "", false},    // '&' 只允许单字母两侧
		{"CAFÉ", "", false},     // 含重音字母的大写单词
		{"ÉTAT", "", false},
	}
	for _, c := range cases {
		got, ok := IsCandidate(c.word, excl)
		assert.Equal(t, c.ok, ok, "word=%q", c.word)
		assert.Equal(t, c.want, got, "word=%q", c.word)
	}
}

func TestTokens_KeepsSpecialCharacters(t *testing.T) {
	got := Tokens("The I&T team (L/TA) checked X-RAY, NASA's data.")
	assert.Equal(t, []string{"The", "I&T", "team", "L/TA", "checked", "X-RAY", "NASA", "s", "data"}, got)
}

func TestTokens_UnicodeWordsStayWhole(t *testing.T) {
	got := Tokens("CAFÉ DÉFENSE ÉTAT Straße -API- /L/TA/ naïve")
	assert.Equal(t, []string{"CAFÉ", "DÉFENSE", "ÉTAT", "Straße", "API", "L/TA", "naïve"}, got)
}

func TestCandidates_AccentedWordsAreNotAcronyms(t *testing.T) {
	found, excluded := Candidates("CAFÉ DÉFENSE ÉTAT Straße", domain.NewExclusionSet())
	assert.Empty(t, found)
	assert.Zero(t, excluded)
}

func TestCandidates_SingleLetterExclusionsNotCounted(t *testing.T) {
	// 代词 I 与句首的 A 不是缩略词形态，不计入 excluded。
	found, excluded := Candidates("I think A plan is OK. A NASA plan.", domain.NewExclusionSet())
	assert.Equal(t, []domain.Acronym{"NASA"}, found)
	assert.Equal(t, 1, excluded)
}

func TestCandidates_CountsExcludedUppercaseOnly(t *testing.T) {
	excl := domain.NewExclusionSet()
	found, excluded := Candidates("THE API and the SDK are OK", excl)
	assert.Equal(t, []domain.Acronym{"API", "SDK"}, found)
	// THE 与 OK 是大写且被排除；小写 "the" 不计入。
	assert.Equal(t, 2, excluded)
}

func TestCandidates_NoAcronyms(t *testing.T) {
	found, excluded := Candidates("nothing to see here, 2024-01-02.", domain.NewExclusionSet())
	assert.Empty(t, found)
	assert.Zero(t, excluded)
}
