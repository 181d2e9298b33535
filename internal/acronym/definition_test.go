package acronym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindDefinition_Formats(t *testing.T) {
	cases := []struct {
		name string
		text string
		acr  string
		want string
	}{
		{"parens after", "Contact ABC (American Broadcasting Company) today", "ABC", "American Broadcasting Company"},
		{"parens before", "the (Key Performance Indicator) KPI dashboard", "KPI", "Key Performance Indicator"},
		{"colon", "SLA: Service Level Agreement\nnext line", "SLA", "Service Level Agreement"},
		{"dash", "ROI - Return on Investment", "ROI", "Return on Investment"},
		{"stands for", "NASA stands for National Aeronautics and Space Administration", "NASA", "National Aeronautics and Space Administration"},
		{"means", "TBD means to be determined", "TBD", "to be determined"},
		{"accented definition", "SG (Société Générale) results", "SG", "Société Générale"},
		{"after line break", "Intro\nSLA: Service Level Agreement", "SLA", "Service Level Agreement"},
		{"case insensitive keyword", "API Stands For application programming interface", "API", "application programming interface"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := FindDefinition(c.text, domainAcr(c.acr))
			assert.True(t, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestFindDefinition_NoMatch(t *testing.T) {
	_, ok := FindDefinition("We shipped the API yesterday.", domainAcr("API"))
	assert.False(t, ok)

	// 缩略词必须是独立的词：XABC (...) 不能算作 ABC 的释义。
	_, ok = FindDefinition("XABC (Something Else)", domainAcr("ABC"))
	assert.False(t, ok)

	// 前面紧跟重音字母时也不是独立的词。
	_, ok = FindDefinition("ÉABC (Something Else)", domainAcr("ABC"))
	assert.False(t, ok)

	// 括号里只有数字不算释义。
	_, ok = FindDefinition("GPU (2024)", domainAcr("GPU"))
	assert.False(t, ok)
}

func TestFindDefinition_FirstRuleWins(t *testing.T) {
	got, ok := FindDefinition("CPU (Central Processing Unit). CPU: something else", domainAcr("CPU"))
	assert.True(t, ok)
	assert.Equal(t, "Central Processing Unit", got)
}
