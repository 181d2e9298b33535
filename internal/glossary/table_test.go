package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/acrofind/internal/domain"
)

func TestLoadKnown_WithHeader(t *testing.T) {
	p := writeTable(t, "known.csv", "Acronym,Definition\nnasa,National Aeronautics and Space Administration\nAPI,\n")

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, domain.Glossary{
		"NASA": "National Aeronautics and Space Administration",
		"API":  "",
	}, g)
}

func TestLoadKnown_HeaderColumnsInAnyOrder(t *testing.T) {
	p := writeTable(t, "known.csv", "Notes,Definition,Acronym\nx,Key Performance Indicator,KPI\n")

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "Key Performance Indicator", g["KPI"])
}

func TestLoadKnown_HeaderlessTSV(t *testing.T) {
	p := writeTable(t, "known.tsv", "SLA\tService Level Agreement\nROI\n")

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "Service Level Agreement", g["SLA"])
	def, ok := g.Lookup("ROI")
	assert.True(t, ok)
	assert.Equal(t, "", def)
}

func TestLoadKnown_SkipsMalformedRows(t *testing.T) {
	p := writeTable(t, "known.csv", ""+
		"\ufeffAcronym,Definition\n"+
		",orphan definition\n"+ // 第 2 行：缩略词为空
		"AB\"C,bare quote\n"+ // 第 3 行：非法引号
		"TWO WORDS,bad\n"+ // 第 4 行：缩略词含空白
		"# comment line\n"+
		"GPU,Graphics Processing Unit\n"+
		"GPU,Something Else\n") // 第 7 行：释义冲突

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	assert.Equal(t, domain.Glossary{"GPU": "Graphics Processing Unit"}, g)

	lines := make([]int, 0, len(issues))
	for _, is := range issues {
		assert.Equal(t, p, is.Path)
		lines = append(lines, is.Line)
	}
	assert.Equal(t, []int{2, 3, 4, 7}, lines)
}

func TestLoadKnown_HeaderlessTooManyColumns(t *testing.T) {
	p := writeTable(t, "known.csv", "CPU,Central Processing Unit,extra\nRAM,Random Access Memory\n")

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, domain.Glossary{"RAM": "Random Access Memory"}, g)
}

func TestLoadKnown_HeaderWithoutAcronymColumn(t *testing.T) {
	p := writeTable(t, "known.csv", "Definition,Other\nfoo,bar\n")

	_, _, err := LoadKnown(p)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeTableInvalid, domain.ErrorCode(err))
}

func TestLoadKnown_UnclosedQuoteOnlySkipsItsRow(t *testing.T) {
	p := writeTable(t, "known.csv", ""+
		"Acronym,Definition\n"+
		"NASA,\"National Aeronautics\n"+ // 第 2 行：引号未闭合
		"FBI,Federal Bureau\n"+
		"CIA,\"Central Intelligence, Agency\"\n")

	g, issues, err := LoadKnown(p)
	require.NoError(t, err)
	assert.Equal(t, domain.Glossary{
		"FBI": "Federal Bureau",
		"CIA": "Central Intelligence, Agency",
	}, g)
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].Line)
	assert.Contains(t, issues[0].Reason, "quote")
}

func TestLoadKnown_HeaderWithoutDefinitionColumn(t *testing.T) {
	p := writeTable(t, "known.csv", "Acronym,Notes\nNASA,space\n")

	_, _, err := LoadKnown(p)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeTableInvalid, domain.ErrorCode(err))
}

func TestLoadKnown_FileNotFound(t *testing.T) {
	_, _, err := LoadKnown(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInputNotFound, domain.ErrorCode(err))
}

func TestLoadExclusions(t *testing.T) {
	p := writeTable(t, "exclude.csv", "Exclusion\ntbd\nTBD\n\nFYI\n")

	got, issues, err := LoadExclusions(p)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, []domain.Acronym{"TBD", "FYI"}, got)
}

func TestLoadExclusions_CRLFAndComments(t *testing.T) {
	p := writeTable(t, "exclude.csv", "Acronym\r\n# internal\r\nETA\r\n\r\nASAP\r\n")

	got, issues, err := LoadExclusions(p)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, []domain.Acronym{"ETA", "ASAP"}, got)
}

func TestLoadExclusions_Headerless(t *testing.T) {
	p := writeTable(t, "exclude.csv", "ETA\nASAP,extra\n")

	got, issues, err := LoadExclusions(p)
	require.NoError(t, err)
	assert.Equal(t, []domain.Acronym{"ETA"}, got)
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].Line)
}

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
