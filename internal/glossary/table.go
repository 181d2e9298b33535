// Package glossary 读取用户提供的已知缩略词表与排除表（两列分隔文本）。
//
// 表格式：
//   - 逗号分隔；扩展名为 .tsv/.tab 时用制表符
//   - 可选表头（大小写不敏感），例如 "Acronym,Definition" 或 "Exclusion"
//   - 无表头时：第 1 列为缩略词，第 2 列（可选）为释义
//   - 以 '#' 开头的行视为注释
//   - 每条记录占一行（单元格内不支持换行），一行的引号错误不会波及后面的行
//
// 整个文件不可读、或表头缺少必需列时返回 *domain.Error；单行格式错误只记为 RowIssue 并跳过。
package glossary

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// RowIssue 描述一行被跳过的原因（由上层决定如何告警）。
type RowIssue struct {
	Path   string
	Line   int
	Reason string
}

func (i RowIssue) String() string {
	return fmt.Sprintf("%s:%d：%s", i.Path, i.Line, i.Reason)
}

var (
	acronymHeaders    = []string{"acronym", "abbreviation", "term"}
	definitionHeaders = []string{"definition", "expansion", "meaning", "description"}
	exclusionHeaders  = []string{"exclusion", "exclude", "acronym"}
)

// LoadKnown 读取已知缩略词表。
//
// 重复条目：保留第一条非空释义；释义冲突的后续行记为 RowIssue。
func LoadKnown(path string) (domain.Glossary, []RowIssue, error) {
	rows, issues, err := readTable(path, acronymHeaders, definitionHeaders)
	if err != nil {
		return nil, nil, err
	}

	g := make(domain.Glossary, len(rows))
	for _, r := range rows {
		prev, seen := g[r.acronym]
		switch {
		case !seen || prev == "":
			g[r.acronym] = r.definition
		case r.definition != "" && r.definition != prev:
			issues = append(issues, RowIssue{Path: path, Line: r.line, Reason: fmt.Sprintf("%s 的释义与第一次出现时不一致，已忽略", r.acronym)})
		}
	}
	return g, issues, nil
}

// LoadExclusions 读取排除表，返回其中的缩略词（去重、保持文件顺序）。
// 内置排除项由调用方合并，这里只负责文件内容。
func LoadExclusions(path string) ([]domain.Acronym, []RowIssue, error) {
	rows, issues, err := readTable(path, exclusionHeaders, nil)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[domain.Acronym]struct{}, len(rows))
	out := make([]domain.Acronym, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.acronym]; ok {
			continue
		}
		seen[r.acronym] = struct{}{}
		out = append(out, r.acronym)
	}
	return out, issues, nil
}

type row struct {
	line       int
	acronym    domain.Acronym
	definition string
}

type columns struct {
	key        int
	value      int // -1 表示没有释义列
	headerless bool
}

func readTable(path string, keyHeaders, valueHeaders []string) ([]row, []RowIssue, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &domain.Error{Code: domain.ErrCodeInputNotFound, Path: path, Err: err}
		}
		return nil, nil, &domain.Error{Code: domain.ErrCodeIOFailed, Path: path, Err: err}
	}
	defer f.Close()

	comma := delimiterFor(path)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		rows   []row
		issues []RowIssue
		cols   *columns
		line   int
	)
	twoColumns := valueHeaders != nil

	for sc.Scan() {
		line++
		rec, err := parseLine(sc.Text(), comma)
		if err == io.EOF {
			// 空行或注释行
			continue
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				err = pe.Err
			}
			issues = append(issues, RowIssue{Path: path, Line: line, Reason: err.Error()})
			continue
		}

		trimCells(rec)
		if isBlank(rec) {
			continue
		}

		if cols == nil {
			// 第一条非空记录：决定是否为表头。
			c, isHeader, herr := detectHeader(rec, keyHeaders, valueHeaders)
			if herr != nil {
				return nil, nil, &domain.Error{Code: domain.ErrCodeTableInvalid, Path: path, Err: herr}
			}
			cols = &c
			if isHeader {
				continue
			}
		}

		rw, reason := parseRow(rec, *cols, twoColumns)
		if reason != "" {
			issues = append(issues, RowIssue{Path: path, Line: line, Reason: reason})
			continue
		}
		rw.line = line
		rows = append(rows, rw)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, &domain.Error{Code: domain.ErrCodeIOFailed, Path: path, Err: err}
	}
	return rows, issues, nil
}

// 单行上限；超过视为文件损坏。
const maxLineBytes = 1 << 20

// parseLine 用独立的 csv.Reader 解析一行，未闭合的引号只影响这一行。
func parseLine(s string, comma rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = comma
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.Read()
}

func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}

// detectHeader：只要首行任一单元格是已知列名，就按表头处理；此时缺少键列是整表错误。
func detectHeader(rec []string, keyHeaders, valueHeaders []string) (columns, bool, error) {
	c := columns{key: -1, value: -1}
	isHeader := false
	for i, cell := range rec {
		name := strings.ToLower(cell)
		if c.key < 0 && contains(keyHeaders, name) {
			c.key = i
			isHeader = true
			continue
		}
		if c.value < 0 && contains(valueHeaders, name) {
			c.value = i
			isHeader = true
		}
	}
	if !isHeader {
		c = columns{key: 0, value: -1, headerless: true}
		if valueHeaders != nil {
			c.value = 1
		}
		return c, false, nil
	}
	if c.key < 0 {
		return columns{}, true, fmt.Errorf("表头缺少缩略词列（可用列名：%s）", strings.Join(keyHeaders, "/"))
	}
	// 已知表有表头时必须有释义列。
	if valueHeaders != nil && c.value < 0 {
		return columns{}, true, fmt.Errorf("表头缺少释义列（可用列名：%s）", strings.Join(valueHeaders, "/"))
	}
	return c, true, nil
}

func parseRow(rec []string, c columns, twoColumns bool) (row, string) {
	key := cell(rec, c.key)
	if key == "" {
		return row{}, "缩略词为空"
	}
	if strings.ContainsAny(key, " \t") {
		return row{}, fmt.Sprintf("缩略词 %q 含有空白", key)
	}
	// 无表头时只认前两列（排除表只认第一列）；多出来的非空列说明分隔符或格式不对。
	limit := 1
	if twoColumns {
		limit = 2
	}
	if c.headerless {
		for i := limit; i < len(rec); i++ {
			if rec[i] != "" {
				return row{}, fmt.Sprintf("列数过多（期望最多 %d 列）", limit)
			}
		}
	}
	r := row{acronym: domain.NormalizeAcronym(key)}
	if c.value >= 0 {
		r.definition = cell(rec, c.value)
	}
	return r, ""
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func trimCells(rec []string) {
	for i := range rec {
		s := strings.TrimSpace(rec[i])
		if i == 0 {
			s = strings.TrimPrefix(s, "\ufeff")
		}
		rec[i] = s
	}
}

func isBlank(rec []string) bool {
	for _, s := range rec {
		if s != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
