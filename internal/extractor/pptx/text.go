package pptx

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// 幻灯片 XML 用 goquery 遍历：只需要“按文档顺序找到文本节点”，不需要严格的 XML 语义。
//
// 注意：HTML 解析器会把标签名转成小写（p:graphicFrame -> p:graphicframe），并忽略自闭合标记，
// 因此自闭合元素会“吞掉”后面的兄弟节点直到父元素的结束标签。这只影响树的形状，
// 不影响祖先关系与文档顺序；下面的选择器都只依赖这两点。
const (
	selShapes    = `p\:sp, p\:graphicframe`
	selFallback  = `mc\:fallback`
	selNvProps   = `p\:cnvpr`
	selTxBody    = `p\:txbody`
	selParagraph = `a\:p`
	selTextParts = `a\:t, a\:br, a\:tab`
	selTable     = `a\:tbl`
	selRow       = `a\:tr`
	selCell      = `a\:tc`
)

// ShapeTexts 按文档顺序抽取一张幻灯片中所有形状的文本（组合形状会被展开；无文本的形状被忽略）。
func ShapeTexts(slideXML []byte) ([]domain.ShapeText, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(slideXML))
	if err != nil {
		return nil, err
	}

	shapes := make([]domain.ShapeText, 0, 16)
	doc.Find(selShapes).Each(func(_ int, s *goquery.Selection) {
		// mc:AlternateContent 的 Fallback 是 Choice 的重复内容。
		if s.ParentsFiltered(selFallback).Length() > 0 {
			return
		}

		st := domain.ShapeText{Kind: domain.ShapeKindText}
		if nv := s.Find(selNvProps).First(); nv.Length() > 0 {
			st.ID = strings.TrimSpace(nv.AttrOr("id", ""))
			st.Name = strings.TrimSpace(nv.AttrOr("name", ""))
		}

		if goquery.NodeName(s) == "p:graphicframe" {
			tbl := s.Find(selTable).First()
			if tbl.Length() == 0 {
				return // 图表、SmartArt 等
			}
			st.Kind = domain.ShapeKindTable
			st.Text = tableText(tbl)
		} else {
			st.Text = bodyText(s.Find(selTxBody).First())
		}

		if strings.TrimSpace(st.Text) == "" {
			return
		}
		shapes = append(shapes, st)
	})
	return shapes, nil
}

// bodyText：段落之间用 "\n" 连接；段内 a:br 视为换行、a:tab 视为制表符。
func bodyText(body *goquery.Selection) string {
	if body.Length() == 0 {
		return ""
	}
	paras := make([]string, 0, 4)
	body.Find(selParagraph).Each(func(_ int, p *goquery.Selection) {
		paras = append(paras, paragraphText(p))
	})
	return strings.Join(paras, "\n")
}

func paragraphText(p *goquery.Selection) string {
	var b strings.Builder
	p.Find(selTextParts).Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "a:br":
			b.WriteByte('\n')
		case "a:tab":
			b.WriteByte('\t')
		default:
			b.WriteString(s.Text())
		}
	})
	return b.String()
}

// tableText：逐行逐格，非空单元格以空格连接。
func tableText(tbl *goquery.Selection) string {
	cells := make([]string, 0, 16)
	tbl.Find(selRow).Each(func(_ int, tr *goquery.Selection) {
		tr.Find(selCell).Each(func(_ int, tc *goquery.Selection) {
			if t := strings.TrimSpace(bodyText(tc.Find(`a\:txbody`).First())); t != "" {
				cells = append(cells, t)
			}
		})
	})
	return strings.Join(cells, " ")
}
