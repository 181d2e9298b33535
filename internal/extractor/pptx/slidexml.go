package pptx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/acrofind/internal/domain"
)

const (
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	uriTable         = "http://schemas.openxmlformats.org/drawingml/2006/table"

	marginSide   = emuPerInch / 2
	marginTop    = emuPerInch
	marginBottom = emuPerInch
	titleHeight  = emuPerInch / 2
	minRowHeight = 370840 // 约 0.4 英寸
)

// renderSummarySlide 生成汇总页 XML：标题文本框 + 三列表格（Acronym / Definition / Slide Numbers）。
//
// 版面：左右各 0.5 英寸边距，表格从顶部 1 英寸开始，底部再留 1 英寸余量；
// 列宽按 15% / 60% / 25% 分配，最后一列吸收取整误差。
func renderSummarySlide(rr domain.Report, cx, cy int64) []byte {
	usable := cx - 2*marginSide
	if usable <= 0 {
		usable = cx
	}

	rows := len(rr.Items) + 1
	tableH := cy - marginTop - marginBottom - emuPerInch
	rowH := int64(minRowHeight)
	if tableH > 0 && tableH/int64(rows) > rowH {
		rowH = tableH / int64(rows)
	}
	tableH = rowH * int64(rows)

	var widths [3]int64
	rest := usable
	for i := 0; i < 2; i++ {
		widths[i] = usable * summaryColumnPermille[i] / 1000
		rest -= widths[i]
	}
	widths[2] = rest

	var b strings.Builder
	b.Write(xmlHeader)
	fmt.Fprintf(&b, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsDrawingML, nsRelationships, nsPresentationML)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	// 标题：文本框而不是占位符，保证任何版式下都能显示。
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`,
		marginSide, marginTop-titleHeight, usable, titleHeight)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>`)
	writeParagraph(&b, SummaryTitle, true)
	b.WriteString(`</p:txBody></p:sp>`)

	// 表格。
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="3" name="Acronym Table"/>`)
	b.WriteString(`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`)
	fmt.Fprintf(&b, `<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`, marginSide, marginTop, usable, tableH)
	fmt.Fprintf(&b, `<a:graphic><a:graphicData uri="%s"><a:tbl><a:tblPr firstRow="1" bandRow="1"/><a:tblGrid>`, uriTable)
	for _, w := range widths {
		fmt.Fprintf(&b, `<a:gridCol w="%d"/>`, w)
	}
	b.WriteString(`</a:tblGrid>`)

	writeRow(&b, rowH, SummaryHeaders[:], true)
	for _, it := range rr.Items {
		def := strings.TrimSpace(it.Definition)
		if def == "" {
			def = UnknownDefinition
		}
		writeRow(&b, rowH, []string{it.Acronym, def, joinInts(it.Slides)}, false)
	}

	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(b.String())
}

func writeRow(b *strings.Builder, h int64, cells []string, bold bool) {
	fmt.Fprintf(b, `<a:tr h="%d">`, h)
	for _, c := range cells {
		b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
		writeParagraph(b, c, bold)
		b.WriteString(`</a:txBody><a:tcPr/></a:tc>`)
	}
	b.WriteString(`</a:tr>`)
}

func writeParagraph(b *strings.Builder, text string, bold bool) {
	b.WriteString(`<a:p><a:r><a:rPr lang="en-US"`)
	if bold {
		b.WriteString(` b="1"`)
	}
	b.WriteString(` dirty="0"/><a:t>`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</a:t></a:r></a:p>`)
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}
