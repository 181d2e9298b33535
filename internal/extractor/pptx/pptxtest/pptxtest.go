// Package pptxtest 在测试中生成最小但结构完整的 .pptx 文件。
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Shape 描述幻灯片上的一个形状：文本框、表格或组合。
type Shape struct {
	ID   int
	Name string

	// Paragraphs 中的 "\n" 会写成 <a:br/>。
	Paragraphs []string
	// Table 非空时生成 graphicFrame 表格（忽略 Paragraphs）。
	Table [][]string
	// Group 非空时生成组合形状。
	Group []Shape
	// Fallback=true 时包在 mc:AlternateContent 里，Choice 与 Fallback 各放一份。
	Fallback bool
}

type Slide struct {
	// PartNumber 为 0 时使用序号（从 1 开始）。
	PartNumber int
	Shapes     []Shape
}

type Deck struct {
	Slides []Slide
	// CX/CY 为 0 时使用 16:9（12192000 x 6858000）。
	CX, CY int64
	// Layouts 为母版下各版式的 type；为空时使用默认 6 个（最后一个是 titleOnly）。
	Layouts []string
}

var defaultLayouts = []string{"title", "obj", "secHead", "twoObj", "comparison", "titleOnly"}

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsMC  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctMaster       = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctLayout       = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"

	relOffice = nsR + "/officeDocument"
	relSlide  = nsR + "/slide"
	relMaster = nsR + "/slideMaster"
	relLayout = nsR + "/slideLayout"
)

// Files 返回 deck 对应的全部部件（部件名 -> 内容）。
func Files(d Deck) map[string][]byte {
	cx, cy := d.CX, d.CY
	if cx == 0 || cy == 0 {
		cx, cy = 12192000, 6858000
	}
	layouts := d.Layouts
	if len(layouts) == 0 {
		layouts = defaultLayouts
	}

	files := make(map[string][]byte)
	put := func(name, body string) { files[name] = []byte(header + body) }

	var ct strings.Builder
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	fmt.Fprintf(&ct, `<Override PartName="/ppt/presentation.xml" ContentType="%s"/>`, ctPresentation)
	fmt.Fprintf(&ct, `<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="%s"/>`, ctMaster)

	put("_rels/.rels", fmt.Sprintf(`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="ppt/presentation.xml"/></Relationships>`, nsRel, relOffice))

	// 母版与版式。
	var lst, mrels strings.Builder
	for i, typ := range layouts {
		n := i + 1
		fmt.Fprintf(&lst, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, n)
		fmt.Fprintf(&mrels, `<Relationship Id="rId%d" Type="%s" Target="../slideLayouts/slideLayout%d.xml"/>`, n, relLayout, n)
		fmt.Fprintf(&ct, `<Override PartName="/ppt/slideLayouts/slideLayout%d.xml" ContentType="%s"/>`, n, ctLayout)
		put(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n),
			fmt.Sprintf(`<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" type="%s" preserve="1"><p:cSld name="%s"><p:spTree/></p:cSld></p:sldLayout>`, nsA, nsR, nsP, typ, typ))
		put(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", n),
			fmt.Sprintf(`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="../slideMasters/slideMaster1.xml"/></Relationships>`, nsRel, relMaster))
	}
	put("ppt/slideMasters/slideMaster1.xml",
		fmt.Sprintf(`<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld><p:spTree/></p:cSld><p:sldLayoutIdLst>%s</p:sldLayoutIdLst></p:sldMaster>`, nsA, nsR, nsP, lst.String()))
	put("ppt/slideMasters/_rels/slideMaster1.xml.rels", fmt.Sprintf(`<Relationships xmlns="%s">%s</Relationships>`, nsRel, mrels.String()))

	// 幻灯片。
	var ids, prels strings.Builder
	fmt.Fprintf(&prels, `<Relationship Id="rId1" Type="%s" Target="slideMasters/slideMaster1.xml"/>`, relMaster)
	for i, s := range d.Slides {
		n := s.PartNumber
		if n == 0 {
			n = i + 1
		}
		rid := i + 2
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, rid)
		fmt.Fprintf(&prels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, rid, relSlide, n)
		fmt.Fprintf(&ct, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="%s"/>`, n, ctSlide)
		put(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(s))
		put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n),
			fmt.Sprintf(`<Relationships xmlns="%s"><Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout2.xml"/></Relationships>`, nsRel, relLayout))
	}

	var pres strings.Builder
	fmt.Fprintf(&pres, `<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" saveSubsetFonts="1">`, nsA, nsR, nsP)
	pres.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(d.Slides) > 0 {
		fmt.Fprintf(&pres, `<p:sldIdLst>%s</p:sldIdLst>`, ids.String())
	}
	fmt.Fprintf(&pres, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`, cx, cy)
	put("ppt/presentation.xml", pres.String())
	put("ppt/_rels/presentation.xml.rels", fmt.Sprintf(`<Relationships xmlns="%s">%s</Relationships>`, nsRel, prels.String()))

	ct.WriteString(`</Types>`)
	files["[Content_Types].xml"] = []byte(header + ct.String())
	return files
}

func slideXML(s Slide) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" xmlns:mc="%s"><p:cSld><p:spTree>`, nsA, nsR, nsP, nsMC)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for _, sh := range s.Shapes {
		writeShape(&b, sh)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func writeShape(b *strings.Builder, sh Shape) {
	if sh.Fallback {
		inner := sh
		inner.Fallback = false
		b.WriteString(`<mc:AlternateContent><mc:Choice Requires="p14">`)
		writeShape(b, inner)
		b.WriteString(`</mc:Choice><mc:Fallback>`)
		writeShape(b, inner)
		b.WriteString(`</mc:Fallback></mc:AlternateContent>`)
		return
	}

	name := sh.Name
	if name == "" {
		name = fmt.Sprintf("Shape %d", sh.ID)
	}
	switch {
	case len(sh.Group) > 0:
		fmt.Fprintf(b, `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`, sh.ID, esc(name))
		for _, c := range sh.Group {
			writeShape(b, c)
		}
		b.WriteString(`</p:grpSp>`)
	case len(sh.Table) > 0:
		fmt.Fprintf(b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`, sh.ID, esc(name))
		b.WriteString(`<p:xfrm><a:off x="0" y="0"/><a:ext cx="100" cy="100"/></p:xfrm>`)
		b.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblPr/><a:tblGrid/>`)
		for _, row := range sh.Table {
			b.WriteString(`<a:tr h="100">`)
			for _, cell := range row {
				b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
				writeParagraph(b, cell)
				b.WriteString(`</a:txBody><a:tcPr/></a:tc>`)
			}
			b.WriteString(`</a:tr>`)
		}
		b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	default:
		fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/>`, sh.ID, esc(name))
		b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
		for _, p := range sh.Paragraphs {
			writeParagraph(b, p)
		}
		b.WriteString(`</p:txBody></p:sp>`)
	}
}

func writeParagraph(b *strings.Builder, text string) {
	b.WriteString(`<a:p>`)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString(`<a:br><a:rPr lang="en-US"/></a:br>`)
		}
		if line == "" {
			continue
		}
		fmt.Fprintf(b, `<a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r>`, esc(line))
	}
	b.WriteString(`<a:endParaRPr lang="en-US"/></a:p>`)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// WriteZip 把部件按名称排序写成 zip；[Content_Types].xml 总在第一个。
func WriteZip(t testing.TB, path string, files map[string][]byte) {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == "[Content_Types].xml") != (names[j] == "[Content_Types].xml") {
			return names[i] == "[Content_Types].xml"
		}
		return names[i] < names[j]
	})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// Write 生成 deck 并写到 path。
func Write(t testing.TB, path string, d Deck) {
	t.Helper()
	WriteZip(t, path, Files(d))
}

// ReadParts 读出 zip 中的全部部件（部件名 -> 内容）。
func ReadParts(t testing.TB, path string) map[string][]byte {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		require.NoError(t, err)
		out[f.Name] = b
	}
	return out
}
