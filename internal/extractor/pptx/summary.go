package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/infra/fsx"
	"github.com/John-Robertt/acrofind/internal/logx"
)

const (
	SummaryTitle      = "Acronyms Found"
	UnknownDefinition = "Unknown"

	slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
)

// SummaryHeaders 是汇总表的表头（顺序固定）。
var SummaryHeaders = [3]string{"Acronym", "Definition", "Slide Numbers"}

// 列宽占可用宽度的比例（千分比，合计 1000）。
var summaryColumnPermille = [3]int64{150, 600, 250}

// AppendAcronymSlide 读取 src，在末尾追加一张“Acronyms Found”汇总页，原子写入 dst。
//
// 约束：
// - src 不会被修改；dst 已存在时覆盖
// - 其余部件逐字节原样拷贝（zip.Writer.Copy，不重新压缩）
// - 只改动 presentation.xml、其关系文件与 [Content_Types].xml，并新增汇总页及其关系文件
func AppendAcronymSlide(ctx context.Context, src, dst string, rr domain.Report) error {
	p, err := openPackage(src)
	if err != nil {
		return err
	}
	defer p.Close()

	plan, err := planSummary(p, rr)
	if err != nil {
		return err
	}
	logx.FromContext(ctx).Debug("summary slide planned",
		"part", plan.slidePart, "layout", plan.layoutPart, "rid", plan.rid, "sld_id", plan.sldID, "rows", len(rr.Items)+1)

	err = fsx.WriteAtomic(dst, true, func(w io.Writer) error {
		return plan.write(p, w)
	})
	if err != nil {
		return &domain.Error{Code: domain.ErrCodeIOFailed, Path: dst, Err: err}
	}
	return nil
}

type summaryPlan struct {
	mainPart   string
	slidePart  string
	layoutPart string
	rid        string
	sldID      uint32

	// 需要整体替换内容的部件。
	replaced map[string][]byte
	// 追加到包末尾的新部件（按顺序）。
	added []addedPart

	modified time.Time
}

type addedPart struct {
	name string
	data []byte
}

func planSummary(p *pkg, rr domain.Report) (*summaryPlan, error) {
	info, err := p.presentation()
	if err != nil {
		return nil, err
	}
	layout, err := p.layoutFor(info.Part)
	if err != nil {
		return nil, err
	}
	rels, err := p.rels(info.Part)
	if err != nil {
		return nil, err
	}

	plan := &summaryPlan{
		mainPart:   info.Part,
		slidePart:  nextSlidePart(p.partNames()),
		layoutPart: layout,
		rid:        nextRelID(rels),
		sldID:      nextSlideID(info.Slides),
		replaced:   make(map[string][]byte, 3),
	}
	if f, ok := p.files[info.Part]; ok {
		plan.modified = f.Modified
	}

	// presentation.xml：把新页挂到放映顺序末尾。
	presXML, err := p.read(info.Part)
	if err != nil {
		return nil, err
	}
	presXML, err = insertSlideID(presXML, plan.sldID, plan.rid)
	if err != nil {
		return nil, p.invalid("%s：%v", info.Part, err)
	}
	plan.replaced[info.Part] = presXML

	// presentation.xml.rels：新增 slide 关系。
	relsName := relsPath(info.Part)
	relsXML, err := p.read(relsName)
	if err != nil {
		return nil, err
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`,
		plan.rid, relTypeSlide, escapeAttr(relativeTarget(info.Part, plan.slidePart)))
	relsXML, err = insertBeforeClose(relsXML, "Relationships", rel)
	if err != nil {
		return nil, p.invalid("%s：%v", relsName, err)
	}
	plan.replaced[relsName] = relsXML

	// [Content_Types].xml：声明新部件类型。
	ctXML, err := p.read(contentTypesPart)
	if err != nil {
		return nil, err
	}
	override := fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, escapeAttr(plan.slidePart), slideContentType)
	ctXML, err = insertBeforeClose(ctXML, "Types", override)
	if err != nil {
		return nil, p.invalid("%s：%v", contentTypesPart, err)
	}
	plan.replaced[contentTypesPart] = ctXML

	slideRels := fmt.Sprintf(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="%s" Target="%s"/></Relationships>`,
		relTypeSlideLayout, escapeAttr(relativeTarget(plan.slidePart, layout)))

	plan.added = []addedPart{
		{name: plan.slidePart, data: renderSummarySlide(rr, info.CX, info.CY)},
		{name: relsPath(plan.slidePart), data: append(append([]byte(nil), xmlHeader...), slideRels...)},
	}
	return plan, nil
}

func (plan *summaryPlan) write(p *pkg, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range p.zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if data, ok := plan.replaced[name]; ok {
			if err := plan.create(zw, f.Name, data); err != nil {
				return err
			}
			continue
		}
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("拷贝部件 %q 失败：%w", f.Name, err)
		}
	}
	for _, a := range plan.added {
		if err := plan.create(zw, a.name, a.data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (plan *summaryPlan) create(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: plan.modified,
	})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

var slidePartRE = regexp.MustCompile(`^ppt/slides/slide([0-9]+)\.xml$`)

func nextSlidePart(names []string) string {
	top := 0
	for _, n := range names {
		if m := slidePartRE.FindStringSubmatch(n); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > top {
				top = v
			}
		}
	}
	return fmt.Sprintf("ppt/slides/slide%d.xml", top+1)
}

var relIDRE = regexp.MustCompile(`^rId([0-9]+)$`)

func nextRelID(rels []relationship) string {
	used := make(map[string]struct{}, len(rels))
	top := 0
	for _, r := range rels {
		used[r.ID] = struct{}{}
		if m := relIDRE.FindStringSubmatch(r.ID); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > top {
				top = v
			}
		}
	}
	for n := top + 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if _, ok := used[id]; !ok {
			return id
		}
	}
}

func nextSlideID(slides []slideRef) uint32 {
	next := uint32(minSlideIDNumber)
	for _, s := range slides {
		if v, err := strconv.ParseUint(s.ID, 10, 32); err == nil && uint32(v) >= next {
			next = uint32(v) + 1
		}
	}
	return next
}

var (
	sldIDLstRE = regexp.MustCompile(`<(\w+:)?sldIdLst(\s[^>]*?)?(/?)>`)
	sldSzRE    = regexp.MustCompile(`<(\w+:)?sldSz[\s/>]`)
	rPrefixRE  = regexp.MustCompile(`xmlns:(\w+)="` + regexp.QuoteMeta(nsRelationships) + `"`)
)

// insertSlideID 在 sldIdLst 末尾追加 <p:sldId id=".." r:id=".."/>；列表不存在时在 sldSz 之前创建。
func insertSlideID(b []byte, id uint32, rid string) ([]byte, error) {
	s := string(b)
	rp := "r"
	if m := rPrefixRE.FindStringSubmatch(s); m != nil {
		rp = m[1]
	} else {
		return nil, fmt.Errorf("缺少 relationships 命名空间声明")
	}

	if loc := sldIDLstRE.FindStringSubmatchIndex(s); loc != nil {
		prefix := ""
		if loc[2] >= 0 {
			prefix = s[loc[2]:loc[3]]
		}
		entry := fmt.Sprintf(`<%ssldId id="%d" %s:id="%s"/>`, prefix, id, rp, rid)
		if loc[6] >= 0 && loc[7] > loc[6] {
			// 自闭合的空列表：<p:sldIdLst/>
			open := s[loc[0]:loc[6]] + ">"
			return []byte(s[:loc[0]] + open + entry + "</" + prefix + "sldIdLst>" + s[loc[1]:]), nil
		}
		closeTag := "</" + prefix + "sldIdLst>"
		i := strings.Index(s[loc[1]:], closeTag)
		if i < 0 {
			return nil, fmt.Errorf("sldIdLst 未闭合")
		}
		at := loc[1] + i
		return []byte(s[:at] + entry + s[at:]), nil
	}

	loc := sldSzRE.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, fmt.Errorf("找不到 sldIdLst 或 sldSz")
	}
	prefix := ""
	if loc[2] >= 0 {
		prefix = s[loc[2]:loc[3]]
	}
	list := fmt.Sprintf(`<%ssldIdLst><%ssldId id="%d" %s:id="%s"/></%ssldIdLst>`, prefix, prefix, id, rp, rid, prefix)
	return []byte(s[:loc[0]] + list + s[loc[0]:]), nil
}

// insertBeforeClose 把 frag 插到根元素 </local> 之前（根元素可能带命名空间前缀）。
func insertBeforeClose(b []byte, local, frag string) ([]byte, error) {
	s := string(b)
	re := regexp.MustCompile(`</(\w+:)?` + regexp.QuoteMeta(local) + `\s*>`)
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("找不到 </%s>", local)
	}
	at := locs[len(locs)-1][0]
	return []byte(s[:at] + frag + s[at:]), nil
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
