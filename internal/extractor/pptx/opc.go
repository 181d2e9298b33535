package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/John-Robertt/acrofind/internal/domain"
)

// OPC（Open Packaging Conventions）层：zip 包内的部件、关系与放映顺序。

const (
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsRelationships + "/officeDocument"
	relTypeSlide          = nsRelationships + "/slide"
	relTypeSlideMaster    = nsRelationships + "/slideMaster"
	relTypeSlideLayout    = nsRelationships + "/slideLayout"

	contentTypesPart        = "[Content_Types].xml"
	defaultPresentationPart = "ppt/presentation.xml"

	// 单个 XML 部件的读取上限，防止异常/恶意文件把内存撑爆。
	maxPartSize = 64 << 20

	// EMU：1 英寸 = 914400。默认 4:3 幻灯片尺寸。
	emuPerInch       = 914400
	defaultSlideCX   = 9144000
	defaultSlideCY   = 6858000
	minSlideIDNumber = 256
)

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationshipsXML struct {
	Rels []relationship `xml:"Relationship"`
}

// idRef 对应 <p:sldId id=".." r:id=".."/> 与 <p:sldLayoutId id=".." r:id=".."/>。
//
// 注意：encoding/xml 的无命名空间 attr 标签会同时匹配 id 与 r:id，所以这里手动分拣。
type idRef struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (r idRef) ids() (id string, rid string) {
	for _, a := range r.Attrs {
		if a.Name.Local != "id" {
			continue
		}
		if a.Name.Space == nsRelationships {
			rid = a.Value
		} else if a.Name.Space == "" {
			id = a.Value
		}
	}
	return id, rid
}

type presentationXML struct {
	XMLName xml.Name
	SldIDs  []idRef `xml:"sldIdLst>sldId"`
	SldSz   *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

type slideMasterXML struct {
	Layouts []idRef `xml:"sldLayoutIdLst>sldLayoutId"`
}

type slideLayoutXML struct {
	Type string `xml:"type,attr"`
}

// slideRef 是放映顺序中的一张幻灯片。
type slideRef struct {
	ID   string
	RID  string
	Part string
}

type presentationInfo struct {
	Part   string
	Slides []slideRef
	CX, CY int64
}

// pkg 是只读打开的演示文稿包。
type pkg struct {
	path  string
	zr    *zip.ReadCloser
	files map[string]*zip.File
}

func openPackage(p string) (*pkg, error) {
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.Error{Code: domain.ErrCodeInputNotFound, Path: p, Err: err}
		}
		return nil, &domain.Error{Code: domain.ErrCodeIOFailed, Path: p, Err: err}
	}
	// 先按内容嗅探：扩展名对但内容不是 zip（或是 Word/Excel 包）时给出更明确的错误。
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return nil, &domain.Error{Code: domain.ErrCodeIOFailed, Path: p, Err: err}
	}
	if err := checkSniffed(mt); err != nil {
		return nil, &domain.Error{Code: domain.ErrCodeDocumentInvalid, Path: p, Err: err}
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, &domain.Error{Code: domain.ErrCodeDocumentInvalid, Path: p, Err: fmt.Errorf("不是有效的 zip 包：%w", err)}
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}
	pk := &pkg{path: p, zr: zr, files: files}
	if !pk.has(contentTypesPart) {
		_ = zr.Close()
		return nil, pk.invalid("缺少 %s，不是 OOXML 文档", contentTypesPart)
	}
	return pk, nil
}

var foreignOOXML = map[string]string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "Word 文档",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "Excel 工作簿",
}

func checkSniffed(mt *mimetype.MIME) error {
	for mime, what := range foreignOOXML {
		if mt.Is(mime) {
			return fmt.Errorf("内容是%s，不是演示文稿", what)
		}
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("不是 OOXML 包（检测到 %s）", mt.String())
}

func (p *pkg) Close() error { return p.zr.Close() }

func (p *pkg) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

func (p *pkg) invalid(format string, args ...any) error {
	return &domain.Error{Code: domain.ErrCodeDocumentInvalid, Path: p.path, Err: fmt.Errorf(format, args...)}
}

// read 读取部件全文；部件缺失或损坏都视为文档无效。
func (p *pkg) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, p.invalid("缺少部件 %q", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, p.invalid("无法打开部件 %q：%v", name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, p.invalid("读取部件 %q 失败：%v", name, err)
	}
	if len(b) > maxPartSize {
		return nil, p.invalid("部件 %q 超过 %d 字节", name, maxPartSize)
	}
	return b, nil
}

// rels 读取 part 的关系表；关系文件不存在时返回空（不是错误）。
func (p *pkg) rels(part string) ([]relationship, error) {
	name := relsPath(part)
	if !p.has(name) {
		return nil, nil
	}
	b, err := p.read(name)
	if err != nil {
		return nil, err
	}
	var rx relationshipsXML
	if err := xml.Unmarshal(b, &rx); err != nil {
		return nil, p.invalid("关系文件 %q 无法解析：%v", name, err)
	}
	return rx.Rels, nil
}

// mainPart 通过包级关系定位主文档；缺省回退到 ppt/presentation.xml。
func (p *pkg) mainPart() (string, error) {
	rels, err := p.rels("")
	if err != nil {
		return "", err
	}
	for _, r := range rels {
		if r.Type == relTypeOfficeDocument && r.TargetMode != "External" {
			return resolveTarget("", r.Target), nil
		}
	}
	if p.has(defaultPresentationPart) {
		return defaultPresentationPart, nil
	}
	return "", p.invalid("找不到主文档部件（不是演示文稿？）")
}

// presentation 解析放映顺序与幻灯片尺寸。
func (p *pkg) presentation() (presentationInfo, error) {
	main, err := p.mainPart()
	if err != nil {
		return presentationInfo{}, err
	}
	b, err := p.read(main)
	if err != nil {
		return presentationInfo{}, err
	}
	var px presentationXML
	if err := xml.Unmarshal(b, &px); err != nil {
		return presentationInfo{}, p.invalid("%s 无法解析：%v", main, err)
	}
	if px.XMLName.Local != "presentation" {
		return presentationInfo{}, p.invalid("主文档 %s 的根元素是 <%s>，不是演示文稿", main, px.XMLName.Local)
	}

	rels, err := p.rels(main)
	if err != nil {
		return presentationInfo{}, err
	}
	byID := make(map[string]relationship, len(rels))
	for _, r := range rels {
		byID[r.ID] = r
	}

	info := presentationInfo{Part: main, CX: defaultSlideCX, CY: defaultSlideCY}
	if px.SldSz != nil && px.SldSz.CX > 0 && px.SldSz.CY > 0 {
		info.CX, info.CY = px.SldSz.CX, px.SldSz.CY
	}

	for _, s := range px.SldIDs {
		id, rid := s.ids()
		r, ok := byID[rid]
		if !ok || r.Type != relTypeSlide {
			return presentationInfo{}, p.invalid("幻灯片 id=%s 的关系 %q 不存在", id, rid)
		}
		part := resolveTarget(main, r.Target)
		if !p.has(part) {
			return presentationInfo{}, p.invalid("幻灯片部件 %q 不存在", part)
		}
		info.Slides = append(info.Slides, slideRef{ID: id, RID: rid, Part: part})
	}
	return info, nil
}

// layoutFor 为新幻灯片挑选版式：优先 titleOnly，其次 blank，最后第一个版式。
func (p *pkg) layoutFor(main string) (string, error) {
	rels, err := p.rels(main)
	if err != nil {
		return "", err
	}

	var layouts []string
	for _, r := range rels {
		if r.Type != relTypeSlideMaster {
			continue
		}
		master := resolveTarget(main, r.Target)
		b, err := p.read(master)
		if err != nil {
			return "", err
		}
		var mx slideMasterXML
		if err := xml.Unmarshal(b, &mx); err != nil {
			return "", p.invalid("%s 无法解析：%v", master, err)
		}
		mrels, err := p.rels(master)
		if err != nil {
			return "", err
		}
		byID := make(map[string]relationship, len(mrels))
		for _, mr := range mrels {
			byID[mr.ID] = mr
		}
		for _, l := range mx.Layouts {
			_, rid := l.ids()
			if lr, ok := byID[rid]; ok && lr.Type == relTypeSlideLayout {
				layouts = append(layouts, resolveTarget(master, lr.Target))
			}
		}
		// 与常见工具一致：只看第一个母版。
		break
	}
	if len(layouts) == 0 {
		return "", p.invalid("找不到任何幻灯片版式")
	}

	byType := make(map[string]string, len(layouts))
	for _, l := range layouts {
		b, err := p.read(l)
		if err != nil {
			return "", err
		}
		var lx slideLayoutXML
		if err := xml.Unmarshal(b, &lx); err != nil {
			return "", p.invalid("%s 无法解析：%v", l, err)
		}
		if _, ok := byType[lx.Type]; !ok {
			byType[lx.Type] = l
		}
	}
	for _, want := range []string{"titleOnly", "blank"} {
		if l, ok := byType[want]; ok {
			return l, nil
		}
	}
	return layouts[0], nil
}

// partNames 返回包内所有部件名（排序后）。
func (p *pkg) partNames() []string {
	out := make([]string, 0, len(p.files))
	for name := range p.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// relsPath：ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels；包级关系为 _rels/.rels。
func relsPath(part string) string {
	if part == "" {
		return "_rels/.rels"
	}
	dir, base := path.Split(part)
	return dir + "_rels/" + base + ".rels"
}

// resolveTarget 把关系中的 Target 解析为包内绝对部件名（不带前导 '/'）。
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget 是 resolveTarget 的反向：从 source 所在目录指向 part 的相对路径。
func relativeTarget(source, part string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(source)), filepath.FromSlash(part))
	if err != nil {
		return "/" + part
	}
	return filepath.ToSlash(rel)
}

// xmlHeader 是写回部件时统一使用的声明。
var xmlHeader = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
