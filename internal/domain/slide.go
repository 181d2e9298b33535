package domain

const (
	ShapeKindText  = "text"
	ShapeKindTable = "table"
)

// Slide 描述一张幻灯片抽取出的文本（按形状切分，只读）。
//
// 不变量：
// - Number 从 1 开始，顺序与演示文稿中的放映顺序一致
// - Shapes 保持文档顺序（组合形状已展开）
type Slide struct {
	Number int
	Part   string // 包内路径，例如 "ppt/slides/slide3.xml"
	Shapes []ShapeText
}

// ShapeText 是单个形状的纯文本。
// 文本框：段落以 "\n" 连接；表格：单元格以 " " 连接。
type ShapeText struct {
	ID   string
	Name string
	Kind string
	Text string
}
