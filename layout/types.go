package layout

import (
	"image"

	"github.com/ByLCY/spoolprint/markup"
)

// 该文件定义标签输入与布局结果，供标签组合、光栅化与调试 JSON 共用。

// VendorRef 标签上引用的厂商。
type VendorRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// LabelItem 是一个可导出的标签单元，按所选记录逐条生成。
type LabelItem struct {
	Value        string        `json:"value"` // 二维码内容
	Vendor       *VendorRef    `json:"vendor,omitempty"`
	Title        []markup.Node `json:"title,omitempty"`
	Label        []markup.Node `json:"label,omitempty"`
	ErrorLevel   string        `json:"errorLevel,omitempty"` // L/M/Q/H
	FilenameBase string        `json:"filenameBase,omitempty"`
}

// Result 保存分页后的页面与字体资源。
type Result struct {
	Pages     []Page      `json:"pages"`
	Resources ResourceSet `json:"resources"`
}

// ResourceSet 记录布局使用的字体。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。单标签布局下每页只放一个标签。
type Page struct {
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Margin  Margin     `json:"margin"`
	Texts   []TextBox  `json:"texts"`
	Images  []ImageBox `json:"images"`
	QRCodes []QRBox    `json:"qrCodes,omitempty"`
	Rects   []Rect     `json:"rects,omitempty"`

	Item         int    `json:"item"`                   // 对应 LabelItem 的下标
	FilenameBase string `json:"filenameBase,omitempty"` // 导出文件名基础
	LogoFallback bool   `json:"logoFallback,omitempty"` // logo 未加载，改用厂商名文本
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Role       string     `json:"role"` // logo/title/info
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	Color      Color      `json:"color"`
	Lines      []TextLine `json:"lines"`
	Height     float64    `json:"height"`
	Align      HAlign     `json:"align,omitempty"`
	Wrap       string     `json:"wrap,omitempty"` // normal（按词折行）/nowrap
}

// TextLine 表示排版后的一行文本及其宽高。
type TextLine struct {
	Runs      []markup.Run `json:"runs"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	GapBefore float64      `json:"gapBefore,omitempty"`
}

// Content 返回该行的纯文本。
func (l TextLine) Content() string {
	s := ""
	for _, r := range l.Runs {
		s += r.Text
	}
	return s
}

// ImageBox 用于描述图片位置与尺寸。
type ImageBox struct {
	Src        string      `json:"src"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Monochrome bool        `json:"monochrome,omitempty"`
	Image      image.Image `json:"-"`
}

// QRBox 描述二维码的位置与内容。
type QRBox struct {
	Value string  `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Level string  `json:"level"`
	Icon  string  `json:"icon,omitempty"` // withIcon 模式下中心显示的字符
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`         // mm
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}
