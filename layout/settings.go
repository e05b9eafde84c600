package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// 该文件定义打印设置与标签组合设置。所有尺寸单位均为 mm。
// 设置值按值传递，With* 方法返回修改后的副本，调用方持有唯一可变实例。

// ExportFormat 是导出格式。
type ExportFormat string

const (
	FormatPNG ExportFormat = "png"
	FormatAML ExportFormat = "aml"
)

// Valid 判断格式是否受支持。
func (f ExportFormat) Valid() bool { return f == FormatPNG || f == FormatAML }

// Ext 返回文件扩展名（含点）。
func (f ExportFormat) Ext() string { return "." + string(f) }

// HAlign 水平对齐。
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign 垂直对齐。
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "center"
	AlignBottom VAlign = "bottom"
)

// QRMode 控制二维码是否显示以及中心是否带图标。
type QRMode string

const (
	QRHidden   QRMode = "no"
	QRSimple   QRMode = "simple"
	QRWithIcon QRMode = "withIcon"
)

// QRPosition 二维码位于主区域的哪一侧。
type QRPosition string

const (
	QRLeft  QRPosition = "left"
	QRRight QRPosition = "right"
)

// 纸张名称。
const CustomPaper = "custom"

// PaperSizes 记录常见纸张（纵向，mm）。
var PaperSizes = map[string][2]float64{
	"A3":      {297, 420},
	"A4":      {210, 297},
	"A5":      {148, 210},
	"A6":      {105, 148},
	"Letter":  {215.9, 279.4},
	"Legal":   {215.9, 355.6},
	"Tabloid": {279.4, 431.8},
}

// PaperNames 返回可选纸张名称（含 custom），按字母排序。
func PaperNames() []string {
	names := make([]string, 0, len(PaperSizes)+1)
	for name := range PaperSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, CustomPaper)
}

// Margins 四边边距。
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// PaperDims 自定义纸张尺寸。
type PaperDims struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PrintSettings 描述物理页面与导出参数。
type PrintSettings struct {
	PaperSize       string       `json:"paperSize" yaml:"paperSize"`
	CustomPaperSize PaperDims    `json:"customPaperSize" yaml:"customPaperSize"`
	Margin          float64      `json:"margin" yaml:"margin"`
	PrinterMargin   Margins      `json:"printerMargin" yaml:"printerMargin"`
	ExportDPI       float64      `json:"exportDpi" yaml:"exportDpi"`
	ExportFormat    ExportFormat `json:"exportFormat" yaml:"exportFormat"`
	ExportAsZip     bool         `json:"exportAsZip" yaml:"exportAsZip"`
}

// QRCodePrintSettings 是叠加在 PrintSettings 之上的标签组合选项。
type QRCodePrintSettings struct {
	ShowLogo       bool    `json:"showLogo" yaml:"showLogo"`
	LogoHeightMm   float64 `json:"logoHeightMm" yaml:"logoHeightMm"`
	LogoAlign      HAlign  `json:"logoAlign" yaml:"logoAlign"`
	LogoMonochrome bool    `json:"logoMonochrome" yaml:"logoMonochrome"`

	ShowTitle        bool    `json:"showTitle" yaml:"showTitle"`
	TitleMaxTextSize float64 `json:"titleMaxTextSize" yaml:"titleMaxTextSize"`
	TitleFitToWidth  bool    `json:"titleFitToWidth" yaml:"titleFitToWidth"`
	TitleAlign       HAlign  `json:"titleAlign" yaml:"titleAlign"`

	ShowInfo          bool    `json:"showContent" yaml:"showContent"`
	InfoTextSize      float64 `json:"textSize" yaml:"textSize"`
	InfoAlign         HAlign  `json:"textAlign" yaml:"textAlign"`
	InfoVerticalAlign VAlign  `json:"textVerticalAlign" yaml:"textVerticalAlign"`

	ShowQRCode          QRMode     `json:"showQRCode" yaml:"showQRCode"`
	QRCodeSizeMm        float64    `json:"qrCodeSizeMm" yaml:"qrCodeSizeMm"`
	QRCodePosition      QRPosition `json:"qrCodePosition" yaml:"qrCodePosition"`
	QRCodeVerticalAlign VAlign     `json:"qrCodeVerticalAlign" yaml:"qrCodeVerticalAlign"`

	ContainerPaddingMm float64 `json:"containerPaddingMm" yaml:"containerPaddingMm"`
	ShowBorder         bool    `json:"showBorder" yaml:"showBorder"`

	PrintSettings PrintSettings `json:"printSettings" yaml:"printSettings"`
}

// 界面允许的取值范围（mm）。渲染算法假设输入已在范围内。
const (
	MinLogoHeightMm  = 4.0
	MaxLogoHeightMm  = 30.0
	MinTitleSizeMm   = 2.0
	MaxTitleSizeMm   = 20.0
	MinInfoSizeMm    = 1.5
	MaxInfoSizeMm    = 10.0
	MinQRCodeSizeMm  = 8.0
	MaxQRCodeSizeMm  = 30.0
	MaxPaddingMm     = 10.0
	MinExportDPI     = 72.0
	MaxExportDPI     = 1200.0
	DefaultExportDPI = 300.0
)

// DefaultPrintSettings 返回单张标签纸的默认打印设置。
func DefaultPrintSettings() PrintSettings {
	return PrintSettings{
		PaperSize:       CustomPaper,
		CustomPaperSize: PaperDims{Width: 62, Height: 40},
		Margin:          1,
		ExportDPI:       DefaultExportDPI,
		ExportFormat:    FormatPNG,
	}
}

// DefaultQRCodePrintSettings 返回默认的标签组合设置。
func DefaultQRCodePrintSettings() QRCodePrintSettings {
	return QRCodePrintSettings{
		ShowLogo:            true,
		LogoHeightMm:        8,
		LogoAlign:           AlignCenter,
		ShowTitle:           true,
		TitleMaxTextSize:    5,
		TitleFitToWidth:     true,
		TitleAlign:          AlignCenter,
		ShowInfo:            true,
		InfoTextSize:        3,
		InfoAlign:           AlignLeft,
		InfoVerticalAlign:   AlignMiddle,
		ShowQRCode:          QRWithIcon,
		QRCodeSizeMm:        15,
		QRCodePosition:      QRLeft,
		QRCodeVerticalAlign: AlignMiddle,
		ContainerPaddingMm:  1,
		PrintSettings:       DefaultPrintSettings(),
	}
}

// PaperDimensions 返回纸张宽高（mm）。未知纸张名按 A4 处理。
func (p PrintSettings) PaperDimensions() (float64, float64) {
	if p.PaperSize == CustomPaper {
		return p.CustomPaperSize.Width, p.CustomPaperSize.Height
	}
	for name, dims := range PaperSizes {
		if strings.EqualFold(name, p.PaperSize) {
			return dims[0], dims[1]
		}
	}
	dims := PaperSizes["A4"]
	return dims[0], dims[1]
}

// PageMargins 返回合并了打印机不可打印边距后的页边距。
func (p PrintSettings) PageMargins() Margin {
	return Margin{
		Top:    p.Margin + p.PrinterMargin.Top,
		Right:  p.Margin + p.PrinterMargin.Right,
		Bottom: p.Margin + p.PrinterMargin.Bottom,
		Left:   p.Margin + p.PrinterMargin.Left,
	}
}

// WithPaper 设置纸张名称；custom 时同时设置尺寸。
func (p PrintSettings) WithPaper(name string, width, height float64) PrintSettings {
	p.PaperSize = name
	if name == CustomPaper {
		p.CustomPaperSize = PaperDims{Width: width, Height: height}
	}
	return p
}

// ParsePaper 解析纸张描述：纸张名（不区分大小写，见 PaperNames），
// 或 "宽x高" 形式的自定义尺寸，各维可带单位，例如 "62x40"、"2.4inx1.5in"、"6.2cm x 4cm"。
func (p PrintSettings) ParsePaper(spec string) (PrintSettings, error) {
	spec = strings.TrimSpace(spec)
	for _, name := range PaperNames() {
		if strings.EqualFold(name, spec) && name != CustomPaper {
			return p.WithPaper(name, 0, 0), nil
		}
	}
	// 单位 px 本身含 x，逐个尝试分隔位置
	lower := strings.ToLower(spec)
	for i, r := range lower {
		if r != 'x' {
			continue
		}
		w := ParseRawLengthStr(lower[:i]).ToMM()
		h := ParseRawLengthStr(lower[i+1:]).ToMM()
		if w > 0 && h > 0 {
			return p.WithPaper(CustomPaper, roundTo(w, 3), roundTo(h, 3)), nil
		}
	}
	return p, fmt.Errorf("无法识别的纸张 %q，可选: %s 或 宽x高", spec, strings.Join(PaperNames(), ", "))
}

// WithExportFormat 设置导出格式。
func (p PrintSettings) WithExportFormat(f ExportFormat, zip bool) PrintSettings {
	p.ExportFormat = f
	p.ExportAsZip = zip
	return p
}

// WithExportDPI 设置导出 DPI。
func (p PrintSettings) WithExportDPI(dpi float64) PrintSettings {
	p.ExportDPI = dpi
	return p
}

// WithMargins 设置统一边距与打印机边距。
func (p PrintSettings) WithMargins(margin float64, printer Margins) PrintSettings {
	p.Margin = margin
	p.PrinterMargin = printer
	return p
}

// WithPrintSettings 替换嵌套的打印设置。
func (s QRCodePrintSettings) WithPrintSettings(p PrintSettings) QRCodePrintSettings {
	s.PrintSettings = p
	return s
}

// WithQRCode 设置二维码模式与尺寸。
func (s QRCodePrintSettings) WithQRCode(mode QRMode, sizeMm float64, pos QRPosition) QRCodePrintSettings {
	s.ShowQRCode = mode
	s.QRCodeSizeMm = sizeMm
	s.QRCodePosition = pos
	return s
}

// WithTitle 设置标题显示选项。
func (s QRCodePrintSettings) WithTitle(show bool, maxSizeMm float64, fitToWidth bool) QRCodePrintSettings {
	s.ShowTitle = show
	s.TitleMaxTextSize = maxSizeMm
	s.TitleFitToWidth = fitToWidth
	return s
}

// WithLogo 设置 logo 显示选项。
func (s QRCodePrintSettings) WithLogo(show bool, heightMm float64) QRCodePrintSettings {
	s.ShowLogo = show
	s.LogoHeightMm = heightMm
	return s
}

// Clamp 将各尺寸限制在界面允许范围内，并为空的枚举值填默认值。
// 只在加载外部输入时调用；渲染阶段不会再次校验。
func (s QRCodePrintSettings) Clamp() QRCodePrintSettings {
	def := DefaultQRCodePrintSettings()
	s.LogoHeightMm = clamp(s.LogoHeightMm, MinLogoHeightMm, MaxLogoHeightMm)
	s.TitleMaxTextSize = clamp(s.TitleMaxTextSize, MinTitleSizeMm, MaxTitleSizeMm)
	s.InfoTextSize = clamp(s.InfoTextSize, MinInfoSizeMm, MaxInfoSizeMm)
	s.QRCodeSizeMm = clamp(s.QRCodeSizeMm, MinQRCodeSizeMm, MaxQRCodeSizeMm)
	s.ContainerPaddingMm = clamp(s.ContainerPaddingMm, 0, MaxPaddingMm)
	if s.LogoAlign == "" {
		s.LogoAlign = def.LogoAlign
	}
	if s.TitleAlign == "" {
		s.TitleAlign = def.TitleAlign
	}
	if s.InfoAlign == "" {
		s.InfoAlign = def.InfoAlign
	}
	if s.InfoVerticalAlign == "" {
		s.InfoVerticalAlign = def.InfoVerticalAlign
	}
	if s.QRCodeVerticalAlign == "" {
		s.QRCodeVerticalAlign = def.QRCodeVerticalAlign
	}
	if s.QRCodePosition != QRRight {
		s.QRCodePosition = QRLeft
	}
	switch s.ShowQRCode {
	case QRHidden, QRSimple, QRWithIcon:
	default:
		s.ShowQRCode = def.ShowQRCode
	}

	p := s.PrintSettings
	if p.PaperSize == "" {
		p.PaperSize = def.PrintSettings.PaperSize
	}
	if p.PaperSize == CustomPaper && (p.CustomPaperSize.Width <= 0 || p.CustomPaperSize.Height <= 0) {
		p.CustomPaperSize = def.PrintSettings.CustomPaperSize
	}
	if p.ExportDPI <= 0 {
		p.ExportDPI = DefaultExportDPI
	}
	p.ExportDPI = clamp(p.ExportDPI, MinExportDPI, MaxExportDPI)
	if !p.ExportFormat.Valid() {
		p.ExportFormat = FormatPNG
	}
	p.Margin = math.Max(0, p.Margin)
	s.PrintSettings = p
	return s
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
