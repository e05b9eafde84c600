package layout

import "math"

// MinMainHeightMm 是二维码可见时主区域（信息+二维码）的最小高度。
const MinMainHeightMm = 8.0

// Box 是以 mm 表示的矩形区域，原点在左上角。
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LabelBox 返回去掉页边距后的标签区域。
func LabelBox(s QRCodePrintSettings) Box {
	w, h := s.PrintSettings.PaperDimensions()
	m := s.PrintSettings.PageMargins()
	return Box{
		X:      m.Left,
		Y:      m.Top,
		Width:  math.Max(0, w-m.Left-m.Right),
		Height: math.Max(0, h-m.Top-m.Bottom),
	}
}

// ContentBox 返回标签区域再去掉内边距后的内容区域。
func ContentBox(s QRCodePrintSettings) Box {
	b := LabelBox(s)
	pad := s.ContainerPaddingMm
	return Box{
		X:      b.X + pad,
		Y:      b.Y + pad,
		Width:  math.Max(0, b.Width-2*pad),
		Height: math.Max(0, b.Height-2*pad),
	}
}

// MaxHeaderHeightMm 计算页眉（logo+标题）可用的最大高度，
// 保证二维码可见时主区域至少保留 MinMainHeightMm。
func MaxHeaderHeightMm(s QRCodePrintSettings) float64 {
	_, h := s.PrintSettings.PaperDimensions()
	m := s.PrintSettings.PageMargins()
	minMain := MinMainHeightMm
	if s.ShowQRCode == QRHidden {
		minMain = 0
	}
	return math.Max(0, h-m.Top-m.Bottom-2*s.ContainerPaddingMm-minMain)
}

// FlexAlign 将水平对齐映射为 flex 对齐值。
func FlexAlign(a HAlign) string {
	switch a {
	case AlignLeft:
		return "flex-start"
	case AlignRight:
		return "flex-end"
	default:
		return "center"
	}
}

// FlexVAlign 将垂直对齐映射为 flex 对齐值。
func FlexVAlign(a VAlign) string {
	switch a {
	case AlignTop:
		return "flex-start"
	case AlignBottom:
		return "flex-end"
	default:
		return "center"
	}
}

// alignOffset 返回宽度为 width 的元素在 container 内的水平偏移。
func alignOffset(container, width float64, align HAlign) float64 {
	free := math.Max(0, container-width)
	switch FlexAlign(align) {
	case "flex-start":
		return 0
	case "flex-end":
		return free
	default:
		return free / 2
	}
}

// valignOffset 返回高度为 height 的元素在 container 内的垂直偏移。
func valignOffset(container, height float64, align VAlign) float64 {
	free := math.Max(0, container-height)
	switch FlexVAlign(align) {
	case "flex-start":
		return 0
	case "flex-end":
		return free
	default:
		return free / 2
	}
}
