package layout

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/spoolprint/markup"
)

const (
	blockSpacing      = 1.0  // 页眉与主区域、二维码与信息块之间的间距（mm）
	logoTextRatio     = 0.6  // logo 回退为文字时，字号相对 logo 高度的比例
	defaultLineFactor = 1.2  // 信息块默认行高倍数
	borderWidth       = 0.2  // 边框线宽（mm）
	qrIconFraction    = 0.2  // withIcon 模式下中心图标占二维码边长的比例
	defaultErrorLevel = "M"
)

// ErrNoTypesetter 在未提供排版后端时返回。
var ErrNoTypesetter = errors.New("layout: 缺少排版后端 Typesetter")

// BuildLabel 根据单个 LabelItem 与标签设置生成一页布局。
//
// 页面结构：可选页眉（logo 行 + 标题块），其下为主区域，
// 主区域按 qrCodePosition 左右排列二维码块与信息块。
// logo 与标题都不显示时省略页眉，主区域占满内容高度。
func BuildLabel(item LabelItem, s QRCodePrintSettings, opts BuildOptions) (Page, error) {
	if opts.Typesetter == nil {
		return Page{}, ErrNoTypesetter
	}
	fonts := opts.Fonts
	if len(fonts) == 0 {
		fonts = DefaultFonts()
	}
	w, h := s.PrintSettings.PaperDimensions()
	page := Page{
		Width:        w,
		Height:       h,
		Margin:       s.PrintSettings.PageMargins(),
		FilenameBase: item.FilenameBase,
	}

	if s.ShowBorder {
		lb := LabelBox(s)
		page.Rects = append(page.Rects, Rect{
			X: lb.X, Y: lb.Y, Width: lb.Width, Height: lb.Height,
			StrokeColor: Black, StrokeWidth: borderWidth,
		})
	}

	content := ContentBox(s)
	body := resolveFont(FontBody, fonts)
	bold := resolveFont(FontBold, fonts)

	headerHeight, err := composeHeader(&page, item, s, content, body, bold, opts)
	if err != nil {
		return Page{}, err
	}

	main := Box{
		X:      content.X,
		Y:      content.Y + headerHeight,
		Width:  content.Width,
		Height: math.Max(0, content.Height-headerHeight),
	}
	if err := composeMain(&page, item, s, main, body, opts.Typesetter); err != nil {
		return Page{}, err
	}
	return page, nil
}

// composeHeader 放置 logo 行与标题块，返回页眉占用的高度（含与主区域的间距）。
func composeHeader(page *Page, item LabelItem, s QRCodePrintSettings, content Box, body, bold FontResource, opts BuildOptions) (float64, error) {
	showLogo := s.ShowLogo && item.Vendor != nil && strings.TrimSpace(item.Vendor.Name) != ""
	showTitle := s.ShowTitle && !markup.IsEmpty(item.Title)
	if !showLogo && !showTitle {
		return 0, nil
	}

	budget := MaxHeaderHeightMm(s)
	cursorY := content.Y

	if showLogo {
		logoH := math.Min(s.LogoHeightMm, budget)
		used, err := composeLogo(page, item.Vendor.Name, s, Box{X: content.X, Y: cursorY, Width: content.Width, Height: logoH}, bold, opts)
		if err != nil {
			return 0, err
		}
		cursorY += used
	}

	if showTitle {
		if cursorY > content.Y {
			cursorY += blockSpacing / 2
		}
		lines := markup.Lines(item.Title)
		fit := AutoScale(s.TitleMaxTextSize, content.Width, s.TitleFitToWidth, func(scale float64) float64 {
			return measureLines(opts.Typesetter, lines, body, s.TitleMaxTextSize*scale)
		})
		wrap := "normal"
		if s.TitleFitToWidth {
			wrap = "nowrap"
		}
		remaining := budget - (cursorY - content.Y)
		if remaining > 0 {
			tb, err := composeTextBox("title", lines, content.X, cursorY, content.Width, fit.SizeMm, defaultLineFactor, s.TitleAlign, wrap, body, opts.Typesetter)
			if err != nil {
				return 0, err
			}
			if tb.Height > remaining && len(tb.Lines) > 0 && tb.Lines[0].Height > remaining {
				// 连第一行都放不下：按剩余高度缩小字号后重新排版
				size := fit.SizeMm * remaining / tb.Lines[0].Height
				if tb, err = composeTextBox("title", lines, content.X, cursorY, content.Width, size, defaultLineFactor, s.TitleAlign, wrap, body, opts.Typesetter); err != nil {
					return 0, err
				}
			}
			if tb, ok := clipTextBox(tb, remaining); ok {
				page.Texts = append(page.Texts, tb)
				cursorY += tb.Height
			}
		}
	}

	used := cursorY - content.Y + blockSpacing
	return math.Min(used, budget), nil
}

// clipTextBox 丢弃超出 maxHeight 的尾部行，一行都放不下时返回 false。
func clipTextBox(tb TextBox, maxHeight float64) (TextBox, bool) {
	height := 0.0
	kept := 0
	for _, line := range tb.Lines {
		next := height + line.GapBefore + line.Height
		if next > maxHeight+1e-9 {
			break
		}
		height = next
		kept++
	}
	if kept == 0 {
		return tb, false
	}
	tb.Lines = tb.Lines[:kept]
	tb.Height = height
	return tb, true
}

// composeLogo 依次尝试候选 logo，全部失败时回退为厂商名文本。返回占用高度。
func composeLogo(page *Page, vendor string, s QRCodePrintSettings, area Box, bold FontResource, opts BuildOptions) (float64, error) {
	if area.Height <= 0 {
		return 0, nil
	}
	if img, src, ok := loadFirstLogo(opts.Logos, vendor); ok {
		b := img.Bounds()
		width, height := area.Height, area.Height
		if b.Dy() > 0 {
			width = area.Height * float64(b.Dx()) / float64(b.Dy())
		}
		if width > area.Width && area.Width > 0 {
			height = height * area.Width / width
			width = area.Width
		}
		page.Images = append(page.Images, ImageBox{
			Src:        src,
			X:          area.X + alignOffset(area.Width, width, s.LogoAlign),
			Y:          area.Y + (area.Height-height)/2,
			Width:      width,
			Height:     height,
			Monochrome: s.LogoMonochrome,
			Image:      img,
		})
		return area.Height, nil
	}

	page.LogoFallback = true
	lines := []markup.Line{{{Text: vendor, Style: markup.Style{Bold: true}}}}
	size := area.Height * logoTextRatio
	fit := AutoScale(size, area.Width, true, func(scale float64) float64 {
		return measureLines(opts.Typesetter, lines, bold, size*scale)
	})
	tb, err := composeTextBox("logo", lines, area.X, area.Y, area.Width, fit.SizeMm, 1, s.LogoAlign, "nowrap", bold, opts.Typesetter)
	if err != nil {
		return 0, err
	}
	tb.Y += math.Max(0, (area.Height-tb.Height)/2)
	page.Texts = append(page.Texts, tb)
	return area.Height, nil
}

func loadFirstLogo(src LogoSource, vendor string) (image.Image, string, bool) {
	if src == nil {
		return nil, "", false
	}
	for _, url := range src.Candidates(vendor) {
		img, err := src.Load(url)
		if err == nil && img != nil {
			return img, url, true
		}
	}
	return nil, "", false
}

// composeMain 放置二维码块与信息块。
func composeMain(page *Page, item LabelItem, s QRCodePrintSettings, main Box, body FontResource, ts Typesetter) error {
	infoArea := main
	if s.ShowQRCode != QRHidden && item.Value != "" {
		size := math.Min(s.QRCodeSizeMm, math.Min(main.Height, main.Width))
		if size > 0 {
			x := main.X
			if s.QRCodePosition == QRRight {
				x = main.X + main.Width - size
			} else {
				infoArea.X += size + blockSpacing
			}
			infoArea.Width = math.Max(0, main.Width-size-blockSpacing)
			page.QRCodes = append(page.QRCodes, composeQR(item, s, x, main.Y+valignOffset(main.Height, size, s.QRCodeVerticalAlign), size))
		}
	}

	if !s.ShowInfo || markup.IsEmpty(item.Label) || infoArea.Width <= 0 {
		return nil
	}
	lines := markup.Lines(item.Label)
	tb, err := composeTextBox("info", lines, infoArea.X, infoArea.Y, infoArea.Width, s.InfoTextSize, defaultLineFactor, s.InfoAlign, "normal", body, ts)
	if err != nil {
		return err
	}
	tb.Y += valignOffset(infoArea.Height, tb.Height, s.InfoVerticalAlign)
	page.Texts = append(page.Texts, tb)
	return nil
}

func composeQR(item LabelItem, s QRCodePrintSettings, x, y, size float64) QRBox {
	level := strings.ToUpper(strings.TrimSpace(item.ErrorLevel))
	switch level {
	case "L", "M", "Q", "H":
	default:
		level = defaultErrorLevel
	}
	qr := QRBox{Value: item.Value, X: x, Y: y, Size: size, Level: level}
	if s.ShowQRCode == QRWithIcon {
		// 中心图标会遮挡部分模块，纠错等级至少为 Q
		if level == "L" || level == "M" {
			qr.Level = "Q"
		}
		qr.Icon = vendorInitial(item.Vendor)
	}
	return qr
}

func vendorInitial(v *VendorRef) string {
	if v == nil {
		return "S"
	}
	for _, r := range strings.TrimSpace(v.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return "S"
}

// QRIconSize 返回中心图标的边长（mm）。
func QRIconSize(qr QRBox) float64 { return qr.Size * qrIconFraction }

func composeTextBox(role string, content []markup.Line, x, y, width, fontSize, lineFactor float64, align HAlign, wrap string, font FontResource, ts Typesetter) (TextBox, error) {
	lineHeight := LineHeightSpec{Kind: LineHeightFactor, Factor: lineFactor}.ResolveMM(fontSize)
	lines, err := layoutLines(content, width, font, fontSize, lineHeight, ts, wrap)
	if err != nil {
		return TextBox{}, fmt.Errorf("%s 文本排版失败: %w", role, err)
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	return TextBox{
		Role:       role,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       font.Name,
		FontSize:   fontSize,
		Color:      Black,
		Lines:      lines,
		Height:     totalHeight,
		Align:      align,
		Wrap:       wrap,
	}, nil
}

func layoutLines(content []markup.Line, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	lines, err := ts.LayoutRuns(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Width: 0, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// measureLines 返回各行中最宽一行的宽度（mm）；测量失败的行按 0 处理。
func measureLines(ts Typesetter, lines []markup.Line, font FontResource, fontSize float64) float64 {
	widest := 0.0
	for _, line := range lines {
		w, err := ts.MeasureRuns(line, font, fontSize)
		if err != nil {
			continue
		}
		widest = math.Max(widest, w)
	}
	return widest
}

func resolveFont(name string, fonts map[string]FontResource) FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[FontBody]; ok {
		return font
	}
	for _, font := range fonts {
		return font
	}
	return FontResource{Name: name}
}
