package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/spoolprint/fonts"
	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/logo"
	"github.com/ByLCY/spoolprint/markup"
	"github.com/ByLCY/spoolprint/renderer"
)

const defaultStrokeWidth = 0.2

// iconFontRatio 是二维码中心图标内首字母字号相对图标边长的比例。
const iconFontRatio = 0.7

// Renderer draws label pages via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string

	fonts     map[string]layout.FontResource
	fontBlobs map[string][]byte // by unique name
	images    ImageLoader

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// ImageLoader 按来源加载 ImageBox 中尚未解码的图片。
type ImageLoader func(src string) (image.Image, error)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// Fonts 为排版使用的字体资源集，缺省为 layout.DefaultFonts()。
	Fonts map[string]layout.FontResource
	// FontBlobs 提供 built-in:<name> 字体。
	FontBlobs map[string]Resource
	// Images 用于加载页面中未携带解码结果的图片（例如从调试 JSON 还原的页面）。
	Images ImageLoader
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fonts:        opts.Fonts,
		fontBlobs:    map[string][]byte{},
		images:       opts.Images,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if len(r.fonts) == 0 {
		r.fonts = layout.DefaultFonts()
	}
	for name, res := range opts.FontBlobs {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 出错时在实际使用该字体时报告
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Rasterize 将单页绘制为位图，分辨率为 96dpi × pixelRatio。
func (r *Renderer) Rasterize(page layout.Page, pixelRatio float64) (image.Image, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g", page.Width, page.Height)
	}
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) {
		pixelRatio = layout.MinPixelRatio
	}
	c, err := r.drawCanvas(page)
	if err != nil {
		return nil, err
	}
	dpmm := layout.MmToPx(1, pixelRatio)
	return rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace), nil
}

// RenderPDF 将全部页面按纸张尺寸写入一个 PDF，用于打印前预览。
func (r *Renderer) RenderPDF(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	writer.SetInfo("Labels", "", "", "", "spoolprint")
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, err := r.drawCanvas(page)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawCanvas(page layout.Page) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	// 标签打印机按白底处理
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(page.Width, page.Height))

	if err := r.drawPage(ctx, page); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) error {
	// 形状作为背景先绘制
	r.drawRects(ctx, page.Rects)
	if err := r.drawImages(ctx, page.Images); err != nil {
		return err
	}
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, r.fontResource(tb.Font)); err != nil {
			return err
		}
	}
	for _, qr := range page.QRCodes {
		if err := r.drawQRCode(ctx, qr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，在 faces 内做 mm→pt。
	normal, err := r.faces(fontRes, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	inverted, err := r.faces(fontRes, tb.FontSize, layout.White)
	if err != nil {
		return err
	}

	cursorY := tb.Y
	for _, line := range tb.Lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}

		width := line.Width
		if width <= 0 {
			width = normal.lineWidth(line.Runs)
		}
		x := tb.X
		switch tb.Align {
		case layout.AlignCenter:
			x += (tb.Width - width) / 2
		case layout.AlignRight:
			x += tb.Width - width
		}

		// 基线位置：以行顶部加上字体上升部（Ascent）
		baseline := cursorY + normal.regular.Metrics().Ascent
		for _, run := range line.Runs {
			if run.Text == "" {
				continue
			}
			face := normal.pick(run.Style)
			runWidth := face.TextWidth(run.Text)
			if run.Style.Inverted {
				ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
				ctx.SetFillColor(colorFromLayout(tb.Color))
				ctx.DrawPath(x, cursorY, canvas.Rectangle(runWidth, lineHeight))
				face = inverted.pick(run.Style)
			}
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, run.Text, canvas.Left))
			x += runWidth
		}
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, box := range images {
		img := box.Image
		if img == nil {
			loaded, err := r.loadImage(box.Src)
			if err != nil {
				return err
			}
			img = loaded
		}
		if box.Monochrome {
			img = logo.ToPrint(img)
		}
		width := box.Width
		if width <= 0 {
			continue
		}
		dpmm := float64(img.Bounds().Dx()) / width
		if dpmm <= 0 {
			dpmm = 1
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
	}
	return nil
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	if src == "" {
		return nil, errors.New("图片缺少来源")
	}
	if r.images != nil {
		img, err := r.images(src)
		if err != nil {
			return nil, fmt.Errorf("加载图片 %s 失败: %w", src, err)
		}
		return img, nil
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return img, nil
}

// drawQRCode 绘制二维码；带图标时在中心叠加白色方块与厂商首字母。
func (r *Renderer) drawQRCode(ctx *canvas.Context, box layout.QRBox) error {
	if box.Size <= 0 {
		return nil
	}
	code, err := qrcode.New(box.Value, recoveryLevel(box.Level))
	if err != nil {
		return fmt.Errorf("生成二维码失败: %w", err)
	}
	code.DisableBorder = true
	// 每个模块至少 8px，避免缩放到页面分辨率时模块边缘发虚
	modules := len(code.Bitmap())
	img := code.Image(modules * 8)
	dpmm := float64(img.Bounds().Dx()) / box.Size
	ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))

	if box.Icon == "" {
		return nil
	}
	icon := layout.QRIconSize(box)
	ix := box.X + (box.Size-icon)/2
	iy := box.Y + (box.Size-icon)/2
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(ix, iy, canvas.Rectangle(icon, icon))

	set, err := r.faces(r.fontResource(layout.FontBold), icon*iconFontRatio, layout.Black)
	if err != nil {
		return err
	}
	face := set.pick(markup.Style{Bold: true})
	m := face.Metrics()
	baseline := iy + icon/2 + (m.Ascent-m.Descent)/2
	ctx.DrawText(ix+icon/2, baseline, canvas.NewTextLine(face, box.Icon, canvas.Center))
	return nil
}

func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch level {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// drawRects 绘制矩形
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultStrokeWidth
		}
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		}
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(w)
		// 描边居中于路径，向内收半个线宽使边框完整落在页面内
		ctx.DrawPath(rc.X+w/2, rc.Y+w/2, canvas.Rectangle(math.Max(0, rc.Width-w), math.Max(0, rc.Height-w)))
	}
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
}

func (r *Renderer) fontResource(name string) layout.FontResource {
	if font, ok := r.fonts[name]; ok {
		return font
	}
	if font, ok := r.fonts[layout.FontBody]; ok {
		return font
	}
	for _, font := range r.fonts {
		return font
	}
	return layout.FontResource{Name: layout.FontBody, Src: "embed:" + fonts.Regular}
}

func (r *Renderer) fontFace(font layout.FontResource, sizeMm float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(sizeMm), colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = layout.FontBody
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Regular)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("spoolprint-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func isBold(font layout.FontResource) bool {
	return strings.Contains(strings.ToLower(font.Style), "bold") || strings.Contains(strings.ToLower(font.Style), "black")
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
