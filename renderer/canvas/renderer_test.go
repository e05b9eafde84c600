package canvasrenderer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/markup"
)

var bodyFont = layout.FontResource{Name: layout.FontBody, Src: "embed:regular"}

func plainLines(s string) []markup.Line {
	return markup.Lines(markup.ApplyTextFormatting(s))
}

func TestLayoutRunsGreedyWrapsText(t *testing.T) {
	r := NewRenderer(".")

	// 这里的宽度/字号/行高均为 mm
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.2

	lines, err := r.LayoutRuns(plainLines("hello world again"), 10, bodyFont, fontSizeMM, lineHeightMM, "normal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if c := ln.Content(); c != "" && (c[0] == ' ' || c[len(c)-1] == ' ') {
			t.Fatalf("line %d should not start or end with space: %q", i, c)
		}
	}
}

func TestLayoutRunsHonorsNewlines(t *testing.T) {
	r := NewRenderer(".")
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.2

	lines, err := r.LayoutRuns(plainLines("foo\n\nbar"), 100, bodyFont, fontSizeMM, lineHeightMM, "normal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content() != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content())
	}
}

func TestLayoutRunsNowrapKeepsSingleLine(t *testing.T) {
	r := NewRenderer(".")
	fontSizeMM := 5.0

	lines, err := r.LayoutRuns(plainLines("a very long title that overflows"), 5, bodyFont, fontSizeMM, fontSizeMM, "nowrap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("nowrap should produce one line, got %d", len(lines))
	}
	if lines[0].Width <= 5 {
		t.Fatalf("nowrap line should report its full width, got %g", lines[0].Width)
	}
}

// TestLineHeightsInvariant 验证：
// 1) 首行 GapBefore == 0；
// 2) 其余行 GapBefore ≈ max(lineHeight - textHeight, 0)；
// 3) 各行的 Height 与 textHeight 一致（渲染器会用字体度量回填）。
func TestLineHeightsInvariant(t *testing.T) {
	r := NewRenderer(".")
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.3

	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	lines, err := r.LayoutRuns(plainLines(content), 40, bodyFont, fontSizeMM, lineHeightMM, "normal")
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for invariant test, got %d", len(lines))
	}

	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	wantLeading := math.Max(lineHeightMM-textHeight, 0)

	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	const eps = 1e-6
	for i := 1; i < len(lines); i++ {
		if diff := math.Abs(lines[i].GapBefore - wantLeading); diff > eps {
			t.Fatalf("line %d GapBefore mismatch: got=%g want=%g diff=%g", i, lines[i].GapBefore, wantLeading, diff)
		}
		if diff := math.Abs(lines[i].Height - textHeight); diff > eps {
			t.Fatalf("line %d Height mismatch: got=%g want=%g diff=%g", i, lines[i].Height, textHeight, diff)
		}
	}
}

// TestGreedyWrapWidthLimit 验证每行宽度不超过限制（mm）。
func TestGreedyWrapWidthLimit(t *testing.T) {
	r := NewRenderer(".")
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.2

	limit := 30.0 // mm
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	lines, err := r.LayoutRuns(plainLines(content), limit, bodyFont, fontSizeMM, lineHeightMM, "normal")
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected the long word to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 { // 允许极小的数值误差
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

// 第一行宽度与容器宽度恰好相等时，后续显式换行不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.2

	first := "SAMPLE-A"
	limit, err := r.MeasureRuns(markup.Line{{Text: first}}, bodyFont, fontSizeMM)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	lines, err := r.LayoutRuns(plainLines(first+"\nSAMPLE-B"), limit, bodyFont, fontSizeMM, lineHeightMM, "normal")
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if got := len(lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if lines[0].Content() != first || lines[1].Content() != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %q %q", lines[0].Content(), lines[1].Content())
	}
}

func TestBoldRunsMeasureWider(t *testing.T) {
	r := NewRenderer(".")
	regular, err := r.MeasureRuns(markup.Line{{Text: "Spoolman"}}, bodyFont, 4)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	bold, err := r.MeasureRuns(markup.Line{{Text: "Spoolman", Style: markup.Style{Bold: true}}}, bodyFont, 4)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if bold <= regular {
		t.Fatalf("bold run should be wider: bold=%g regular=%g", bold, regular)
	}
}

func TestLayoutRunsKeepsStyles(t *testing.T) {
	r := NewRenderer(".")
	lines, err := r.LayoutRuns(plainLines("**PLA** ==HOT=="), 100, bodyFont, 4, 4.8, "normal")
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	runs := lines[0].Runs
	if len(runs) != 3 {
		t.Fatalf("expected 3 styled runs, got %#v", runs)
	}
	if !runs[0].Style.Bold || runs[1].Style != (markup.Style{}) || !runs[2].Style.Inverted {
		t.Fatalf("styles lost: %#v", runs)
	}
}

func TestRasterizeSizeFollowsPixelRatio(t *testing.T) {
	r := NewRenderer(".")
	page := layout.Page{Width: 25.4, Height: 12.7}

	img, err := r.Rasterize(page, 1)
	if err != nil {
		t.Fatalf("rasterize error: %v", err)
	}
	b := img.Bounds()
	if abs(b.Dx()-96) > 1 || abs(b.Dy()-48) > 1 {
		t.Fatalf("unexpected size at ratio 1: %dx%d", b.Dx(), b.Dy())
	}

	img, err = r.Rasterize(page, layout.PixelRatio(300))
	if err != nil {
		t.Fatalf("rasterize error: %v", err)
	}
	b = img.Bounds()
	if abs(b.Dx()-300) > 1 || abs(b.Dy()-150) > 1 {
		t.Fatalf("unexpected size at 300dpi: %dx%d", b.Dx(), b.Dy())
	}
	if !isLight(img.At(b.Dx()/2, b.Dy()/2)) {
		t.Fatalf("empty page should have a white background")
	}
}

func TestRasterizeRejectsEmptyPage(t *testing.T) {
	if _, err := NewRenderer(".").Rasterize(layout.Page{}, 1); err == nil {
		t.Fatalf("expected error for zero-sized page")
	}
}

func TestRasterizeDrawsQRCodeAndIcon(t *testing.T) {
	r := NewRenderer(".")
	page := layout.Page{
		Width:  30,
		Height: 30,
		QRCodes: []layout.QRBox{{
			Value: "WEB+SPOOLMAN:S-42", X: 5, Y: 5, Size: 20, Level: "Q", Icon: "P",
		}},
	}
	img, err := r.Rasterize(page, 2)
	if err != nil {
		t.Fatalf("rasterize error: %v", err)
	}
	px := func(mm float64) int { return int(layout.MmToPx(mm, 2)) }

	// 左上角定位图案中心为深色
	if isLight(img.At(px(7.8), px(7.8))) {
		t.Fatalf("finder pattern should be dark")
	}
	// 二维码外为白色
	if !isLight(img.At(px(2), px(2))) {
		t.Fatalf("margin should stay white")
	}
	// 图标方块边缘为白色
	icon := layout.QRIconSize(page.QRCodes[0])
	edge := 15 - icon/2 + 0.3
	if !isLight(img.At(px(edge), px(edge))) {
		t.Fatalf("icon square should be white")
	}
}

func TestRasterizeInvertedRunHasDarkBackground(t *testing.T) {
	r := NewRenderer(".")
	page := layout.Page{
		Width:  40,
		Height: 10,
		Texts: []layout.TextBox{{
			X: 0, Y: 0, Width: 40, FontSize: 6, Font: layout.FontBody, Color: layout.Black,
			Lines: []layout.TextLine{{
				Runs:   []markup.Run{{Text: "   ", Style: markup.Style{Inverted: true}}},
				Height: 8,
			}},
		}},
	}
	img, err := r.Rasterize(page, 2)
	if err != nil {
		t.Fatalf("rasterize error: %v", err)
	}
	if isLight(img.At(int(layout.MmToPx(0.5, 2)), int(layout.MmToPx(4, 2)))) {
		t.Fatalf("inverted run should paint a dark background")
	}
}

func TestRasterizeMonochromeLogo(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 60, B: 60, A: 255}) // 灰度约 < 180
		}
	}
	r := NewRenderer(".")
	page := layout.Page{
		Width: 20, Height: 20,
		Images: []layout.ImageBox{{Src: "mem", X: 5, Y: 5, Width: 10, Height: 10, Monochrome: true, Image: src}},
	}
	img, err := r.Rasterize(page, 1)
	if err != nil {
		t.Fatalf("rasterize error: %v", err)
	}
	c := color.RGBAModel.Convert(img.At(int(layout.MmToPx(10, 1)), int(layout.MmToPx(10, 1)))).(color.RGBA)
	if c.R > 60 || c.G > 60 || c.B > 60 {
		t.Fatalf("monochrome logo should be printed black, got %#v", c)
	}
}

func TestRenderPDF(t *testing.T) {
	r := NewRenderer(".")
	data, err := r.RenderPDF(&layout.Result{Pages: []layout.Page{{Width: 62, Height: 40}, {Width: 62, Height: 40}}})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("output is not a PDF")
	}
	if _, err := r.RenderPDF(&layout.Result{}); err == nil {
		t.Fatalf("expected error for empty result")
	}
}

func isLight(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 > 0xC000
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
