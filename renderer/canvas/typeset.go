package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/markup"
)

// faceSet 同一字号下的常规与加粗字体面。字体本身为粗体时两者相同。
type faceSet struct {
	regular *canvas.FontFace
	bold    *canvas.FontFace
}

func (f faceSet) pick(style markup.Style) *canvas.FontFace {
	if style.Bold {
		return f.bold
	}
	return f.regular
}

func (f faceSet) width(text string, style markup.Style) float64 {
	return f.pick(style).TextWidth(text)
}

func (f faceSet) lineWidth(runs []markup.Run) float64 {
	w := 0.0
	for _, run := range runs {
		w += f.width(run.Text, run.Style)
	}
	return w
}

func (r *Renderer) faces(font layout.FontResource, sizeMm float64, col layout.Color) (faceSet, error) {
	regular, err := r.fontFace(font, sizeMm, col)
	if err != nil {
		return faceSet{}, err
	}
	set := faceSet{regular: regular, bold: regular}
	if isBold(font) {
		return set, nil
	}
	boldRes, ok := r.fonts[layout.FontBold]
	if !ok {
		return set, nil
	}
	// 缺少粗体字体时退回常规字体面
	if bold, err := r.fontFace(boldRes, sizeMm, col); err == nil {
		set.bold = bold
	}
	return set, nil
}

// MeasureRuns 实现 layout.Typesetter，返回单行富文本的宽度（mm）。
func (r *Renderer) MeasureRuns(line markup.Line, font layout.FontResource, fontSize float64) (float64, error) {
	set, err := r.faces(font, fontSize, layout.Black)
	if err != nil {
		return 0, err
	}
	return set.lineWidth(line), nil
}

// LayoutRuns 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight 入参均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
// wrap 为 "nowrap" 时只按显式换行分行，否则优先在空白处折行，超长的词在词内拆分。
func (r *Renderer) LayoutRuns(content []markup.Line, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	set, err := r.faces(font, fontSize, layout.Black)
	if err != nil {
		return nil, err
	}

	var lines []layout.TextLine
	for _, line := range content {
		lines = append(lines, wrapRuns(line, width, set, wrap)...)
	}

	textHeight := set.regular.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Height: textHeight}}
	}
	for i := range lines {
		lines[i].Height = textHeight
		if i == 0 {
			lines[i].GapBefore = 0
		} else {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

type token struct {
	text  string
	style markup.Style
	space bool
	width float64
}

// lineBuilder 累积 token 并合并相邻同样式的片段。
type lineBuilder struct {
	tokens []token
	width  float64
}

func (b *lineBuilder) empty() bool { return len(b.tokens) == 0 }

func (b *lineBuilder) add(t token) {
	b.tokens = append(b.tokens, t)
	b.width += t.width
}

// line 生成 TextLine，行尾空白不计入宽度。
func (b *lineBuilder) line() layout.TextLine {
	toks := b.tokens
	for len(toks) > 0 && toks[len(toks)-1].space {
		toks = toks[:len(toks)-1]
	}
	var out layout.TextLine
	for _, t := range toks {
		out.Width += t.width
		if n := len(out.Runs); n > 0 && out.Runs[n-1].Style == t.style {
			out.Runs[n-1].Text += t.text
			continue
		}
		out.Runs = append(out.Runs, markup.Run{Text: t.text, Style: t.style})
	}
	return out
}

func (b *lineBuilder) reset() {
	b.tokens = b.tokens[:0]
	b.width = 0
}

func wrapRuns(line markup.Line, width float64, set faceSet, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	if wrap == "nowrap" {
		return []layout.TextLine{{Runs: line, Width: set.lineWidth(line)}}
	}

	var lines []layout.TextLine
	var cur lineBuilder
	emit := func() {
		lines = append(lines, cur.line())
		cur.reset()
	}

	for _, tok := range tokenizeRuns(line) {
		tok.width = set.width(tok.text, tok.style)
		if cur.width > 0 && cur.width+tok.width > limit {
			emit()
		}
		// 折行后的行首空白丢弃
		if tok.space && cur.empty() && len(lines) > 0 {
			continue
		}
		if tok.width <= limit {
			cur.add(tok)
			continue
		}
		face := set.pick(tok.style)
		for _, chunk := range splitTokenByWidth(tok.text, limit, face) {
			part := token{text: chunk, style: tok.style, width: face.TextWidth(chunk)}
			if cur.width > 0 && cur.width+part.width > limit {
				emit()
			}
			cur.add(part)
		}
	}
	if !cur.empty() || len(lines) == 0 {
		emit()
	}
	return lines
}

// tokenizeRuns 将富文本按空白/非空白边界拆成 token，保留各自样式。
func tokenizeRuns(line markup.Line) []token {
	var tokens []token
	for _, run := range line {
		var builder strings.Builder
		lastWasSpace := false
		flush := func() {
			if builder.Len() == 0 {
				return
			}
			tokens = append(tokens, token{text: builder.String(), style: run.Style, space: lastWasSpace})
			builder.Reset()
		}
		for _, r := range run.Text {
			if r == '\r' || r == '\n' {
				continue
			}
			isSpace := unicode.IsSpace(r)
			if builder.Len() > 0 && lastWasSpace != isSpace {
				flush()
			}
			lastWasSpace = isSpace
			builder.WriteRune(r)
		}
		flush()
	}
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && len([]rune(builder.String())) > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
