package dsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// 标签模板语法：
//
//	{path.to.field}          直接替换为字段值
//	{prefix{path}suffix}     可选块：字段缺失时整个块（含前后缀）消失
//
// 嵌套深度最多两层。更深的嵌套，以及同一块内出现两个及以上内层标签，
// 都视为格式错误，整段原样保留。

var (
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "Text", Pattern: `[^{}]+`},
	})

	textTokenType   = mustTokenType("Text")
	lbraceTokenType = mustTokenType("LBrace")
	rbraceTokenType = mustTokenType("RBrace")
)

// PartKind 描述模板片段的类别。
type PartKind int

const (
	LiteralPart   PartKind = iota // 普通文本
	TagPart                       // {tag}
	BlockPart                     // {prefix{tag}suffix}
	MalformedPart                 // 形状不合法的花括号片段，原样输出
)

func (k PartKind) String() string {
	switch k {
	case LiteralPart:
		return "literal"
	case TagPart:
		return "tag"
	case BlockPart:
		return "block"
	case MalformedPart:
		return "malformed"
	default:
		return fmt.Sprintf("PartKind(%d)", int(k))
	}
}

// Part 是模板中的一个片段。Raw 始终保存源文本，便于原样回写。
type Part struct {
	Kind   PartKind `json:"kind"`
	Raw    string   `json:"raw"`
	Path   string   `json:"path,omitempty"`
	Prefix string   `json:"prefix,omitempty"`
	Suffix string   `json:"suffix,omitempty"`
}

// Template 是解析后的标签模板。
type Template struct {
	Source string `json:"source"`
	Parts  []Part `json:"parts"`
}

// Tags 返回模板引用的全部字段路径（按出现顺序，可能重复）。
func (t *Template) Tags() []string {
	if t == nil {
		return nil
	}
	var tags []string
	for _, p := range t.Parts {
		if p.Kind == TagPart || p.Kind == BlockPart {
			tags = append(tags, p.Path)
		}
	}
	return tags
}

// ParseTemplate 将模板文本切分为片段。词法规则覆盖所有字符，因此不会失败。
func ParseTemplate(src string) *Template {
	tpl := &Template{Source: src}
	if src == "" {
		return tpl
	}
	toks, err := lexTemplate(src)
	if err != nil {
		// 兜底：整段按字面量处理
		tpl.Parts = []Part{{Kind: LiteralPart, Raw: src}}
		return tpl
	}

	var literal strings.Builder
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		tpl.Parts = append(tpl.Parts, Part{Kind: LiteralPart, Raw: literal.String()})
		literal.Reset()
	}

	for i := 0; i < len(toks); {
		tok := toks[i]
		if tok.Type != lbraceTokenType {
			literal.WriteString(tok.Value)
			i++
			continue
		}
		span, end, ok := matchSpan(toks, i)
		if !ok {
			literal.WriteString(tok.Value)
			i++
			continue
		}
		flush()
		tpl.Parts = append(tpl.Parts, span)
		i = end + 1
	}
	flush()
	return tpl
}

func lexTemplate(src string) ([]lexer.Token, error) {
	lex, err := templateLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	toks := all[:0]
	for _, tok := range all {
		if tok.EOF() {
			continue
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// segment 是外层花括号内的一段：文本或内层 {tag}。
type segment struct {
	text  string
	inner bool
}

// matchSpan 从 toks[start]（必为 '{'）开始匹配一个平衡片段，
// 等价于正则 \{(?:[^{}]|\{[^{}]*\})*\} 的一次匹配。
func matchSpan(toks []lexer.Token, start int) (Part, int, bool) {
	var (
		segs []segment
		raw  strings.Builder
	)
	raw.WriteString(toks[start].Value)

	for j := start + 1; j < len(toks); j++ {
		tok := toks[j]
		switch tok.Type {
		case textTokenType:
			segs = append(segs, segment{text: tok.Value})
			raw.WriteString(tok.Value)
		case rbraceTokenType:
			raw.WriteString(tok.Value)
			return classify(segs, raw.String()), j, true
		case lbraceTokenType:
			// 内层只允许 { text? }
			k := j + 1
			inner := ""
			if k < len(toks) && toks[k].Type == textTokenType {
				inner = toks[k].Value
				k++
			}
			if k >= len(toks) || toks[k].Type != rbraceTokenType {
				// 嵌套超过两层：整个平衡片段原样保留，不展开内部
				return balancedSpan(toks, start)
			}
			segs = append(segs, segment{text: inner, inner: true})
			raw.WriteString("{" + inner + "}")
			j = k
		}
	}
	return Part{}, 0, false
}

// balancedSpan 从 toks[start] 开始找到与之配对的 '}'，把整段作为格式错误片段返回。
// 花括号不平衡时返回 false，由调用方按字面量处理。
func balancedSpan(toks []lexer.Token, start int) (Part, int, bool) {
	var raw strings.Builder
	depth := 0
	for j := start; j < len(toks); j++ {
		raw.WriteString(toks[j].Value)
		switch toks[j].Type {
		case lbraceTokenType:
			depth++
		case rbraceTokenType:
			depth--
			if depth == 0 {
				return Part{Kind: MalformedPart, Raw: raw.String()}, j, true
			}
		}
	}
	return Part{}, 0, false
}

func classify(segs []segment, raw string) Part {
	innerCount := 0
	for _, s := range segs {
		if s.inner {
			innerCount++
		}
	}
	switch innerCount {
	case 0:
		var path strings.Builder
		for _, s := range segs {
			path.WriteString(s.text)
		}
		return Part{Kind: TagPart, Raw: raw, Path: path.String()}
	case 1:
		var prefix, suffix strings.Builder
		part := Part{Kind: BlockPart, Raw: raw}
		seen := false
		for _, s := range segs {
			switch {
			case s.inner:
				part.Path = s.text
				seen = true
			case seen:
				suffix.WriteString(s.text)
			default:
				prefix.WriteString(s.text)
			}
		}
		part.Prefix = prefix.String()
		part.Suffix = suffix.String()
		return part
	default:
		return Part{Kind: MalformedPart, Raw: raw}
	}
}

func mustTokenType(name string) lexer.TokenType {
	symbols := templateLexer.Symbols()
	tt, ok := symbols[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
