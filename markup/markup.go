// Package markup 将标签文本中的轻量标记转换为富文本节点树。
//
//	**粗体**    ==反色==    换行符 -> LineBreak
//
// 两种标记可以互相嵌套；匹配是非贪婪的，未闭合的标记按普通文本处理。
package markup

import (
	"regexp"
	"strings"

	"github.com/ByLCY/spoolprint/binding"
)

var formatPattern = regexp.MustCompile(`(?s)\*\*(.*?)\*\*|==(.*?)==`)

// Kind 区分节点类型。
type Kind int

const (
	TextNode Kind = iota
	BoldNode
	InvertedNode
	LineBreakNode
)

// Node 是富文本树的一个节点。Text 只对 TextNode 有意义，Children 只对 Bold/Inverted 有意义。
type Node struct {
	Kind     Kind   `json:"kind"`
	Text     string `json:"text,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Text 构造文本节点。
func Text(s string) Node { return Node{Kind: TextNode, Text: s} }

// Bold 构造粗体节点。
func Bold(children ...Node) Node { return Node{Kind: BoldNode, Children: children} }

// Inverted 构造反色节点。
func Inverted(children ...Node) Node { return Node{Kind: InvertedNode, Children: children} }

// LineBreak 构造换行节点。
func LineBreak() Node { return Node{Kind: LineBreakNode} }

// ApplyTextFormatting 递归解析 **bold** 与 ==inverted== 标记。
func ApplyTextFormatting(text string) []Node {
	var nodes []Node
	last := 0
	for _, m := range formatPattern.FindAllStringSubmatchIndex(text, -1) {
		nodes = append(nodes, splitLines(text[last:m[0]])...)
		switch {
		case m[2] >= 0:
			nodes = append(nodes, Bold(ApplyTextFormatting(text[m[2]:m[3]])...))
		case m[4] >= 0:
			nodes = append(nodes, Inverted(ApplyTextFormatting(text[m[4]:m[5]])...))
		}
		last = m[1]
	}
	nodes = append(nodes, splitLines(text[last:])...)
	return nodes
}

// RenderLabelContents 渲染模板并解析其中的标记。
func RenderLabelContents(template string, record binding.Record) []Node {
	return ApplyTextFormatting(binding.RenderTemplateText(template, record))
}

func splitLines(s string) []Node {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	nodes := make([]Node, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			nodes = append(nodes, LineBreak())
		}
		if line != "" {
			nodes = append(nodes, Text(line))
		}
	}
	return nodes
}

// PlainText 去掉所有样式，仅保留文本与换行。
func PlainText(nodes []Node) string {
	var b strings.Builder
	Walk(nodes, func(n Node, _ Style) {
		switch n.Kind {
		case TextNode:
			b.WriteString(n.Text)
		case LineBreakNode:
			b.WriteByte('\n')
		}
	})
	return b.String()
}

// Fingerprint 返回节点树的规范化字符串，结构相同的树得到相同结果。
func Fingerprint(nodes []Node) string {
	var b strings.Builder
	var write func([]Node)
	write = func(ns []Node) {
		for _, n := range ns {
			switch n.Kind {
			case TextNode:
				b.WriteString("t(")
				b.WriteString(strings.ReplaceAll(n.Text, ")", `\)`))
				b.WriteString(")")
			case LineBreakNode:
				b.WriteString("br")
			case BoldNode:
				b.WriteString("b[")
				write(n.Children)
				b.WriteString("]")
			case InvertedNode:
				b.WriteString("i[")
				write(n.Children)
				b.WriteString("]")
			}
		}
	}
	write(nodes)
	return b.String()
}

// IsEmpty 判断节点树是否不含任何可见文本。
func IsEmpty(nodes []Node) bool {
	return strings.TrimSpace(PlainText(nodes)) == ""
}
