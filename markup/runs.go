package markup

// Style 是叶子节点继承到的样式。
type Style struct {
	Bold     bool `json:"bold,omitempty"`
	Inverted bool `json:"inverted,omitempty"`
}

// Run 是同一样式下的一段连续文本。
type Run struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Line 是按 LineBreak 切分后的一行。
type Line []Run

// Walk 深度优先遍历叶子节点（TextNode 与 LineBreakNode），并传入累积样式。
func Walk(nodes []Node, fn func(Node, Style)) {
	walk(nodes, Style{}, fn)
}

func walk(nodes []Node, style Style, fn func(Node, Style)) {
	for _, n := range nodes {
		switch n.Kind {
		case BoldNode:
			s := style
			s.Bold = true
			walk(n.Children, s, fn)
		case InvertedNode:
			s := style
			s.Inverted = true
			walk(n.Children, s, fn)
		default:
			fn(n, style)
		}
	}
}

// Lines 将节点树压平成按行分组的样式片段，相邻同样式片段会合并。
// 结果至少包含一行。
func Lines(nodes []Node) []Line {
	lines := []Line{{}}
	Walk(nodes, func(n Node, s Style) {
		if n.Kind == LineBreakNode {
			lines = append(lines, Line{})
			return
		}
		cur := lines[len(lines)-1]
		if k := len(cur); k > 0 && cur[k-1].Style == s {
			cur[k-1].Text += n.Text
			return
		}
		lines[len(lines)-1] = append(cur, Run{Text: n.Text, Style: s})
	})
	return lines
}
