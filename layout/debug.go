package layout

import (
	"encoding/json"
	"os"
)

type debugPage struct {
	Page
	Fingerprint string   `json:"fingerprint"`
	Duplicate   bool     `json:"duplicate,omitempty"`
	Text        []string `json:"text,omitempty"` // 各文本行的纯文本，按绘制顺序
}

type debugResult struct {
	Pages     []debugPage `json:"pages"`
	Resources ResourceSet `json:"resources"`
}

// WriteDebugJSON 将布局结果输出为 JSON，并附带每页指纹与是否为视觉重复页，便于调试。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	out := debugResult{Resources: res.Resources, Pages: make([]debugPage, 0, len(res.Pages))}
	seen := map[string]bool{}
	for _, p := range res.Pages {
		fp := Fingerprint(p)
		dp := debugPage{Page: p, Fingerprint: fp, Duplicate: seen[fp]}
		for _, tb := range p.Texts {
			for _, line := range tb.Lines {
				dp.Text = append(dp.Text, line.Content())
			}
		}
		out.Pages = append(out.Pages, dp)
		seen[fp] = true
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
