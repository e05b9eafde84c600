package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"iter"
)

// Pages 按需逐页生成布局（预览场景），每个 LabelItem 一页。
// 出错时产出零值页面与错误，迭代随即结束。
func Pages(items []LabelItem, s QRCodePrintSettings, opts BuildOptions) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for i, item := range items {
			page, err := BuildLabel(item, s, opts)
			if err != nil {
				yield(Page{}, fmt.Errorf("第 %d 个标签布局失败: %w", i+1, err))
				return
			}
			page.Item = i
			if !yield(page, nil) {
				return
			}
		}
	}
}

// Paginate 一次性生成全部页面（导出场景）。
func Paginate(items []LabelItem, s QRCodePrintSettings, opts BuildOptions) (*Result, error) {
	fonts := opts.Fonts
	if len(fonts) == 0 {
		fonts = DefaultFonts()
	}
	res := &Result{
		Pages:     make([]Page, 0, len(items)),
		Resources: ResourceSet{Fonts: fonts},
	}
	for page, err := range Pages(items, s, opts) {
		if err != nil {
			return nil, err
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}

// Fingerprint 返回页面视觉内容的指纹。两页指纹相同即视为视觉重复。
// 不参与绘制的字段（下标、文件名）不计入指纹；图片按来源 URL 计入。
func Fingerprint(p Page) string {
	p.Item = 0
	p.FilenameBase = ""
	data, err := json.Marshal(p)
	if err != nil {
		// Page 只含可序列化字段，理论上不会发生
		return fmt.Sprintf("%p", &p)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Unique 返回首次出现的各视觉唯一页面的下标，保持原顺序。
func Unique(pages []Page) []int {
	seen := make(map[string]struct{}, len(pages))
	out := make([]int, 0, len(pages))
	for i, p := range pages {
		fp := Fingerprint(p)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, i)
	}
	return out
}
