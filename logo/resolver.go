package logo

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
)

// AssetPrefix 是 logo 包内资源的公共路径前缀。
const AssetPrefix = "/vendor-logos/"

// Manifest 描述 logo 包中的文件列表（manifest.json）。
type Manifest struct {
	SourceRepo string   `json:"source_repo,omitempty"`
	SourceRef  string   `json:"source_ref,omitempty"`
	SyncedAt   string   `json:"synced_at_utc,omitempty"`
	WebFiles   []string `json:"web_files"`
	PrintFiles []string `json:"print_files"`
}

// ParseManifest 解析 manifest.json。
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("解析 logo manifest 失败: %w", err)
	}
	return &m, nil
}

// Resolver 根据厂商名给出有序的候选 logo 路径。
type Resolver struct {
	// Manifest 为空时只返回按约定拼出的路径。
	Manifest *Manifest
	// PreferWeb 为 true 时网页版 logo 排在打印版之前。
	PreferWeb bool
}

// Candidates 返回候选路径：manifest 中与 slug 匹配的打印版、网页版，
// 然后是约定路径 print/<slug>.png、web/<slug>.png。结果去重且保持顺序。
func (r *Resolver) Candidates(vendorName string) []string {
	slug := Slugify(vendorName)
	if slug == "" {
		return nil
	}
	var printFiles, webFiles []string
	if r.Manifest != nil {
		printFiles = matching(r.Manifest.PrintFiles, slug)
		webFiles = matching(r.Manifest.WebFiles, slug)
	}
	printFiles = append(printFiles, AssetPrefix+"print/"+slug+".png")
	webFiles = append(webFiles, AssetPrefix+"web/"+slug+".png")

	groups := [][]string{printFiles, webFiles}
	if r.PreferWeb {
		groups[0], groups[1] = groups[1], groups[0]
	}
	seen := map[string]bool{}
	var out []string
	for _, g := range groups {
		for _, p := range g {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// matching 返回文件名主干等于 slug 或以 "slug-" 开头的条目，精确匹配在前。
func matching(files []string, slug string) []string {
	var exact, prefixed []string
	for _, f := range files {
		stem := strings.TrimSuffix(path.Base(f), path.Ext(f))
		stem = strings.TrimSuffix(strings.ToLower(stem), "-web")
		switch {
		case stem == slug:
			exact = append(exact, f)
		case strings.HasPrefix(stem, slug+"-"):
			prefixed = append(prefixed, f)
		}
	}
	return append(exact, prefixed...)
}

// assetPath 规范化 logo 地址为包内相对路径，拒绝越界路径。
func assetPath(url string) (string, bool) {
	p := strings.TrimSpace(url)
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			p = rest[j:]
		} else {
			p = ""
		}
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, strings.TrimPrefix(AssetPrefix, "/"))
	if p == "" {
		return "", false
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", false
		}
	}
	return p, true
}
