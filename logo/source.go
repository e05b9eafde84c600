package logo

import (
	"image"

	"github.com/ByLCY/spoolprint/layout"
)

// Source 组合 Resolver 与 Loader，实现 layout.LogoSource。
type Source struct {
	Resolver *Resolver
	Loader   *Loader
}

var _ layout.LogoSource = (*Source)(nil)

// Candidates 返回厂商的候选 logo 地址。
func (s *Source) Candidates(vendorName string) []string {
	if s == nil || s.Resolver == nil {
		return nil
	}
	return s.Resolver.Candidates(vendorName)
}

// Load 加载 logo。
func (s *Source) Load(url string) (image.Image, error) {
	if s == nil || s.Loader == nil {
		return nil, ErrNoLogo
	}
	return s.Loader.Load(url)
}
