package layout

import (
	"image"

	"github.com/ByLCY/spoolprint/markup"
)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与 logo 来源。
type BuildOptions struct {
	Typesetter Typesetter
	Logos      LogoSource
	Fonts      map[string]FontResource // 为空时使用 DefaultFonts
}

// Typesetter 负责度量富文本并按宽度约束拆成可绘制的行。
// 所有长度参数均为 mm。
type Typesetter interface {
	LayoutRuns(content []markup.Line, width float64, font FontResource, fontSize, lineHeight float64, wrap string) ([]TextLine, error)
	MeasureRuns(line markup.Line, font FontResource, fontSize float64) (float64, error)
}

// LogoSource 是外部的厂商 logo 解析能力：给出候选 URL，并按 URL 加载图片。
type LogoSource interface {
	Candidates(vendorName string) []string
	Load(url string) (image.Image, error)
}

// 内置字体名称。
const (
	FontBody = "Body"
	FontBold = "Bold"
)

// DefaultFonts 返回内置字体资源。
func DefaultFonts() map[string]FontResource {
	return map[string]FontResource{
		FontBody: {Name: FontBody, Src: "embed:regular"},
		FontBold: {Name: FontBold, Src: "embed:bold", Style: "bold"},
	}
}
