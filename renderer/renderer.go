package renderer

import (
	"image"

	"github.com/ByLCY/spoolprint/layout"
)

// Renderer 将单页布局栅格化为位图。
// pixelRatio 为相对 96dpi 的像素比（见 layout.PixelRatio），位图尺寸为 mm→px 换算后向上取整。
type Renderer interface {
	Rasterize(page layout.Page, pixelRatio float64) (image.Image, error)
}
