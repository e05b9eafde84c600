package logo

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// printThreshold 灰度低于该值的像素打印为黑色。
const printThreshold = 180

// ToPrint 将 logo 转为适合热敏打印的黑白图：灰度阈值化，保留透明度。
func ToPrint(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			gray := color.GrayModel.Convert(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}).(color.Gray).Y
			v := uint8(255)
			if gray < printThreshold {
				v = 0
			}
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: v, G: v, B: v, A: c.A})
		}
	}
	return dst
}

// Fit 将图片等比缩小到最长边不超过 maxPx；已足够小时原样返回。
func Fit(src image.Image, maxPx int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPx <= 0 || (w <= maxPx && h <= maxPx) {
		return src
	}
	if w >= h {
		h = max(1, h*maxPx/w)
		w = maxPx
	} else {
		w = max(1, w*maxPx/h)
		h = maxPx
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
