package layout

import (
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for length and line-height.

// Unit represents the original unit of a length value as specified in settings.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // CSS pixels (1/96 in)
)

// Conversion constants between pt, px and mm.
const (
	PtToMm    = 0.352777
	MmToPt    = 1.0 / PtToMm
	MmPerInch = 25.4
	// CSSPixelsPerInch 是屏幕预览使用的基准分辨率，导出分辨率按它计算像素比。
	CSSPixelsPerInch = 96.0
)

// 像素比上下限。
const (
	MinPixelRatio = 1.0
	MaxPixelRatio = 10.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts the length to millimeters; unit-less values are taken as mm.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * MmPerInch
	case UnitPT:
		return l.Value * PtToMm
	case UnitPX:
		return l.Value / CSSPixelsPerInch * MmPerInch
	default:
		return l.Value
	}
}

// String formats the length with its unit, e.g. "62mm".
func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ParseRawLengthStr parses a length string such as "62mm", "2.5in" or "12pt" preserving its unit.
func ParseRawLengthStr(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec is either a factor of the font size (1.2x) or an absolute length.
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ResolveMM computes the absolute line height in mm for a font size given in mm.
func (s LineHeightSpec) ResolveMM(fontSizeMM float64) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSizeMM * s.Factor
	case LineHeightAbsolute:
		return s.Len.ToMM()
	default:
		return fontSizeMM * 1.2
	}
}

// PixelRatio 根据导出 DPI 计算相对 96dpi 的像素比，限制在 [1, 10]。
func PixelRatio(dpi float64) float64 {
	if math.IsNaN(dpi) {
		return MinPixelRatio
	}
	return math.Min(MaxPixelRatio, math.Max(MinPixelRatio, dpi/CSSPixelsPerInch))
}

// MmToPx 将毫米换算为给定像素比下的像素数。
func MmToPx(mm, pixelRatio float64) float64 {
	return mm / MmPerInch * CSSPixelsPerInch * pixelRatio
}

// MmToInch 将毫米换算为英寸。
func MmToInch(mm float64) float64 { return mm / MmPerInch }

// roundTo 四舍五入到 places 位小数。
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// floorTo 向下截断到 places 位小数。
func floorTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(v*p+1e-9) / p
}
