// Package aml writes label images as AML documents, the XML format consumed
// by the label printer's desktop application.
package aml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/ByLCY/spoolprint/layout"
)

const (
	// Version 写入根元素的格式版本。
	Version = "1.0"
	// boundsInset 可打印区域相对纸张每个方向收缩的量（mm）。
	boundsInset = 2.0
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ErrNotPNG 表示页面负载不是 PNG。
var ErrNotPNG = errors.New("aml: payload is not a PNG image")

// Document 是一个待写出的 AML 文档。每页恰好嵌入一张与页面同尺寸的图片。
type Document struct {
	width, height float64
	pages         [][]byte
	// NewID 生成图片元素的数字 ID，缺省为随机数。文档内保证唯一。
	NewID func() uint32
}

// NewDocument 创建宽高为 wMm×hMm 的文档。
func NewDocument(wMm, hMm float64) *Document {
	return &Document{width: wMm, height: hMm, NewID: rand.Uint32}
}

// AddPage 追加一页，payload 为 PNG 字节。
func (d *Document) AddPage(png []byte) error {
	if !bytes.HasPrefix(png, pngSignature) {
		return ErrNotPNG
	}
	d.pages = append(d.pages, png)
	return nil
}

// Pages 返回已添加的页数。
func (d *Document) Pages() int { return len(d.pages) }

// decimal3 以三位小数写出属性值。
type decimal3 float64

func (v decimal3) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: strconv.FormatFloat(float64(v), 'f', 3, 64)}, nil
}

type xmlDocument struct {
	XMLName     xml.Name  `xml:"LabelDocument"`
	Version     string    `xml:"version,attr"`
	Unit        string    `xml:"unit,attr"`
	LabelWidth  decimal3  `xml:"labelWidth,attr"`
	LabelHeight decimal3  `xml:"labelHeight,attr"`
	Header      xmlHeader `xml:"Header"`
	Pages       []xmlPage `xml:"Pages>Page"`
}

type xmlHeader struct {
	Paper xmlPaper `xml:"Paper"`
}

type xmlPaper struct {
	Name        string   `xml:"name,attr"`
	Orientation string   `xml:"orientation,attr"`
	Width       decimal3 `xml:"width,attr"`
	Height      decimal3 `xml:"height,attr"`
	WidthInch   decimal3 `xml:"widthInch,attr"`
	HeightInch  decimal3 `xml:"heightInch,attr"`
	ValidWidth  decimal3 `xml:"validWidth,attr"`
	ValidHeight decimal3 `xml:"validHeight,attr"`
}

type xmlPage struct {
	Index  int      `xml:"index,attr"`
	Width  decimal3 `xml:"width,attr"`
	Height decimal3 `xml:"height,attr"`
	Image  xmlImage `xml:"Image"`
}

type xmlImage struct {
	ID     uint32   `xml:"id,attr"`
	Format string   `xml:"format,attr"`
	X      decimal3 `xml:"x,attr"`
	Y      decimal3 `xml:"y,attr"`
	Width  decimal3 `xml:"width,attr"`
	Height decimal3 `xml:"height,attr"`
	Data   string   `xml:",chardata"`
}

func (d *Document) header() xmlHeader {
	orientation := "portrait"
	if d.width > d.height {
		orientation = "landscape"
	}
	return xmlHeader{Paper: xmlPaper{
		Name:        fmt.Sprintf("%gx%gmm", d.width, d.height),
		Orientation: orientation,
		Width:       decimal3(d.width),
		Height:      decimal3(d.height),
		WidthInch:   decimal3(layout.MmToInch(d.width)),
		HeightInch:  decimal3(layout.MmToInch(d.height)),
		ValidWidth:  decimal3(math.Max(0, d.width-boundsInset)),
		ValidHeight: decimal3(math.Max(0, d.height-boundsInset)),
	}}
}

func (d *Document) build() xmlDocument {
	doc := xmlDocument{
		Version:     Version,
		Unit:        "mm",
		LabelWidth:  decimal3(d.width),
		LabelHeight: decimal3(d.height),
		Header:      d.header(),
		Pages:       make([]xmlPage, 0, len(d.pages)),
	}
	newID := d.NewID
	if newID == nil {
		newID = rand.Uint32
	}
	used := make(map[uint32]bool, len(d.pages))
	for i, png := range d.pages {
		id := newID()
		for id == 0 || used[id] {
			id = newID()
		}
		used[id] = true
		doc.Pages = append(doc.Pages, xmlPage{
			Index:  i + 1,
			Width:  decimal3(d.width),
			Height: decimal3(d.height),
			Image: xmlImage{
				ID:     id,
				Format: "png",
				Width:  decimal3(d.width),
				Height: decimal3(d.height),
				Data:   base64.StdEncoding.EncodeToString(png),
			},
		})
	}
	return doc
}

// WriteTo 以 UTF-8 XML 写出文档。
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if len(d.pages) == 0 {
		return 0, errors.New("aml: document has no pages")
	}
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, xml.Header); err != nil {
		return cw.n, err
	}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := enc.Encode(d.build()); err != nil {
		return cw.n, fmt.Errorf("aml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	_, err := io.WriteString(cw, "\n")
	return cw.n, err
}

// Encode 生成只含一页的 AML 文档字节。
func Encode(wMm, hMm float64, png []byte) ([]byte, error) {
	doc := NewDocument(wMm, hMm)
	if err := doc.AddPage(png); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
