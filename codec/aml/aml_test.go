package aml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

type parsed struct {
	XMLName     xml.Name `xml:"LabelDocument"`
	LabelWidth  string   `xml:"labelWidth,attr"`
	LabelHeight string   `xml:"labelHeight,attr"`
	Paper       struct {
		WidthInch   string `xml:"widthInch,attr"`
		HeightInch  string `xml:"heightInch,attr"`
		ValidWidth  string `xml:"validWidth,attr"`
		ValidHeight string `xml:"validHeight,attr"`
		Orientation string `xml:"orientation,attr"`
	} `xml:"Header>Paper"`
	Pages []struct {
		Width  string `xml:"width,attr"`
		Images []struct {
			ID     uint32 `xml:"id,attr"`
			Width  string `xml:"width,attr"`
			Height string `xml:"height,attr"`
			Data   string `xml:",chardata"`
		} `xml:"Image"`
	} `xml:"Pages>Page"`
}

func decode(t *testing.T, data []byte) parsed {
	t.Helper()
	var p parsed
	require.NoError(t, xml.Unmarshal(data, &p))
	return p
}

func TestEncodeSinglePage(t *testing.T) {
	payload := samplePNG(t)
	data, err := Encode(62, 40, payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))

	doc := decode(t, data)
	assert.Equal(t, "62.000", doc.LabelWidth)
	assert.Equal(t, "40.000", doc.LabelHeight)
	assert.Equal(t, "2.441", doc.Paper.WidthInch)
	assert.Equal(t, "1.575", doc.Paper.HeightInch)
	assert.Equal(t, "60.000", doc.Paper.ValidWidth)
	assert.Equal(t, "38.000", doc.Paper.ValidHeight)
	assert.Equal(t, "landscape", doc.Paper.Orientation)

	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Images, 1, "each page embeds exactly one image")
	img := doc.Pages[0].Images[0]
	assert.Equal(t, "62.000", img.Width)
	assert.Equal(t, "40.000", img.Height)
	assert.NotZero(t, img.ID)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(img.Data))
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestHeaderIsDeterministic(t *testing.T) {
	payload := samplePNG(t)
	a, err := Encode(50.8, 25.4, payload)
	require.NoError(t, err)
	b, err := Encode(50.8, 25.4, payload)
	require.NoError(t, err)
	assert.Equal(t, decode(t, a).Paper, decode(t, b).Paper)
	assert.Equal(t, "2.000", decode(t, a).Paper.WidthInch)
}

func TestValidBoundsClampAtZero(t *testing.T) {
	data, err := Encode(1.5, 30, samplePNG(t))
	require.NoError(t, err)
	doc := decode(t, data)
	assert.Equal(t, "0.000", doc.Paper.ValidWidth)
	assert.Equal(t, "28.000", doc.Paper.ValidHeight)
	assert.Equal(t, "portrait", doc.Paper.Orientation)
}

func TestImageIDsUniqueWithinDocument(t *testing.T) {
	seq := []uint32{7, 7, 0, 7, 9, 9, 11}
	doc := NewDocument(30, 20)
	doc.NewID = func() uint32 {
		v := seq[0]
		seq = seq[1:]
		return v
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, doc.AddPage(samplePNG(t)))
	}
	assert.Equal(t, 3, doc.Pages())

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	p := decode(t, buf.Bytes())
	require.Len(t, p.Pages, 3)
	var ids []uint32
	for _, page := range p.Pages {
		ids = append(ids, page.Images[0].ID)
	}
	assert.Equal(t, []uint32{7, 9, 11}, ids)
}

func TestRejectsInvalidInput(t *testing.T) {
	doc := NewDocument(10, 10)
	assert.ErrorIs(t, doc.AddPage([]byte("GIF89a")), ErrNotPNG)

	_, err := doc.WriteTo(&bytes.Buffer{})
	assert.Error(t, err, "empty documents are not written")
}
