// Package export 把标签条目排版、去重、栅格化，并编码为 PNG 或 AML 文件，
// 可选打包为一个 zip。每次导出只产生一种格式。
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/spoolprint/codec/aml"
	"github.com/ByLCY/spoolprint/codec/bundle"
	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/logging"
	"github.com/ByLCY/spoolprint/metrics"
	"github.com/ByLCY/spoolprint/record"
	"github.com/ByLCY/spoolprint/renderer"
)

var (
	// ErrNoItems 表示没有可导出的标签。
	ErrNoItems = errors.New("export: no items")
	// ErrUnknownFormat 表示导出格式既不是 png 也不是 aml。
	ErrUnknownFormat = errors.New("export: unknown format")
)

// Artifact 是一个导出的文件。
type Artifact struct {
	Name string
	Data []byte
}

// Request 描述一次导出。
type Request struct {
	ResourceType record.ResourceType
	Items        []layout.LabelItem
	Settings     layout.QRCodePrintSettings
	// KeepDuplicates 为 true 时不跳过视觉重复的标签。
	KeepDuplicates bool
}

// Exporter 顺序执行导出：同一时刻只有一张位图在内存中，文件顺序与条目顺序一致。
type Exporter struct {
	Renderer   renderer.Renderer
	Typesetter layout.Typesetter
	Logos      layout.LogoSource
	Fonts      map[string]layout.FontResource
	Logger     *zap.Logger
	Clock      func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// Layout 为请求中的每个条目生成一页布局。
func (e *Exporter) Layout(req Request) (*layout.Result, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	return layout.Paginate(req.Items, req.Settings, layout.BuildOptions{
		Typesetter: e.Typesetter,
		Logos:      e.Logos,
		Fonts:      e.Fonts,
	})
}

// Export 生成导出文件。zip 模式下只返回一个归档。
// 任一标签失败都会中止导出，错误中带有该标签的文件名。
func (e *Exporter) Export(ctx context.Context, req Request) ([]Artifact, error) {
	log := logging.OrNop(e.Logger)
	ps := req.Settings.PrintSettings
	format := ps.ExportFormat
	if format == "" {
		format = layout.FormatPNG
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if e.Renderer == nil {
		return nil, errors.New("export: 缺少渲染器")
	}

	start := e.now()
	fail := func(stage string, err error) ([]Artifact, error) {
		metrics.ExportErrors.WithLabelValues(string(format), stage).Inc()
		return nil, err
	}

	res, err := e.Layout(req)
	if err != nil {
		return fail(metrics.StageLayout, fmt.Errorf("标签布局失败: %w", err))
	}

	indexes := make([]int, 0, len(res.Pages))
	if req.KeepDuplicates {
		for i := range res.Pages {
			indexes = append(indexes, i)
		}
	} else {
		indexes = layout.Unique(res.Pages)
		if skipped := len(res.Pages) - len(indexes); skipped > 0 {
			metrics.LabelDuplicates.WithLabelValues(string(req.ResourceType)).Add(float64(skipped))
		}
	}

	ratio := layout.PixelRatio(ps.ExportDPI)
	names := NewNameAllocator()
	files := make([]Artifact, 0, len(indexes))
	for _, i := range indexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := res.Pages[i]
		name := names.Next(page.FilenameBase, format.Ext())

		img, err := e.Renderer.Rasterize(page, ratio)
		if err != nil {
			return fail(metrics.StageRasterize, fmt.Errorf("栅格化 %s 失败: %w", name, err))
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fail(metrics.StageEncode, fmt.Errorf("编码 %s 失败: %w", name, err))
		}
		data := buf.Bytes()
		if format == layout.FormatAML {
			if data, err = aml.Encode(page.Width, page.Height, data); err != nil {
				return fail(metrics.StageEncode, fmt.Errorf("编码 %s 失败: %w", name, err))
			}
		}
		log.Debug("label rasterised", zap.String("file", name), zap.Int("bytes", len(data)))
		files = append(files, Artifact{Name: name, Data: data})
	}

	out := files
	if ps.ExportAsZip {
		entries := make([]bundle.File, len(files))
		for i, f := range files {
			entries[i] = bundle.File{Name: f.Name, Data: f.Data}
		}
		var buf bytes.Buffer
		if err := bundle.Write(&buf, entries, e.now()); err != nil {
			return fail(metrics.StageBundle, fmt.Errorf("打包失败: %w", err))
		}
		out = []Artifact{{Name: bundle.ArchiveName(string(format), string(req.ResourceType)), Data: buf.Bytes()}}
	}

	metrics.LabelsExported.WithLabelValues(string(format), string(req.ResourceType)).Add(float64(len(files)))
	metrics.ExportDuration.WithLabelValues(string(format)).Observe(e.now().Sub(start).Seconds())
	log.Info("labels exported",
		zap.String("format", string(format)),
		zap.String("resource", string(req.ResourceType)),
		zap.Int("items", len(req.Items)),
		zap.Int("unique", len(indexes)),
		zap.Bool("zip", ps.ExportAsZip),
	)
	return out, nil
}
