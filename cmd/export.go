package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/spoolprint/binding"
	"github.com/ByLCY/spoolprint/export"
	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/logo"
	"github.com/ByLCY/spoolprint/preset"
	"github.com/ByLCY/spoolprint/record"
	canvasrenderer "github.com/ByLCY/spoolprint/renderer/canvas"
	"github.com/ByLCY/spoolprint/settings"
)

type exportFlags struct {
	resourceType   string
	input          string
	preset         string
	format         string
	zip            bool
	dpi            float64
	paper          string
	errorLevel     string
	keepDuplicates bool
	debugPath      string
	previewPath    string
}

func exportCommand(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export labels for spool or filament records",
		Long: "读取 Spoolman 格式的 JSON 记录数组，按预设生成标签，写出 PNG 或 AML 文件（可打包为 zip）。\n" +
			"--in - 表示从标准输入读取。",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.resourceType, "type", "t", string(record.SpoolType), "记录类型 spool|filament")
	flags.StringVarP(&f.input, "in", "i", "-", "记录 JSON 文件路径")
	flags.StringVarP(&f.preset, "preset", "p", "", "预设名称或 ID（默认使用当前预设）")
	flags.StringVar(&f.format, "format", "", "覆盖预设中的导出格式 png|aml")
	flags.BoolVar(&f.zip, "zip", false, "打包为一个 zip")
	flags.Float64Var(&f.dpi, "dpi", 0, "覆盖预设中的导出 DPI")
	flags.StringVar(&f.paper, "paper", "", "覆盖预设中的纸张：纸张名或 宽x高（如 62x40、2.4inx1.5in）")
	flags.StringVar(&f.errorLevel, "error-level", "", "二维码纠错等级 L|M|Q|H")
	flags.BoolVar(&f.keepDuplicates, "keep-duplicates", false, "不跳过视觉重复的标签")
	flags.StringVar(&f.debugPath, "debug", "", "布局调试 JSON 输出路径")
	flags.StringVar(&f.previewPath, "preview", "", "预览 PDF 输出路径")

	flags.StringP("out", "o", ".", "输出目录，可使用 ${type}、${format}、${preset}")
	flags.String("base-url", "", "二维码 URL 使用的站点地址")
	flags.Bool("use-url", false, "二维码使用 URL 而不是 WEB+SPOOLMAN 标识")
	flags.String("logos-dir", "", "本地厂商 logo 包目录")
	flags.String("logos-url", "", "厂商 logo 包的 HTTP 地址")
	a.bindFlag(cmd, "output.dir", "out")
	a.bindFlag(cmd, "export.base_url", "base-url")
	a.bindFlag(cmd, "export.use_url", "use-url")
	a.bindFlag(cmd, "logos.dir", "logos-dir")
	a.bindFlag(cmd, "logos.base_url", "logos-url")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, f exportFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt := record.ResourceType(strings.ToLower(f.resourceType))
	if !rt.Valid() {
		return fmt.Errorf("未知的记录类型 %q", f.resourceType)
	}

	records, err := readRecords(cmd.InOrStdin(), f.input, rt)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ws, err := preset.Load(ctx, store)
	if err != nil {
		return err
	}
	if f.preset != "" {
		_, ref, ok := ws.Find(rt, f.preset)
		if !ok {
			return fmt.Errorf("%w: %s", preset.ErrNotFound, f.preset)
		}
		ws = ws.Select(rt, ref)
	}
	p, _ := ws.Current(rt)

	s := p.LabelSettings
	ps := s.PrintSettings
	if cmd.Flags().Changed("format") {
		ps = ps.WithExportFormat(layout.ExportFormat(strings.ToLower(f.format)), ps.ExportAsZip)
	}
	if cmd.Flags().Changed("zip") {
		ps = ps.WithExportFormat(ps.ExportFormat, f.zip)
	}
	if cmd.Flags().Changed("dpi") {
		ps = ps.WithExportDPI(f.dpi)
	}
	if f.paper != "" {
		if ps, err = ps.ParsePaper(f.paper); err != nil {
			return err
		}
	}
	s = s.WithPrintSettings(ps)

	baseURL := a.cfg.Export.BaseURL
	if baseURL == "" && a.cfg.Export.UseURL {
		if baseURL, err = settings.BaseURL(ctx, store); err != nil {
			return err
		}
	}
	items, err := record.Items(rt, records, p.Templates(), record.PayloadOptions{
		UseURL:     a.cfg.Export.UseURL,
		BaseURL:    baseURL,
		ErrorLevel: strings.ToUpper(f.errorLevel),
	})
	if err != nil {
		return err
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{})
	exp := &export.Exporter{
		Renderer:   r,
		Typesetter: r,
		Logger:     a.logger,
	}
	if src, err := a.logoSource(ctx); err != nil {
		a.logger.Warn("vendor logos disabled", zap.Error(err))
	} else if src != nil {
		exp.Logos = src
	}

	req := export.Request{ResourceType: rt, Items: items, Settings: s, KeepDuplicates: f.keepDuplicates}
	if f.debugPath != "" || f.previewPath != "" {
		res, err := exp.Layout(req)
		if err != nil {
			return fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(res, f.debugPath); err != nil {
			return err
		}
		if err := writePreview(r, res, f.previewPath); err != nil {
			return err
		}
	}

	artifacts, err := exp.Export(ctx, req)
	if err != nil {
		return err
	}
	dir := binding.Interpolate(a.cfg.Output.Dir, binding.Record{
		"type":   string(rt),
		"format": string(s.PrintSettings.ExportFormat),
		"preset": export.Sanitize(p.Name),
	})
	names, err := export.WriteAll(ctx, export.DirSink{Dir: dir}, artifacts)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, name))
	}
	return nil
}

func readRecords(stdin io.Reader, path string, rt record.ResourceType) ([]record.Labeled, error) {
	in := stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("无法打开记录文件 %s: %w", path, err)
		}
		defer file.Close()
		in = file
	}
	return record.Decode(rt, in)
}

// logoSource 按配置创建 logo 来源，未配置时返回 nil。
func (a *app) logoSource(ctx context.Context) (*logo.Source, error) {
	cfg := a.cfg.Logos
	if cfg.Dir == "" && cfg.BaseURL == "" {
		return nil, nil
	}
	loader, err := logo.NewLoader(logo.LoaderConfig{
		BaseURL:  cfg.BaseURL,
		Dir:      cfg.Dir,
		CacheTTL: cfg.CacheTTL,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	resolver := &logo.Resolver{}
	if m, err := loader.Manifest(ctx); err == nil {
		resolver.Manifest = m
	} else {
		a.logger.Debug("logo manifest unavailable", zap.Error(err))
	}
	return &logo.Source{Resolver: resolver, Loader: loader}, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if debugPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writePreview(r *canvasrenderer.Renderer, result *layout.Result, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.RenderPDF(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}
