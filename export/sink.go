package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/spoolprint/metrics"
)

// Sink 接收导出文件。
type Sink interface {
	Write(ctx context.Context, a Artifact) error
}

// DirSink 把文件写入目录，目录不存在时创建。
type DirSink struct {
	Dir string
}

func (s DirSink) Write(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	// 文件名已经过 Sanitize，不含路径分隔符
	path := filepath.Join(s.Dir, filepath.Base(a.Name))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", a.Name, err)
	}
	return nil
}

// WriteAll 依次写入全部文件，返回写入的路径名列表。
func WriteAll(ctx context.Context, sink Sink, artifacts []Artifact) ([]string, error) {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := sink.Write(ctx, a); err != nil {
			metrics.ExportErrors.WithLabelValues(strings.TrimPrefix(filepath.Ext(a.Name), "."), metrics.StageWrite).Inc()
			return names, err
		}
		names = append(names, a.Name)
	}
	return names, nil
}
