// Package bundle packs exported label files into a single zip archive.
package bundle

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// File 是归档中的一个条目。
type File struct {
	Name string
	Data []byte
}

// ArchiveName 返回归档文件名，形如 "AML spool labels.zip"。
func ArchiveName(format, resourceType string) string {
	return fmt.Sprintf("%s %s labels.zip", strings.ToUpper(format), resourceType)
}

// Write 按给定顺序将文件写入 zip（Deflate 压缩）。条目修改时间固定为 modified，
// 为零值时使用当前时间。重复的条目名视为错误，调用方应先完成去重命名。
func Write(w io.Writer, files []File, modified time.Time) error {
	if modified.IsZero() {
		modified = time.Now()
	}
	zw := zip.NewWriter(w)
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Name == "" {
			return fmt.Errorf("bundle: empty entry name")
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return fmt.Errorf("bundle: duplicate entry %q", f.Name)
		}
		seen[key] = true

		hdr := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: modified}
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("bundle: create %s: %w", f.Name, err)
		}
		if _, err := entry.Write(f.Data); err != nil {
			return fmt.Errorf("bundle: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("bundle: close: %w", err)
	}
	return nil
}
