// Package settings 是外部设置存储的键值接口及其实现。
// 值按 JSON 字符串存储，与 Spoolman 的 setting 表一致。
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrClosed 表示存储已关闭。
var ErrClosed = errors.New("settings: store closed")

// 常用设置键。
const (
	KeyCurrency = "currency"
	KeyBaseURL  = "base_url"

	DefaultCurrency = "EUR"
)

// Store 是设置的键值存储。Get 在键不存在时返回 ok=false。
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// GetJSON 读取 key 并解码到 out。键不存在时返回 ok=false 且不修改 out。
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("解析设置 %s 失败: %w", key, err)
	}
	return true, nil
}

// SetJSON 将 v 编码为 JSON 后写入 key。
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("编码设置 %s 失败: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Currency 返回货币代码，未设置时为 DefaultCurrency。
func Currency(ctx context.Context, s Store) (string, error) {
	var v string
	ok, err := GetJSON(ctx, s, KeyCurrency, &v)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(v) == "" {
		return DefaultCurrency, nil
	}
	return v, nil
}

// BaseURL 返回用于二维码 URL 的站点地址（去掉末尾的 "/"），未设置时为空。
func BaseURL(ctx context.Context, s Store) (string, error) {
	var v string
	if _, err := GetJSON(ctx, s, KeyBaseURL, &v); err != nil {
		return "", err
	}
	return strings.TrimRight(strings.TrimSpace(v), "/"), nil
}

// Config 选择存储实现。
type Config struct {
	Backend string `mapstructure:"backend"` // memory | file | sqlite
	Path    string `mapstructure:"path"`
}

// Open 根据配置打开存储。
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemory(), nil
	case "file", "yaml":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("未知的设置存储 %q", cfg.Backend)
	}
}
