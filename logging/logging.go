// Package logging 构造导出流水线与命令行使用的 zap 日志器。
package logging

import (
	"go.uber.org/zap"
)

// Config 日志配置。
type Config struct {
	Level       string `mapstructure:"level" json:"level"`
	Format      string `mapstructure:"format" json:"format"` // "json" 或 "console"
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	Development bool   `mapstructure:"development" json:"development"`
}

// New 按配置创建日志器。无法解析的级别按 info 处理。
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if cfg.OutputPath != "" {
		zapConfig.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "spoolprint")), nil
}

// NewNop 返回丢弃所有输出的日志器。
func NewNop() *zap.Logger { return zap.NewNop() }

// OrNop 在 l 为 nil 时返回 NewNop()，供可选日志依赖使用。
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
