package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ByLCY/spoolprint/logging"
	"github.com/ByLCY/spoolprint/logo"
	"github.com/ByLCY/spoolprint/settings"
)

// Config 是命令行的完整配置，来源依次为默认值、spoolprint.yaml、SPOOLPRINT_* 环境变量与命令行参数。
type Config struct {
	Log      logging.Config  `mapstructure:"log"`
	Settings settings.Config `mapstructure:"settings"`
	Logos    LogosConfig     `mapstructure:"logos"`
	Output   OutputConfig    `mapstructure:"output"`
	Export   ExportConfig    `mapstructure:"export"`
}

// LogosConfig 指定厂商 logo 包的位置。BaseURL 与 Dir 都为空时不加载 logo。
type LogosConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// ExportConfig 控制二维码内容。BaseURL 为空时读取设置存储中的 base_url。
type ExportConfig struct {
	BaseURL string `mapstructure:"base_url"`
	UseURL  bool   `mapstructure:"use_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("settings.backend", "file")
	v.SetDefault("settings.path", defaultSettingsPath())
	v.SetDefault("logos.cache_ttl", logo.DefaultCacheTTL)
	v.SetDefault("output.dir", ".")
	v.SetDefault("export.use_url", false)
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "spoolprint-settings.yaml"
	}
	return filepath.Join(dir, "spoolprint", "settings.yaml")
}

// initViper 读取配置文件。显式指定的文件必须存在；按默认路径查找时文件缺失不算错误。
func initViper(v *viper.Viper, configFile string) error {
	setDefaults(v)
	v.SetEnvPrefix("SPOOLPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("spoolprint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "spoolprint"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}
