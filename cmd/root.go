// Package cmd 实现 spoolprint 命令行：导出标签与管理预设。
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ByLCY/spoolprint/logging"
	"github.com/ByLCY/spoolprint/settings"
)

// app 保存一次命令执行共享的配置与依赖。
type app struct {
	v          *viper.Viper
	configFile string
	cfg        Config
	logger     *zap.Logger
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "spoolprint",
		Short:         "Filament spool label exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := a.setupFlags(rootCmd); err != nil {
		// 只有参数名写错时才会发生
		panic(err)
	}

	rootCmd.AddCommand(
		exportCommand(a),
		presetsCommand(a),
		tagsCommand(a),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initialize()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = a.logger.Sync()
	}
	return rootCmd
}

// Execute 执行根命令。
func Execute() error {
	return RootCommand().Execute()
}

// setupFlags defines flags that are global to the command line interface
func (a *app) setupFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "配置文件路径（默认查找 ./spoolprint.yaml）")
	flags.String("log-level", "info", "日志级别 debug|info|warn|error")
	flags.String("log-format", "console", "日志格式 console|json")
	flags.String("settings-backend", "file", "设置存储 memory|file|sqlite")
	flags.String("settings-path", "", "设置存储路径")

	for key, name := range map[string]string{
		"log.level":        "log-level",
		"log.format":       "log-format",
		"settings.backend": "settings-backend",
		"settings.path":    "settings-path",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// initialize is called before any subcommand runs, after flags are parsed.
func (a *app) initialize() error {
	if err := initViper(a.v, a.configFile); err != nil {
		return err
	}
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("创建日志器失败: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) openStore() (settings.Store, error) {
	store, err := settings.Open(a.cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("打开设置存储失败: %w", err)
	}
	a.logger.Debug("settings store opened",
		zap.String("backend", a.cfg.Settings.Backend),
		zap.String("path", a.cfg.Settings.Path))
	return store, nil
}

// bindFlag 把子命令参数绑定到配置键。
func (a *app) bindFlag(cmd *cobra.Command, key, name string) {
	if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("error binding flag %s: %v", name, err))
	}
}
