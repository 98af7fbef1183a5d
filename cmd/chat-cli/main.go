// Package main 命令行聊天客户端
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/pkg/logger"
)

// Version 版本信息，构建时注入
var Version = "dev"

type rootOptions struct {
	configDir string
	sqlite    string
	debug     bool
	plain     bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chat-cli",
		Short:         "Talk to the water-safety assistant from a terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", "", "directory holding config.yaml (defaults to $APP_CONFIG_DIR or ./configs)")
	flags.StringVar(&opts.sqlite, "sqlite", "", "store the transcript in this sqlite file instead of the configured database")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")
	flags.BoolVar(&opts.plain, "plain", false, "print replies without markdown rendering")

	cmd.AddCommand(newSendCommand(opts))
	cmd.AddCommand(newReplCommand(opts))

	return cmd
}

// load 读取配置并把日志输出到 stderr，保持 stdout 只有回复内容
func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configDir != "" {
		cfg, err = config.LoadFrom(o.configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if o.debug {
		level = "debug"
	}
	logger.InitWithWriter(os.Stderr, level, "text")

	if o.sqlite != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLite.Path = o.sqlite
	}
	return cfg, nil
}
