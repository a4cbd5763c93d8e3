// Command evernote-drive migrates Evernote .enex exports into Google Docs,
// one Drive folder per notebook.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"evernote-drive/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	appConfig *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "evernote-drive",
	Short: "Migrate Evernote exports into Google Drive",
	Long: `evernote-drive reads .enex notebook exports and recreates every note as a
Google Doc. Each export file becomes one Drive folder named after the file.

Run "evernote-drive auth" once to grant access, then
"evernote-drive migrate <file.enex|dir>...".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		logger = setupLogger(cmd)
		slog.SetDefault(logger)

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./evernote-drive.yaml or ~/.config/evernote-drive/evernote-drive.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("report-db", "", "SQLite file for run reports (default: ~/.config/evernote-drive/runs.db)")

	bindFlags(rootCmd.PersistentFlags().Lookup, map[string]string{
		"log_level": "log-level",
		"report_db": "report-db",
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func setupLogger(cmd *cobra.Command) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     getLogLevel(),
		AddSource: appConfig.LogLevel == "debug",
	}

	// Logs go to stderr; stdout carries the summary
	out := cmd.ErrOrStderr()
	if appConfig.IsProduction() {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func getLogLevel() slog.Level {
	switch appConfig.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
