// Command mediacatalog runs the catalog API and its maintenance tasks.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "mediacatalog",
		Short:         "Personal media catalog API",
		Long:          `Serves the media catalog HTTP API and runs maintenance tasks against its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the yaml config file (env MEDIACATALOG_CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd, mergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfigPath prefers the flag, then the environment, then
// ./mediacatalog.yaml when present
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("MEDIACATALOG_CONFIG_PATH"); env != "" {
		return env
	}
	if _, err := os.Stat("./mediacatalog.yaml"); err == nil {
		return "./mediacatalog.yaml"
	}
	return ""
}

func loadConfig() error {
	path := resolveConfigPath(configPath)
	if err := config.Load(path); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := config.Get()
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	if path != "" {
		logger.Info("configuration loaded", "path", path)
	} else {
		logger.Info("using default configuration")
	}
	return nil
}

func openDatabase() (*gorm.DB, error) {
	return database.Initialize(config.Get().Database)
}

// initSentry is a no-op without a DSN. The returned func flushes buffered
// events.
func initSentry(cfg config.ReportingConfig) (func(), error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     "mediacatalog@" + version,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry.Init: %w", err)
	}
	logger.Info("error reporting enabled", "environment", cfg.Environment)
	return func() { sentry.Flush(2 * time.Second) }, nil
}
