package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/logging"
)

var (
	// Version is set via ldflags during build.
	Version = "dev"

	configDir string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:     "formexport",
	Version: Version,
	Short:   "Export webform submissions to password protected CSV archives",
	Long: `formexport exports the submissions of the worldcup_vote webform to CSV,
packs them into an optionally encrypted zip archive and mails the password
to the account that requested the export.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")

	rootCmd.AddCommand(serveCmd, exportCmd, sweepCmd, migrateCmd, auditCmd)
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (config.Config, *viper.Viper, error) {
	cfg, v, err := config.Load(configDir)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if _, err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, v, nil
}
