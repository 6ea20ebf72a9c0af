// Package cli implements the etl command-line interface.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"marketdw/internal/config"
	"marketdw/internal/logging"
)

var (
	// Persistent flags. Empty means "keep the config file value".
	cfgFile     string
	storageKind string
	storageDSN  string
	dataDir     string
	logLevel    string
	logJSON     bool

	// Per-command period selector: a subdirectory of data_dir, e.g. "2025-01".
	period string

	cfg *config.Config
	log zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "etl",
		Short: "Marketplace sales warehouse loader",
		Long: `etl loads one period of marketplace CSV exports (orders, listings,
payment statements, deposits, bank transactions) and merges them into a
star schema warehouse in SQLite or Postgres.

Repeated runs are safe: dimensions upsert by business key and the calendar
dimension is idempotent. Fact rows append per run with a batch id.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./marketdw.yaml)")
	rootCmd.PersistentFlags().StringVar(&storageKind, "storage", "",
		"warehouse backend: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&storageDSN, "dsn", "",
		"backend DSN (file path for sqlite, connection URL for postgres)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"root directory of period export directories")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"log JSON lines instead of console output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if storageKind != "" {
		cfg.Storage.Kind = storageKind
	}
	if storageDSN != "" {
		cfg.Storage.DSN = storageDSN
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logJSON {
		cfg.LogJSON = true
	}

	log = logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: !cfg.LogJSON,
	})
	return nil
}

// periodDir resolves the directory to load: data_dir itself, or the period
// subdirectory when --period is set.
func periodDir() string {
	if period == "" {
		return cfg.DataDir
	}
	return filepath.Join(cfg.DataDir, period)
}
