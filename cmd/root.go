package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/dcwbuild/internal/logging"
	"github.com/pable/dcwbuild/internal/storage"
)

var (
	configPath string
	dbPath     string
	logLevel   string

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dcwbuild",
	Short: "Destiny Clan Warfare site data builder",
	Long:  "Fetch clan, member, event and leaderboard data from the Clan Warfare APIs, join and roll it up, and write the static site's snapshot and route data.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(os.Stderr, logLevel, "console")
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".dcwbuild", "ledger.db")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "dcwbuild.yaml", "path to YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite build ledger")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(sqlCmd)
}

// openLedger opens the build ledger, creating its directory if needed.
func openLedger() (*storage.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
