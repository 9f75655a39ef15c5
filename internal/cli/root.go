// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ErkanEron/melonotes/internal/config"
	"github.com/ErkanEron/melonotes/internal/store"
	"github.com/ErkanEron/melonotes/internal/store/sqlite"
	"github.com/ErkanEron/melonotes/internal/store/surreal"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "melonotes",
	Short: "MELONOTES - A personal problem-solving notebook",
	Long: `MELONOTES is a personal note-taking server for tracking problems,
solution plans, steps, code snippets and scripts, with category and
tag organization.

It serves a JSON API backed by either SQLite or a SurrealDB document
store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "melonotes.toml", "path to config file")
}

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// openStore opens the configured storage backend.
func openStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendSurreal:
		return surreal.Open(surreal.Config{
			URL:       cfg.Surreal.URL,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
			Username:  cfg.Surreal.Username,
			Password:  cfg.Surreal.Password,
		}, log)
	default:
		return sqlite.Open(cfg.SQLite.Path, log)
	}
}
