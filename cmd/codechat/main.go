// ABOUTME: Entry point for the codechat server and its maintenance commands
// ABOUTME: Builds the cobra command tree and shared config/store helpers

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/codechat/internal/config"
	"github.com/2389/codechat/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
               _           _           _
  ___ ___   __| | ___  ___| |__   __ _| |_
 / __/ _ \ / _' |/ _ \/ __| '_ \ / _' | __|
| (_| (_) | (_| |  __/ (__| | | | (_| | |_
 \___\___/ \__,_|\___|\___|_| |_|\__,_|\__|
`

// configFlag holds the --config persistent flag
var configFlag string

var rootCmd = &cobra.Command{
	Use:           "codechat",
	Short:         "Chat with a code interpreter from the browser",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file (default $CODECHAT_CONFIG or ~/.config/codechat/config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newChatsCmd(),
		newHistoryCmd(),
		newRenameCmd(),
		newExportCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// loadConfig loads the config selected by --config and the environment.
func loadConfig() (*config.Config, string, error) {
	path := config.ResolvePath(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// openStore opens the database named in the config, honoring CODECHAT_DB_PATH.
func openStore() (*store.SQLiteStore, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if envPath := os.Getenv("CODECHAT_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}
