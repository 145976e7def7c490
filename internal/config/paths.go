// ABOUTME: Config and data file locations following the XDG base directory layout
// ABOUTME: Resolves the config path from flag, environment and XDG defaults

package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath names the environment variable that overrides the config location
const EnvConfigPath = "CODECHAT_CONFIG"

// appDir is the directory name under the XDG config and data homes
const appDir = "codechat"

// ResolvePath returns the config file to load.
// Priority: flag value > CODECHAT_CONFIG > XDG_CONFIG_HOME/codechat/config.yaml > ~/.config/codechat/config.yaml
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "config.yaml")
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, appDir, "config.yaml")
}

// DataDir returns the directory for the database and tsnet state.
// Priority: XDG_DATA_HOME/codechat > ~/.local/share/codechat
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appDir)
}
