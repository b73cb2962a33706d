package commands

import (
	"os"
	"path/filepath"

	"github.com/hay-kot/asmbench/internal/core/config"
)

const (
	appName = "asmbench"

	// LocalConfigName is looked up in the working directory before the
	// user config, so a checkout can pin its own server and compile options.
	LocalConfigName = ".asmbench.yaml"
)

// Flags carries the global options into every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook.
	Config *config.Config
}

// DefaultConfigPath returns ./.asmbench.yaml when it exists, otherwise
// $XDG_CONFIG_HOME/asmbench/config.yaml.
func DefaultConfigPath() string {
	if info, err := os.Stat(LocalConfigName); err == nil && !info.IsDir() {
		return LocalConfigName
	}
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/asmbench. It holds the workspace
// snapshot and the log file.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

// xdgDir returns the directory named by env, or fallback under the home
// directory when env is unset or not absolute.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback)
}
