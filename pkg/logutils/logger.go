// Package logutils builds the file logger shared by the CLI and the TUI.
package logutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// LogFileName is the log file created in the data directory when no
// explicit path is given.
const LogFileName = "asmbench.log"

// Path returns file, or the default log file inside dataDir.
func Path(dataDir, file string) string {
	if file != "" {
		return file
	}
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, LogFileName)
}

// New returns a JSON logger appending to file, or to the default log file
// inside dataDir. The terminal belongs to the TUI, so there is no stdout
// fallback. Every entry carries the pid, since a CLI call and an open
// workbench may write to the same file.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level, dataDir, file string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	path := Path(dataDir, file)
	if path == "" {
		return zerolog.Logger{}, closer, errors.New("no log file or data directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("open log file: %w", err)
	}
	closer = func() { _ = f.Close() }

	l := zerolog.New(f).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger().
		Level(lvl)

	return l, closer, nil
}
