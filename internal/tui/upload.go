package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/session"
)

// uploads reads every file matching pattern into an AddFile command.
func uploads(pattern string) ([]session.Command, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, errs.NotFoundf("no files match %q", pattern)
	}

	cmds := make([]session.Command, 0, len(matches))
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		cmds = append(cmds, session.AddFile{Name: filepath.Base(path), Content: content})
	}
	return cmds, nil
}
