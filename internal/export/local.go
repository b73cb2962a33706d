package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// LocalWriter writes artifacts into a directory, replacing any previous
// file of the same name.
type LocalWriter struct {
	dir string
}

// NewLocalWriter returns a writer for dir. The directory is created on
// first write.
func NewLocalWriter(dir string) *LocalWriter {
	return &LocalWriter{dir: dir}
}

func (w *LocalWriter) Write(ctx context.Context, a Artifact) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	target := filepath.Join(w.dir, a.Name)
	r := Receipt{Sink: "local", Location: target, Bytes: len(a.Content)}

	prev, err := os.ReadFile(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Receipt{}, err
	case bytes.Equal(prev, a.Content):
		r.Unchanged = true
		return r, nil
	default:
		r.Diff = unified(a.Name, prev, a.Content)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Receipt{}, err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, a.Content, 0o644); err != nil {
		return Receipt{}, err
	}
	if err := os.Rename(tmp, target); err != nil {
		return Receipt{}, err
	}
	return r, nil
}

func unified(name string, a, b []byte) string {
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
	})
	if err != nil {
		return ""
	}
	return s
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
