// Package export writes compiled artifacts to their sinks: a local
// directory and, when configured, an S3 compatible bucket.
package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/asm"
	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
)

// Artifact is the text of a generated document under its download name.
type Artifact struct {
	FileID  int
	Name    string
	Content []byte
}

// Receipt describes one completed write.
type Receipt struct {
	Sink      string `json:"sink"`
	Location  string `json:"location"`
	Bytes     int    `json:"bytes"`
	Unchanged bool   `json:"unchanged,omitempty"`
	Diff      string `json:"diff,omitempty"` // unified diff against the previous local file
}

// Writer stores an artifact.
type Writer interface {
	Write(ctx context.Context, a Artifact) (Receipt, error)
}

// FromCorrelator builds the artifact for the current compilation. The name
// is custom when given, otherwise the name the compile proposed, otherwise
// asm.DefaultArtifactName.
func FromCorrelator(c *correlate.Correlator, custom string) (Artifact, error) {
	res, ok := c.Result()
	if !ok {
		return Artifact{}, errs.Validationf("nothing has been compiled")
	}

	name, err := ArtifactName(custom, res.ArtifactName)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{FileID: res.FileID, Name: name, Content: []byte(c.ExportText())}, nil
}

// ArtifactName picks the download name. Names must be a single path element.
func ArtifactName(custom, proposed string) (string, error) {
	name := strings.TrimSpace(custom)
	if name == "" {
		name = strings.TrimSpace(proposed)
	}
	if name == "" {
		return asm.DefaultArtifactName, nil
	}
	if name != path.Base(name) || strings.ContainsRune(name, '\\') || name == "." || name == ".." {
		return "", errs.Validationf("artifact name %q must not contain a path", name)
	}
	return name, nil
}

// Multi is an ordered set of sinks.
type Multi []Writer

// WriteAll writes to every sink in order and stops at the first failure.
// It returns the receipt of every sink that succeeded.
func (m Multi) WriteAll(ctx context.Context, a Artifact) ([]Receipt, error) {
	if len(m) == 0 {
		return nil, errors.New("export: no sinks configured")
	}
	out := make([]Receipt, 0, len(m))
	for _, w := range m {
		r, err := w.Write(ctx, a)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// New builds the sinks named by cfg. The local directory is always written;
// S3 is added when enabled.
func New(cfg config.ExportConfig) (Multi, error) {
	sinks := Multi{NewLocalWriter(cfg.Dir)}
	if cfg.S3.Enabled {
		s3, err := NewS3Writer(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		sinks = append(sinks, s3)
	}
	return sinks, nil
}
