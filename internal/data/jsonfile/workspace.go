// Package jsonfile persists the workspace session as a single JSON document
// so state survives between CLI invocations.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hay-kot/asmbench/internal/core/session"
)

// WorkspaceFile is the root JSON structure stored on disk.
type WorkspaceFile struct {
	Writer  string           `json:"writer"`
	SavedAt time.Time        `json:"saved_at"`
	Session session.Snapshot `json:"session"`
}

// WorkspaceStore reads and writes the workspace snapshot file.
type WorkspaceStore struct {
	path   string
	writer string
	mu     sync.RWMutex
}

// NewWorkspaceStore creates a store at the given path. Every store gets its
// own writer id, stamped into the files it saves.
func NewWorkspaceStore(path string) *WorkspaceStore {
	return &WorkspaceStore{path: path, writer: uuid.NewString()}
}

// Path returns the file the store persists to.
func (s *WorkspaceStore) Path() string { return s.path }

// Writer returns the id this store stamps into saved files.
func (s *WorkspaceStore) Writer() string { return s.writer }

// Load returns the stored file. A missing or empty file yields a zero
// WorkspaceFile.
func (s *WorkspaceStore) Load(ctx context.Context) (WorkspaceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

// Session restores a session from the stored snapshot.
func (s *WorkspaceStore) Session(ctx context.Context, opts ...session.Option) (*session.Session, error) {
	file, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := session.Restore(file.Session, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.path, err)
	}
	return sess, nil
}

// Save replaces the stored snapshot.
func (s *WorkspaceStore) Save(ctx context.Context, snap session.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(WorkspaceFile{
		Writer:  s.writer,
		SavedAt: time.Now().UTC(),
		Session: snap,
	})
}

// Clear removes the stored snapshot.
func (s *WorkspaceStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// load reads the workspace file from disk.
func (s *WorkspaceStore) load() (WorkspaceFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceFile{}, nil
		}
		return WorkspaceFile{}, err
	}

	if len(data) == 0 {
		return WorkspaceFile{}, nil
	}

	var file WorkspaceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return WorkspaceFile{}, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return file, nil
}

// save writes the workspace file to disk atomically.
func (s *WorkspaceStore) save(file WorkspaceFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
