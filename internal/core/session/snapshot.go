package session

import (
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// OpenDocument is a loaded Source Document with its sections.
type OpenDocument struct {
	Document section.Document  `json:"document"`
	Sections []section.Section `json:"sections"`
}

// Snapshot is the persistable state of a session. In-flight requests are
// not part of it.
type Snapshot struct {
	Tree        workspace.Snapshot `json:"tree"`
	Documents   []OpenDocument     `json:"documents,omitempty"`
	Correlation correlate.State    `json:"correlation"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Tree:        s.tree.Snapshot(),
		Correlation: s.corr.State(),
	}
	for _, id := range s.index.FileIDs() {
		doc, _ := s.index.Document(id)
		snap.Documents = append(snap.Documents, OpenDocument{Document: doc, Sections: s.index.List(id)})
	}
	return snap
}

// Restore rebuilds a session from a snapshot. Documents of files no longer
// in the tree are skipped.
func Restore(snap Snapshot, opts ...Option) (*Session, error) {
	s := New(opts...)

	tree, err := workspace.Restore(snap.Tree)
	if err != nil {
		return nil, err
	}
	s.tree = tree

	for _, od := range snap.Documents {
		if _, ok := tree.File(od.Document.FileID); !ok {
			continue
		}
		if err := s.index.Load(od.Document, od.Sections); err != nil {
			return nil, err
		}
	}

	corr, err := correlate.RestoreState(snap.Correlation)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.File(corr.FileID()); corr.HasResult() && !ok {
		corr = correlate.New()
	}
	s.corr = corr
	return s, nil
}
