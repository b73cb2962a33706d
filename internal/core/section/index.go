package section

import (
	"slices"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

type fileIndex struct {
	doc      Document
	sections map[Span]Section
}

// Index holds the Source Document and sections of every open file.
type Index struct {
	files map[int]*fileIndex
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{files: make(map[int]*fileIndex)}
}

// Load installs doc for its file and replaces the file's sections with the
// given set. Nothing changes if any section is invalid against doc.
func (x *Index) Load(doc Document, sections []Section) error {
	next := &fileIndex{doc: doc, sections: make(map[Span]Section, len(sections))}
	for _, s := range sections {
		s.FileID = doc.FileID
		if err := next.check(s.StartLine, s.EndLine); err != nil {
			return err
		}
		if !s.Kind.IsValid() {
			return errs.Validationf("section %s has unknown kind", s)
		}
		next.sections[s.Span()] = s
	}
	x.files[doc.FileID] = next
	return nil
}

// IsOpen reports whether a document is loaded for fileID.
func (x *Index) IsOpen(fileID int) bool {
	_, ok := x.files[fileID]
	return ok
}

// Document returns the loaded Source Document of a file.
func (x *Index) Document(fileID int) (Document, bool) {
	fi, ok := x.files[fileID]
	if !ok {
		return Document{}, false
	}
	return fi.doc, true
}

// Check validates a proposed interval without inserting it.
func (x *Index) Check(fileID, start, end int) error {
	fi, err := x.file(fileID)
	if err != nil {
		return err
	}
	return fi.check(start, end)
}

// Create inserts a new section.
func (x *Index) Create(fileID, start, end int, kind Kind) (Section, error) {
	if !kind.IsValid() {
		return Section{}, errs.Validationf("unknown section kind %q", kind)
	}
	fi, err := x.file(fileID)
	if err != nil {
		return Section{}, err
	}
	if err := fi.check(start, end); err != nil {
		return Section{}, err
	}

	s := Section{FileID: fileID, StartLine: start, EndLine: end, Kind: kind}
	fi.sections[s.Span()] = s
	return s, nil
}

// Get returns the section with the exact (start, end) pair.
func (x *Index) Get(fileID, start, end int) (Section, error) {
	fi, err := x.file(fileID)
	if err != nil {
		return Section{}, err
	}
	s, ok := fi.sections[Span{Start: start, End: end}]
	if !ok {
		return Section{}, errs.NotFoundf("section %d-%d in file %d", start, end, fileID)
	}
	return s, nil
}

// Delete removes the section with the exact (start, end) pair.
func (x *Index) Delete(fileID, start, end int) error {
	if _, err := x.Get(fileID, start, end); err != nil {
		return err
	}
	delete(x.files[fileID].sections, Span{Start: start, End: end})
	return nil
}

// List returns the file's sections ordered by start line.
func (x *Index) List(fileID int) []Section {
	fi, ok := x.files[fileID]
	if !ok {
		return nil
	}
	out := make([]Section, 0, len(fi.sections))
	for _, s := range fi.sections {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Section) int { return a.StartLine - b.StartLine })
	return out
}

// At returns the section covering a line, if any.
func (x *Index) At(fileID, line int) (Section, bool) {
	fi, ok := x.files[fileID]
	if !ok {
		return Section{}, false
	}
	for _, s := range fi.sections {
		if s.Contains(line) {
			return s, true
		}
	}
	return Section{}, false
}

// Discard forgets the document and sections of a file.
func (x *Index) Discard(fileID int) {
	delete(x.files, fileID)
}

// FileIDs returns the ids of all open files.
func (x *Index) FileIDs() []int {
	ids := make([]int, 0, len(x.files))
	for id := range x.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (x *Index) file(fileID int) (*fileIndex, error) {
	fi, ok := x.files[fileID]
	if !ok {
		return nil, errs.NotFoundf("no open document for file %d", fileID)
	}
	return fi, nil
}

func (fi *fileIndex) check(start, end int) error {
	if start > end {
		return errs.Validationf("start line %d is after end line %d", start, end)
	}
	if start < 1 || end > fi.doc.LineCount() {
		return errs.Validationf("lines %d-%d outside document of %d lines", start, end, fi.doc.LineCount())
	}
	want := Span{Start: start, End: end}
	for span, s := range fi.sections {
		if span.Overlaps(want) {
			return errs.Validationf("lines %d-%d overlap section %s", start, end, s)
		}
	}
	return nil
}
