package workspace

import "iter"

// Entry is one row of a depth-first walk over the tree.
type Entry struct {
	Depth  int
	Folder Folder // set when IsFile is false
	File   File   // set when IsFile is true
	IsFile bool
	IsLast bool // last entry among its siblings
}

// All yields every folder and file depth-first. A folder's subfolders come
// before its files, matching the server-rendered tree.
func (t *Tree) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		t.walk(t.roots, nil, 0, yield)
	}
}

func (t *Tree) walk(folders, files []int, depth int, yield func(Entry) bool) bool {
	total := len(folders) + len(files)
	for i, id := range folders {
		n := t.nodes[id]
		if !yield(Entry{Depth: depth, Folder: n.folder, IsLast: i == total-1}) {
			return false
		}
		if !t.walk(n.folders, n.files, depth+1, yield) {
			return false
		}
	}
	for i, id := range files {
		e := Entry{Depth: depth, File: t.files[id], IsFile: true, IsLast: len(folders)+i == total-1}
		if !yield(e) {
			return false
		}
	}
	return true
}

// Snapshot is the serializable form of a tree.
type Snapshot struct {
	Folders        []Folder `json:"folders"` // parents precede children
	Files          []File   `json:"files"`
	SelectedFolder int      `json:"selected_folder,omitempty"`
	SelectedFile   int      `json:"selected_file,omitempty"`
}

// Snapshot captures the tree in insertion order.
func (t *Tree) Snapshot() Snapshot {
	var s Snapshot
	for e := range t.All() {
		if e.IsFile {
			s.Files = append(s.Files, e.File)
		} else {
			s.Folders = append(s.Folders, e.Folder)
		}
	}
	s.SelectedFolder = t.selectedFolder
	s.SelectedFile = t.selectedFile
	return s
}

// Restore rebuilds a tree from a snapshot. Stale selection pointers are dropped.
func Restore(s Snapshot) (*Tree, error) {
	t := NewTree()
	for _, f := range s.Folders {
		if _, err := t.AddFolder(f); err != nil {
			return nil, err
		}
	}
	for _, f := range s.Files {
		if _, err := t.AddFile(f); err != nil {
			return nil, err
		}
	}
	if s.SelectedFolder != 0 {
		_ = t.SelectFolder(s.SelectedFolder)
	}
	if s.SelectedFile != 0 {
		_ = t.SelectFile(s.SelectedFile)
	}
	return t, nil
}
