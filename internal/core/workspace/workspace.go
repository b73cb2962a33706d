// Package workspace defines the folder/file hierarchy and the session
// selection pointers.
package workspace

import (
	"slices"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

// RootID is the parent id of a root folder. The remote store uses the same
// sentinel in its add-folder path.
const RootID = 0

// Folder is a node of the workspace tree.
type Folder struct {
	ID       int    `json:"folder_id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"` // RootID for root folders
}

// IsRoot returns true if the folder has no parent.
func (f Folder) IsRoot() bool {
	return f.ParentID == RootID
}

// File is a source file owned by exactly one folder.
type File struct {
	ID       int    `json:"file_id"`
	Name     string `json:"name"`
	FolderID int    `json:"folder_id"`
}

// Removed lists everything a cascading delete took out of the tree.
type Removed struct {
	Folders []int
	Files   []int
}

type node struct {
	folder  Folder
	folders []int // child folder ids, insertion order
	files   []int // file ids, insertion order
}

// Tree is the in-memory workspace hierarchy. It is not safe for concurrent
// use; the session owns it from a single goroutine.
type Tree struct {
	nodes          map[int]*node
	files          map[int]File
	roots          []int
	selectedFolder int
	selectedFile   int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes: make(map[int]*node),
		files: make(map[int]File),
	}
}

// AddFolder appends f as the last child of its parent, or as the last root.
func (t *Tree) AddFolder(f Folder) (Folder, error) {
	if f.ID <= 0 {
		return Folder{}, errs.Validationf("folder id %d must be positive", f.ID)
	}
	if _, ok := t.nodes[f.ID]; ok {
		return Folder{}, errs.Validationf("folder %d already exists", f.ID)
	}

	if f.IsRoot() {
		t.roots = append(t.roots, f.ID)
	} else {
		parent, ok := t.nodes[f.ParentID]
		if !ok {
			return Folder{}, errs.Validationf("parent folder %d does not exist", f.ParentID)
		}
		parent.folders = append(parent.folders, f.ID)
	}

	t.nodes[f.ID] = &node{folder: f}
	return f, nil
}

// DeleteFolder removes the folder and its whole subtree. File ids in the
// returned set no longer exist in the tree.
func (t *Tree) DeleteFolder(id int) (Removed, error) {
	n, ok := t.nodes[id]
	if !ok {
		return Removed{}, errs.NotFoundf("folder %d", id)
	}

	var removed Removed
	t.collect(id, &removed)

	if n.folder.IsRoot() {
		t.roots = without(t.roots, id)
	} else if parent, ok := t.nodes[n.folder.ParentID]; ok {
		parent.folders = without(parent.folders, id)
	}

	for _, fid := range removed.Files {
		delete(t.files, fid)
		if t.selectedFile == fid {
			t.selectedFile = 0
		}
	}
	for _, did := range removed.Folders {
		delete(t.nodes, did)
		if t.selectedFolder == did {
			t.selectedFolder = 0
		}
	}

	return removed, nil
}

// collect gathers id and all descendants depth-first, parents before children.
func (t *Tree) collect(id int, into *Removed) {
	n := t.nodes[id]
	into.Folders = append(into.Folders, id)
	into.Files = append(into.Files, n.files...)
	for _, child := range n.folders {
		t.collect(child, into)
	}
}

// AddFile appends f to its folder.
func (t *Tree) AddFile(f File) (File, error) {
	parent, ok := t.nodes[f.FolderID]
	if !ok {
		return File{}, errs.NotFoundf("folder %d", f.FolderID)
	}
	if f.ID <= 0 {
		return File{}, errs.Validationf("file id %d must be positive", f.ID)
	}
	if _, ok := t.files[f.ID]; ok {
		return File{}, errs.Validationf("file %d already exists", f.ID)
	}

	parent.files = append(parent.files, f.ID)
	t.files[f.ID] = f
	return f, nil
}

// DeleteFile removes a single file.
func (t *Tree) DeleteFile(id int) error {
	f, ok := t.files[id]
	if !ok {
		return errs.NotFoundf("file %d", id)
	}
	if parent, ok := t.nodes[f.FolderID]; ok {
		parent.files = without(parent.files, id)
	}
	delete(t.files, id)
	if t.selectedFile == id {
		t.selectedFile = 0
	}
	return nil
}

// SelectFolder makes id the target for new children.
func (t *Tree) SelectFolder(id int) error {
	if _, ok := t.nodes[id]; !ok {
		return errs.NotFoundf("folder %d", id)
	}
	t.selectedFolder = id
	return nil
}

// SelectFile makes id the target for sectioning and compilation.
func (t *Tree) SelectFile(id int) error {
	if _, ok := t.files[id]; !ok {
		return errs.NotFoundf("file %d", id)
	}
	t.selectedFile = id
	return nil
}

// SelectedFolder returns the selected folder id, or 0.
func (t *Tree) SelectedFolder() int { return t.selectedFolder }

// SelectedFile returns the selected file id, or 0.
func (t *Tree) SelectedFile() int { return t.selectedFile }

// Folder looks up a folder by id.
func (t *Tree) Folder(id int) (Folder, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Folder{}, false
	}
	return n.folder, true
}

// File looks up a file by id.
func (t *Tree) File(id int) (File, bool) {
	f, ok := t.files[id]
	return f, ok
}

// Roots returns the root folders in insertion order.
func (t *Tree) Roots() []Folder {
	return t.folderList(t.roots)
}

// Children returns the direct subfolders of id in insertion order.
func (t *Tree) Children(id int) []Folder {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return t.folderList(n.folders)
}

// Files returns the files of folder id in insertion order.
func (t *Tree) Files(id int) []File {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]File, 0, len(n.files))
	for _, fid := range n.files {
		out = append(out, t.files[fid])
	}
	return out
}

// Len returns the number of folders and files in the tree.
func (t *Tree) Len() (folders, files int) {
	return len(t.nodes), len(t.files)
}

// Path returns the folder names from the root down to id, joined by "/".
func (t *Tree) Path(id int) string {
	var parts []string
	for {
		n, ok := t.nodes[id]
		if !ok {
			break
		}
		parts = append(parts, n.folder.Name)
		if n.folder.IsRoot() {
			break
		}
		id = n.folder.ParentID
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

func (t *Tree) folderList(ids []int) []Folder {
	out := make([]Folder, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id].folder)
	}
	return out
}

func without(ids []int, id int) []int {
	return slices.DeleteFunc(ids, func(v int) bool { return v == id })
}
