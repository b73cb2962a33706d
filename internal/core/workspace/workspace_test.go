package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

// buildTree creates:
//
//	1 src
//	├─ 2 lib
//	│  └─ 4 deep
//	└─ 3 test
//	5 docs
func buildTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	for _, f := range []Folder{
		{ID: 1, Name: "src"},
		{ID: 2, Name: "lib", ParentID: 1},
		{ID: 3, Name: "test", ParentID: 1},
		{ID: 4, Name: "deep", ParentID: 2},
		{ID: 5, Name: "docs"},
	} {
		_, err := tree.AddFolder(f)
		require.NoError(t, err)
	}
	return tree
}

func TestAddFolder_AppendsInInsertionOrder(t *testing.T) {
	tree := buildTree(t)

	assert.Equal(t, []Folder{{ID: 1, Name: "src"}, {ID: 5, Name: "docs"}}, tree.Roots())
	children := tree.Children(1)
	require.Len(t, children, 2)
	assert.Equal(t, "lib", children[0].Name)
	assert.Equal(t, "test", children[1].Name)
	assert.Empty(t, tree.Children(4))
	assert.Empty(t, tree.Files(4))
}

func TestAddFolder_UnknownParent(t *testing.T) {
	tree := buildTree(t)

	_, err := tree.AddFolder(Folder{ID: 9, Name: "x", ParentID: 42})
	require.ErrorIs(t, err, errs.ErrValidation)

	folders, _ := tree.Len()
	assert.Equal(t, 5, folders)
}

func TestAddFolder_DuplicateID(t *testing.T) {
	tree := buildTree(t)

	_, err := tree.AddFolder(Folder{ID: 2, Name: "again"})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Len(t, tree.Roots(), 2)
}

func TestAddFolder_SiblingsMayShareNames(t *testing.T) {
	tree := buildTree(t)

	_, err := tree.AddFolder(Folder{ID: 6, Name: "lib", ParentID: 1})
	require.NoError(t, err)
	assert.Len(t, tree.Children(1), 3)
}

func TestDeleteFolder_Cascades(t *testing.T) {
	tree := buildTree(t)
	for _, f := range []File{
		{ID: 10, Name: "main.c", FolderID: 1},
		{ID: 11, Name: "lib.c", FolderID: 2},
		{ID: 12, Name: "deep.c", FolderID: 4},
		{ID: 13, Name: "readme.c", FolderID: 5},
	} {
		_, err := tree.AddFile(f)
		require.NoError(t, err)
	}
	require.NoError(t, tree.SelectFolder(4))
	require.NoError(t, tree.SelectFile(12))

	removed, err := tree.DeleteFolder(2)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{2, 4}, removed.Folders)
	assert.ElementsMatch(t, []int{11, 12}, removed.Files)
	assert.Equal(t, 0, tree.SelectedFolder())
	assert.Equal(t, 0, tree.SelectedFile())

	for e := range tree.All() {
		if e.IsFile {
			_, ok := tree.Folder(e.File.FolderID)
			assert.True(t, ok, "file %d points at removed folder", e.File.ID)
		}
	}

	folders, files := tree.Len()
	assert.Equal(t, 3, folders)
	assert.Equal(t, 2, files)
	assert.Len(t, tree.Children(1), 1)
}

func TestDeleteFolder_Root(t *testing.T) {
	tree := buildTree(t)

	removed, err := tree.DeleteFolder(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, removed.Folders)
	assert.Equal(t, []Folder{{ID: 5, Name: "docs"}}, tree.Roots())
}

func TestDeleteFolder_KeepsUnrelatedSelection(t *testing.T) {
	tree := buildTree(t)
	require.NoError(t, tree.SelectFolder(5))

	_, err := tree.DeleteFolder(2)
	require.NoError(t, err)
	assert.Equal(t, 5, tree.SelectedFolder())
}

func TestDeleteFolder_NotFound(t *testing.T) {
	tree := buildTree(t)

	_, err := tree.DeleteFolder(99)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAddAndDeleteFile(t *testing.T) {
	tree := NewTree()
	_, err := tree.AddFolder(Folder{ID: 7, Name: "src"})
	require.NoError(t, err)

	f, err := tree.AddFile(File{ID: 3, Name: "main.c", FolderID: 7})
	require.NoError(t, err)
	assert.Equal(t, File{ID: 3, Name: "main.c", FolderID: 7}, f)
	assert.Len(t, tree.Files(7), 1)

	require.NoError(t, tree.DeleteFile(f.ID))
	assert.Empty(t, tree.Files(7))

	require.ErrorIs(t, tree.DeleteFile(f.ID), errs.ErrNotFound)
}

func TestAddFile_UnknownFolder(t *testing.T) {
	tree := NewTree()

	_, err := tree.AddFile(File{ID: 1, Name: "main.c", FolderID: 7})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSelection_KindsPersistIndependently(t *testing.T) {
	tree := buildTree(t)
	_, err := tree.AddFile(File{ID: 10, Name: "main.c", FolderID: 3})
	require.NoError(t, err)

	require.NoError(t, tree.SelectFolder(2))
	require.NoError(t, tree.SelectFile(10))
	require.NoError(t, tree.SelectFolder(5))

	assert.Equal(t, 5, tree.SelectedFolder())
	assert.Equal(t, 10, tree.SelectedFile())

	require.ErrorIs(t, tree.SelectFile(77), errs.ErrNotFound)
	assert.Equal(t, 10, tree.SelectedFile())
}

func TestAll_DepthFirstFoldersBeforeFiles(t *testing.T) {
	tree := buildTree(t)
	_, err := tree.AddFile(File{ID: 10, Name: "main.c", FolderID: 1})
	require.NoError(t, err)

	var got []string
	for e := range tree.All() {
		name := e.Folder.Name
		if e.IsFile {
			name = e.File.Name
		}
		got = append(got, name)
	}

	assert.Equal(t, []string{"src", "lib", "deep", "test", "main.c", "docs"}, got)
}

func TestPath(t *testing.T) {
	tree := buildTree(t)
	assert.Equal(t, "src/lib/deep", tree.Path(4))
	assert.Equal(t, "docs", tree.Path(5))
	assert.Equal(t, "", tree.Path(99))
}

func TestSnapshotRestore(t *testing.T) {
	tree := buildTree(t)
	_, err := tree.AddFile(File{ID: 10, Name: "main.c", FolderID: 4})
	require.NoError(t, err)
	require.NoError(t, tree.SelectFolder(3))
	require.NoError(t, tree.SelectFile(10))

	restored, err := Restore(tree.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, tree.Snapshot(), restored.Snapshot())
	assert.Equal(t, 3, restored.SelectedFolder())
	assert.Equal(t, 10, restored.SelectedFile())
}
