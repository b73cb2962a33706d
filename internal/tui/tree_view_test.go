package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/workspace"
)

func testTree(t *testing.T) *workspace.Tree {
	t.Helper()
	tree := workspace.NewTree()
	_, err := tree.AddFolder(workspace.Folder{ID: 1, Name: "src"})
	require.NoError(t, err)
	_, err = tree.AddFolder(workspace.Folder{ID: 2, Name: "lib", ParentID: 1})
	require.NoError(t, err)
	_, err = tree.AddFile(workspace.File{ID: 10, Name: "main.c", FolderID: 1})
	require.NoError(t, err)
	_, err = tree.AddFile(workspace.File{ID: 11, Name: "util.c", FolderID: 2})
	require.NoError(t, err)
	return tree
}

func TestTreeView_Focus(t *testing.T) {
	tree := testTree(t)
	var v treeView
	v.refresh(tree)
	require.Len(t, v.entries, 4)

	v.focusFile(11)
	e, ok := v.current()
	require.True(t, ok)
	assert.True(t, e.IsFile)
	assert.Equal(t, 11, e.File.ID)

	v.focusFolder(1)
	e, _ = v.current()
	assert.Equal(t, "src", e.Folder.Name)

	v.bottom()
	v.move(5)
	assert.Equal(t, 3, v.cursor)
	v.top()
	assert.Equal(t, 0, v.cursor)
}

func TestTreeView_RefreshClampsCursor(t *testing.T) {
	tree := testTree(t)
	var v treeView
	v.refresh(tree)
	v.bottom()

	_, err := tree.DeleteFolder(2)
	require.NoError(t, err)
	v.refresh(tree)

	assert.Equal(t, len(v.entries)-1, v.cursor)
}

func TestTreeView_RenderMarksSelection(t *testing.T) {
	tree := testTree(t)
	require.NoError(t, tree.SelectFolder(1))
	require.NoError(t, tree.SelectFile(10))

	var v treeView
	v.refresh(tree)
	v.focusFile(11)

	lines := v.render(tree, 40, 10, false)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "* ")
	assert.Contains(t, lines[0], "src")
}
