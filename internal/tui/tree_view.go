package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/styles"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// treeView is the cursor over the flattened workspace tree.
type treeView struct {
	entries []workspace.Entry
	cursor  int
	offset  int
}

func (v *treeView) refresh(tree *workspace.Tree) {
	v.entries = slices.Collect(tree.All())
	v.cursor = clamp(v.cursor, 0, len(v.entries)-1)
}

func (v *treeView) current() (workspace.Entry, bool) {
	if v.cursor < 0 || v.cursor >= len(v.entries) {
		return workspace.Entry{}, false
	}
	return v.entries[v.cursor], true
}

func (v *treeView) move(delta int) {
	v.cursor = clamp(v.cursor+delta, 0, len(v.entries)-1)
}

func (v *treeView) top()    { v.cursor = 0 }
func (v *treeView) bottom() { v.cursor = max(len(v.entries)-1, 0) }

// focusFolder moves the cursor onto a folder row.
func (v *treeView) focusFolder(id int) {
	for i, e := range v.entries {
		if !e.IsFile && e.Folder.ID == id {
			v.cursor = i
			return
		}
	}
}

// focusFile moves the cursor onto a file row.
func (v *treeView) focusFile(id int) {
	for i, e := range v.entries {
		if e.IsFile && e.File.ID == id {
			v.cursor = i
			return
		}
	}
}

func (v *treeView) render(tree *workspace.Tree, width, height int, focused bool) []string {
	if len(v.entries) == 0 {
		return []string{
			styles.HelpStyle.Render("Workspace is empty."),
			styles.HelpStyle.Render("Press A to add a root folder."),
		}
	}

	v.offset = scrollTo(v.cursor, v.offset, height)
	end := min(v.offset+height, len(v.entries))

	lines := make([]string, 0, end-v.offset)
	for i := v.offset; i < end; i++ {
		e := v.entries[i]
		line := treeRow(tree, e)
		if i == v.cursor {
			if focused {
				line = styles.TreeSelectedStyle.Render(fit(plainTreeRow(tree, e), width))
			} else {
				line = styles.CursorLineStyle.Render(fit(plainTreeRow(tree, e), width))
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func treeMark(tree *workspace.Tree, e workspace.Entry) string {
	if e.IsFile && tree.SelectedFile() == e.File.ID {
		return "*"
	}
	if !e.IsFile && tree.SelectedFolder() == e.Folder.ID {
		return "*"
	}
	return " "
}

func treeRow(tree *workspace.Tree, e workspace.Entry) string {
	indent := strings.Repeat("  ", e.Depth)
	if e.IsFile {
		return fmt.Sprintf("%s%s %s%s", indent, treeMark(tree, e), styles.IconFileC, styles.TreeFileStyle.Render(e.File.Name))
	}
	return fmt.Sprintf("%s%s %s %s", indent, treeMark(tree, e), styles.IconFolderOpen, styles.TreeFolderStyle.Render(e.Folder.Name))
}

// plainTreeRow is treeRow without inner styles, for rows that get a
// background style of their own.
func plainTreeRow(tree *workspace.Tree, e workspace.Entry) string {
	indent := strings.Repeat("  ", e.Depth)
	if e.IsFile {
		return fmt.Sprintf("%s%s %s%s", indent, treeMark(tree, e), styles.IconFileC, e.File.Name)
	}
	return fmt.Sprintf("%s%s %s %s", indent, treeMark(tree, e), styles.IconFolderOpen, e.Folder.Name)
}
