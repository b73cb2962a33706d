package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

const gutterWidth = 10

// sourceView is the line cursor and mark of the open Source Document.
// Lines are 1-based; a zero cursor means the document is empty.
type sourceView struct {
	fileID int
	cursor int
	anchor int // first line of the marked range, 0 when nothing is marked
	offset int
	lines  int
}

func (v *sourceView) reset(fileID, lines int) {
	*v = sourceView{fileID: fileID, lines: lines}
	if lines > 0 {
		v.cursor = 1
	}
}

// resize keeps the cursor valid after the document was reloaded.
func (v *sourceView) resize(lines int) {
	v.lines = lines
	if lines == 0 {
		v.cursor, v.anchor = 0, 0
		return
	}
	v.cursor = clamp(v.cursor, 1, lines)
	if v.anchor > lines {
		v.anchor = 0
	}
}

func (v *sourceView) move(delta int) {
	if v.lines == 0 {
		return
	}
	v.cursor = clamp(v.cursor+delta, 1, v.lines)
}

func (v *sourceView) jump(line int) {
	if v.lines == 0 {
		return
	}
	v.cursor = clamp(line, 1, v.lines)
}

// toggleMark starts a marked range at the cursor, or clears it.
func (v *sourceView) toggleMark() {
	if v.anchor != 0 {
		v.anchor = 0
		return
	}
	v.anchor = v.cursor
}

// span is the marked range, or the cursor line when nothing is marked.
func (v *sourceView) span() section.Span {
	if v.anchor == 0 {
		return section.Span{Start: v.cursor, End: v.cursor}
	}
	return section.Span{Start: min(v.anchor, v.cursor), End: max(v.anchor, v.cursor)}
}

func (v *sourceView) marked(line int) bool {
	if v.anchor == 0 {
		return false
	}
	s := v.span()
	return line >= s.Start && line <= s.End
}

type sourceRender struct {
	doc         section.Document
	index       *section.Index
	corr        *correlate.Correlator
	lineNumbers bool
	focused     bool
}

func (v *sourceView) render(r sourceRender, width, height int) []string {
	if v.fileID == 0 {
		return []string{styles.HelpStyle.Render("Select a file in the tree.")}
	}
	if v.lines == 0 {
		return []string{styles.HelpStyle.Render("Empty file.")}
	}

	linked := r.corr.HasResult() && r.corr.FileID() == v.fileID
	numWidth := len(fmt.Sprint(v.lines))

	v.offset = scrollTo(v.cursor-1, v.offset, height)
	end := min(v.offset+height, v.lines)

	out := make([]string, 0, end-v.offset)
	for n := v.offset + 1; n <= end; n++ {
		text, _ := r.doc.Line(n)
		text = expandTabs(text)

		marker := " "
		if linked {
			if _, ok := r.corr.Link(n); ok {
				marker = styles.DividerStyle.Render("·")
			}
			if r.corr.IsHighlighted(n) {
				marker = styles.HighlightStyle.Render(styles.IconMarker)
			}
		}

		prefix := ""
		if r.lineNumbers {
			prefix = styles.LineNumberStyle.Render(fmt.Sprintf("%*d ", numWidth, n))
		}

		body := fit(text, max(width-lipgloss.Width(prefix)-gutterWidth-3, 1))
		switch {
		case n == v.cursor && r.focused:
			body = styles.CursorLineStyle.Render(body)
		case v.marked(n):
			body = styles.SelectionStyle.Render(body)
		}

		out = append(out, prefix+sectionGutter(r.index, v.fileID, n)+" "+marker+" "+body)
	}
	return out
}

// sectionGutter renders the kind on the first line of a section and a bar
// on the rest.
func sectionGutter(idx *section.Index, fileID, line int) string {
	sec, ok := idx.At(fileID, line)
	if !ok {
		return fit("", gutterWidth)
	}
	label := "│"
	if sec.StartLine == line {
		label = string(sec.Kind)
	}
	return styles.SectionStyle(sec.Kind).Render(fit(label, gutterWidth))
}
