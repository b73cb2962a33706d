package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

// outputView scrolls the visible lines of the generated document. The
// cursor indexes rows, and each row maps to a generated line.
type outputView struct {
	vp     viewport.Model
	rows   []int
	cursor int
}

func newOutputView() outputView {
	return outputView{vp: viewport.New(0, 0)}
}

// refresh recomputes the visible rows, keeping the cursor on the same
// generated line when it is still shown.
func (v *outputView) refresh(corr *correlate.Correlator) {
	current, had := v.currentLine()
	v.rows = corr.VisibleLines()
	if had {
		v.focusLine(current)
		return
	}
	v.cursor = clamp(v.cursor, 0, len(v.rows)-1)
}

// currentLine returns the generated line under the cursor.
func (v *outputView) currentLine() (int, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return 0, false
	}
	return v.rows[v.cursor], true
}

// focusLine puts the cursor on generated line gen, or on the nearest
// visible line before it when gen is folded away.
func (v *outputView) focusLine(gen int) {
	i, found := slices.BinarySearch(v.rows, gen)
	if !found && i > 0 {
		i--
	}
	v.cursor = clamp(i, 0, len(v.rows)-1)
}

func (v *outputView) move(delta int) {
	v.cursor = clamp(v.cursor+delta, 0, len(v.rows)-1)
}

func (v *outputView) top()    { v.cursor = 0 }
func (v *outputView) bottom() { v.cursor = max(len(v.rows)-1, 0) }

// layout sizes the viewport and fills it with the rendered rows.
func (v *outputView) layout(corr *correlate.Correlator, width, height int, focused bool) {
	v.vp.Width = width
	v.vp.Height = height

	res, ok := corr.Result()
	if !ok {
		v.vp.SetContent("")
		return
	}

	numWidth := len(fmt.Sprint(len(res.Document.Lines)))
	lines := make([]string, 0, len(v.rows))
	for i, gen := range v.rows {
		l := res.Document.Lines[gen]
		num := styles.LineNumberStyle.Render(fmt.Sprintf("%*d ", numWidth, gen+1))
		text := expandTabs(l.Text)
		if l.Role == correlate.RoleHeader && l.Block != 0 && !corr.BlockVisible(l.Block) && nextHidden(corr, res, gen) {
			text += " [+]"
		}

		body := fit(text, max(width-numWidth-1, 1))
		src, owned := corr.SourceFor(gen)
		switch {
		case i == v.cursor && focused:
			body = styles.CursorLineStyle.Render(body)
		case owned && corr.IsHighlighted(src):
			body = styles.HighlightStyle.Render(body)
		case l.Role == correlate.RoleHeader:
			body = styles.BlockHeaderStyle.Render(body)
		}
		lines = append(lines, num+body)
	}

	v.vp.SetContent(strings.Join(lines, "\n"))
	v.vp.SetYOffset(scrollTo(v.cursor, v.vp.YOffset, height))
}

// nextHidden reports whether the line after a header is a folded body line,
// so only the last banner line of a block carries the fold mark.
func nextHidden(corr *correlate.Correlator, res correlate.Result, gen int) bool {
	next := gen + 1
	return next < len(res.Document.Lines) && !corr.LineVisible(next)
}

func (v *outputView) view() string {
	return v.vp.View()
}
