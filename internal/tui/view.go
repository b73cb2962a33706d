package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

const minTreeWidth = 24

// View renders the workbench.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	if m.loadErr != nil {
		return styles.ErrorStyle.Render("workspace could not be loaded: "+m.loadErr.Error()) +
			"\n" + styles.HelpStyle.Render("press q to quit")
	}
	if m.modal != nil {
		return overlay(m.modal, m.width, m.height)
	}

	helpView := m.help.View(m.keys)
	bodyHeight := max(m.height-1-lipgloss.Height(helpView), 3)

	treeWidth := min(max(m.width/5, minTreeWidth), m.width)
	rest := m.width - treeWidth
	sourceWidth := rest / 2
	outputWidth := rest - sourceWidth

	tree := m.renderPane(paneTree, "Workspace", treeWidth, bodyHeight, func(w, h int) []string {
		return m.tree.render(m.sess.Tree(), w, h, m.focus == paneTree)
	})
	source := m.renderPane(paneSource, m.sourceTitle(), sourceWidth, bodyHeight, func(w, h int) []string {
		doc, _ := m.sess.Sections().Document(m.source.fileID)
		return m.source.render(sourceRender{
			doc:         doc,
			index:       m.sess.Sections(),
			corr:        m.sess.Correlator(),
			lineNumbers: m.app.Config.TUI.LineNumbers,
			focused:     m.focus == paneSource,
		}, w, h)
	})
	output := m.renderPane(paneOutput, m.outputTitle(), outputWidth, bodyHeight, func(w, h int) []string {
		m.output.layout(m.sess.Correlator(), w, h, m.focus == paneOutput)
		return strings.Split(m.output.view(), "\n")
	})

	body := lipgloss.JoinHorizontal(lipgloss.Top, tree, source, output)
	body = overlayBottomRight(body, renderToasts(m.toasts), m.width)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar(), helpView)
}

// renderPane draws a bordered pane with a title row. content receives the
// inner size left for its lines.
func (m *Model) renderPane(p pane, title string, width, height int, content func(w, h int) []string) string {
	style := styles.PaneStyle
	if m.focus == p {
		style = styles.PaneFocusedStyle
	}
	innerW := max(width-style.GetHorizontalFrameSize(), 1)
	innerH := max(height-style.GetVerticalFrameSize(), 2)

	lines := append([]string{styles.PaneTitleStyle.Render(title)}, content(innerW, innerH-1)...)
	return style.Render(fitLines(lines, innerW, innerH))
}

func (m *Model) sourceTitle() string {
	tree := m.sess.Tree()
	f, ok := tree.File(m.source.fileID)
	if !ok {
		return "Source"
	}
	title := tree.Path(f.FolderID) + "/" + f.Name
	if m.source.anchor != 0 {
		s := m.source.span()
		title += fmt.Sprintf("  [%d-%d]", s.Start, s.End)
	}
	return title
}

func (m *Model) outputTitle() string {
	res, ok := m.sess.Correlator().Result()
	if !ok {
		return "Output"
	}
	title := "Output"
	if res.ArtifactName != "" {
		title += "  " + res.ArtifactName
	}
	return title
}

func (m *Model) statusBar() string {
	parts := []string{m.focus.String()}

	if m.pending > 0 {
		parts = append(parts, fmt.Sprintf("%s %d pending", styles.IconPending, m.pending))
	}

	if res, ok := m.sess.Correlator().Result(); ok {
		parts = append(parts, statusText(res))
	}

	if idx := m.sess.Sections(); idx.IsOpen(m.source.fileID) {
		parts = append(parts, fmt.Sprintf("%d sections", len(idx.List(m.source.fileID))))
	}
	if m.source.lines > 0 {
		parts = append(parts, fmt.Sprintf("Ln %d/%d", m.source.cursor, m.source.lines))
	}

	return styles.StatusBarStyle.Width(m.width).Render(strings.Join(parts, "  │  "))
}

func statusText(res correlate.Result) string {
	text := string(res.Status)
	if n := len(res.Diagnostics); n > 0 {
		text += fmt.Sprintf(" (%d)", n)
	}
	switch res.Status {
	case correlate.StatusClean:
		return styles.SuccessStyle.Render(styles.IconCheck + " " + text)
	case correlate.StatusWarnings:
		return styles.WarningStyle.Render(styles.IconWarning + " " + text)
	default:
		return styles.ErrorStyle.Render(styles.IconError + " " + text)
	}
}
