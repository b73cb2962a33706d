package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/session"
)

// perform runs a configured action.
func (m *Model) perform(a Action) tea.Cmd {
	m.log.Debug().Str("action", a.Name).Str("key", a.Key).Msg("action")

	corr := m.sess.Correlator()
	switch a.Name {
	case config.ActionCompile:
		return m.start(session.Compile{Options: m.app.Config.Compile})

	case config.ActionExport:
		art, err := m.app.Artifact(m.ctx, "")
		if err != nil {
			return m.notifyErr(err)
		}
		ctx, app := m.ctx, m.app
		return func() tea.Msg {
			receipts, err := app.WriteArtifact(ctx, art)
			return exportDoneMsg{receipts: receipts, err: err}
		}

	case config.ActionToggleHighlight:
		if !corr.HasResult() || corr.FileID() != m.source.fileID {
			return m.notify(notify.LevelWarning, "compile this file first")
		}
		frag, on, err := corr.ToggleHighlight(m.source.cursor)
		if err != nil {
			return m.notify(notify.LevelWarning, err.Error())
		}
		m.output.refresh(corr)
		if on {
			m.output.focusLine(frag.Start)
		}
		return m.save()

	case config.ActionToggleBlock:
		block, ok := m.blockAtCursor()
		if !ok {
			return nil
		}
		if _, err := corr.ToggleBlock(block); err != nil {
			return m.notifyErr(err)
		}
		m.output.refresh(corr)
		return m.save()

	case config.ActionCollapseAll, config.ActionExpandAll:
		if !corr.HasResult() {
			return nil
		}
		corr.SetAllBlocksVisibility(a.Name == config.ActionExpandAll)
		m.output.refresh(corr)
		return m.save()

	case config.ActionJumpSource:
		gen, ok := m.output.currentLine()
		if !ok {
			return nil
		}
		src, ok := corr.SourceFor(gen)
		if !ok {
			return m.notify(notify.LevelInfo, fmt.Sprintf("generated line %d has no source line", gen+1))
		}
		var cmd tea.Cmd
		if corr.FileID() != m.source.fileID {
			f, ok := m.sess.Tree().File(corr.FileID())
			if !ok {
				return m.notify(notify.LevelWarning, "compiled file is no longer in the workspace")
			}
			cmd = m.openFile(f.FolderID, f.ID)
		}
		m.source.jump(src)
		m.focus = paneSource
		return cmd
	}
	return nil
}

// blockAtCursor returns the block owning the output line under the cursor.
func (m *Model) blockAtCursor() (int, bool) {
	gen, ok := m.output.currentLine()
	if !ok {
		return 0, false
	}
	res, ok := m.sess.Correlator().Result()
	if !ok || gen >= len(res.Document.Lines) {
		return 0, false
	}
	block := res.Document.Lines[gen].Block
	return block, block != 0
}
