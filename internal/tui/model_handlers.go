package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case exchangeDoneMsg:
		return m, m.handleExchangeDone(msg)

	case notificationMsg:
		return m, tea.Batch(
			m.notify(msg.Level, msg.Message),
			waitNotification(m.ctx, m.notes),
		)

	case workspaceChangedMsg:
		var cmd tea.Cmd
		if m.pending > 0 {
			m.stale = true
		} else {
			cmd = m.reloadExternal()
		}
		return m, tea.Batch(cmd, waitChange(m.ctx, m.changes))

	case exportDoneMsg:
		return m, m.handleExportDone(msg)

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if m.toasts.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toasts.SetTicking(false)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleExchangeDone(msg exchangeDoneMsg) tea.Cmd {
	m.pending--

	var cmds []tea.Cmd
	if m.stale {
		// Load the external snapshot first so this response lands on top of
		// it instead of the save overwriting it.
		cmds = append(cmds, m.reloadExternal())
	}

	if err := m.app.Finish(m.ctx, msg.req, msg.resp, msg.err); err == nil {
		m.sync()
		cmds = append(cmds, m.afterApply(msg))
	} else {
		m.sync()
	}

	cmds = append(cmds, m.start(msg.rest...))
	return tea.Batch(cmds...)
}

// afterApply moves focus to whatever a successful request produced.
func (m *Model) afterApply(msg exchangeDoneMsg) tea.Cmd {
	switch msg.req.Op {
	case session.OpAddFolder:
		m.tree.focusFolder(msg.resp.Folder.ID)
	case session.OpAddFile:
		m.tree.focusFile(msg.resp.File.ID)
		if len(msg.rest) > 0 {
			return nil
		}
		return m.openFile(msg.resp.File.FolderID, msg.resp.File.ID)
	case session.OpCreateSection, session.OpDeleteSection:
		m.source.anchor = 0
	case session.OpCompile:
		m.output.top()
	}
	return nil
}

// reloadExternal picks up a snapshot saved by another process.
func (m *Model) reloadExternal() tea.Cmd {
	m.stale = false
	changed, err := m.app.ExternalChange(m.ctx)
	if err != nil {
		return m.notifyErr(err)
	}
	if !changed {
		return nil
	}
	return m.adopt("workspace reloaded from disk")
}

// adopt switches to the App's current session after a reload.
func (m *Model) adopt(message string) tea.Cmd {
	sess, err := m.app.Session(m.ctx)
	if err != nil {
		return m.notifyErr(err)
	}
	m.sess = sess
	m.sync()
	return m.notify(notify.LevelInfo, message)
}

func (m *Model) handleExportDone(msg exportDoneMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range msg.receipts {
		text := fmt.Sprintf("exported %s (%d bytes)", r.Location, r.Bytes)
		if r.Unchanged {
			text = fmt.Sprintf("%s is unchanged", r.Location)
		}
		cmds = append(cmds, m.notify(notify.LevelInfo, text))
	}
	if msg.err != nil {
		cmds = append(cmds, m.notifyErr(msg.err))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.modal != nil {
		done, cmd := m.modal.Update(msg)
		if done {
			m.modal = nil
		}
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return nil
	}

	if m.sess == nil {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % paneCount
		return nil
	case key.Matches(msg, m.keys.PrevPane):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}

	if action, ok := m.actions.Resolve(keyName(msg)); ok && m.actionApplies(action) {
		if action.NeedsConfirm() {
			m.modal = newConfirmModal(action.Help, action.Confirm, func() tea.Cmd { return m.perform(action) })
			return nil
		}
		return m.perform(action)
	}

	switch m.focus {
	case paneTree:
		return m.handleTreeKey(msg)
	case paneSource:
		return m.handleSourceKey(msg)
	default:
		return m.handleOutputKey(msg)
	}
}

// actionApplies gates cursor-bound actions to the pane owning the cursor.
func (m *Model) actionApplies(a Action) bool {
	switch a.Name {
	case config.ActionToggleHighlight:
		return m.focus == paneSource
	case config.ActionToggleBlock, config.ActionJumpSource:
		return m.focus == paneOutput
	}
	return true
}

func (m *Model) reload() tea.Cmd {
	if m.pending > 0 {
		return m.notify(notify.LevelWarning, fmt.Sprintf("%d requests in flight", m.pending))
	}
	if _, err := m.app.Reload(m.ctx); err != nil {
		return m.notifyErr(err)
	}
	return m.adopt("workspace reloaded")
}

// openFile selects a file and fetches its document when it is not open.
func (m *Model) openFile(folderID, fileID int) tea.Cmd {
	if err := m.app.Select(m.ctx, folderID, fileID); err != nil {
		return m.notifyErr(err)
	}
	m.sync()
	if m.sess.Sections().IsOpen(fileID) {
		return nil
	}
	return m.start(session.OpenFile{FileID: fileID})
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.tree.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.tree.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.tree.move(-10)
	case key.Matches(msg, m.keys.PageDown):
		m.tree.move(10)
	case key.Matches(msg, m.keys.Top):
		m.tree.top()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.bottom()

	case key.Matches(msg, m.keys.Select):
		e, ok := m.tree.current()
		if !ok {
			return nil
		}
		if !e.IsFile {
			if err := m.app.Select(m.ctx, e.Folder.ID, 0); err != nil {
				return m.notifyErr(err)
			}
			m.sync()
			return nil
		}
		m.focus = paneSource
		return m.openFile(e.File.FolderID, e.File.ID)

	case key.Matches(msg, m.keys.AddRoot):
		m.modal = newInputModal("New root folder", "name", func(name string) tea.Cmd {
			return m.start(session.AddFolder{Name: name, Root: true})
		})

	case key.Matches(msg, m.keys.AddFolder):
		if cmd, ok := m.selectCursorFolder(); !ok {
			return cmd
		}
		m.modal = newInputModal("New folder in "+m.sess.Tree().Path(m.sess.Tree().SelectedFolder()), "name", func(name string) tea.Cmd {
			return m.start(session.AddFolder{Name: name})
		})

	case key.Matches(msg, m.keys.AddFile):
		if cmd, ok := m.selectCursorFolder(); !ok {
			return cmd
		}
		m.modal = newInputModal("Upload files", "glob, e.g. src/*.c", func(pattern string) tea.Cmd {
			cmds, err := uploads(pattern)
			if err != nil {
				return m.notifyErr(err)
			}
			return m.start(cmds...)
		})

	case key.Matches(msg, m.keys.Delete):
		return m.confirmTreeDelete()
	}
	return nil
}

// selectCursorFolder selects the folder under the cursor, or the folder of
// the file under it.
func (m *Model) selectCursorFolder() (tea.Cmd, bool) {
	e, ok := m.tree.current()
	if !ok {
		return m.notify(notify.LevelWarning, "add a root folder first"), false
	}
	id := e.Folder.ID
	if e.IsFile {
		id = e.File.FolderID
	}
	if err := m.app.Select(m.ctx, id, 0); err != nil {
		return m.notifyErr(err), false
	}
	m.sync()
	return nil, true
}

func (m *Model) confirmTreeDelete() tea.Cmd {
	e, ok := m.tree.current()
	if !ok {
		return nil
	}
	if e.IsFile {
		if err := m.app.Select(m.ctx, e.File.FolderID, e.File.ID); err != nil {
			return m.notifyErr(err)
		}
		m.sync()
		m.modal = newConfirmModal("Delete file", fmt.Sprintf("Delete %s?", e.File.Name), func() tea.Cmd {
			return m.start(session.DeleteFile{})
		})
		return nil
	}

	if err := m.app.Select(m.ctx, e.Folder.ID, 0); err != nil {
		return m.notifyErr(err)
	}
	m.sync()
	m.modal = newConfirmModal("Delete folder",
		fmt.Sprintf("Delete %s and everything in it?", m.sess.Tree().Path(e.Folder.ID)),
		func() tea.Cmd { return m.start(session.DeleteFolder{}) })
	return nil
}

func (m *Model) handleSourceKey(msg tea.KeyMsg) tea.Cmd {
	page := max(m.height-6, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.source.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.source.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.source.move(-page)
	case key.Matches(msg, m.keys.PageDown):
		m.source.move(page)
	case key.Matches(msg, m.keys.Top):
		m.source.jump(1)
	case key.Matches(msg, m.keys.Bottom):
		m.source.jump(m.source.lines)
	case key.Matches(msg, m.keys.Mark):
		m.source.toggleMark()
	case key.Matches(msg, m.keys.Escape):
		m.source.anchor = 0
	}

	if m.source.lines == 0 {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Tag):
		span := m.source.span()
		m.modal = newKindModal(span, func(k section.Kind) tea.Cmd {
			return m.start(session.CreateSection{Selection: session.LineSelection(span.Start, span.End), Kind: k})
		})

	case key.Matches(msg, m.keys.Delete):
		sec, ok := m.sess.Sections().At(m.source.fileID, m.source.cursor)
		if !ok {
			return m.notify(notify.LevelWarning, fmt.Sprintf("line %d is not in a section", m.source.cursor))
		}
		m.modal = newConfirmModal("Delete section", fmt.Sprintf("Delete %s section %d-%d?", sec.Kind, sec.StartLine, sec.EndLine), func() tea.Cmd {
			return m.start(session.DeleteSection{Start: sec.StartLine, End: sec.EndLine})
		})

	case key.Matches(msg, m.keys.Split):
		m.modal = newConfirmModal("Split file", "Replace every section with the server's split?", func() tea.Cmd {
			return m.start(session.SplitFile{})
		})

	case key.Matches(msg, m.keys.Suggest):
		return m.confirmSuggestions()
	}
	return nil
}

func (m *Model) confirmSuggestions() tea.Cmd {
	proposals, err := m.app.Suggest(m.ctx, m.source.fileID)
	if err != nil {
		return m.notifyErr(err)
	}
	if len(proposals) == 0 {
		return m.notify(notify.LevelInfo, "no untagged top-level declarations")
	}

	cmds := make([]session.Command, 0, len(proposals))
	for _, p := range proposals {
		cmds = append(cmds, session.CreateSection{Selection: session.LineSelection(p.StartLine, p.EndLine), Kind: p.Kind})
	}
	m.modal = newConfirmModal("Apply suggestions", fmt.Sprintf("Tag %d suggested sections?", len(proposals)), func() tea.Cmd {
		return m.start(cmds...)
	})
	return nil
}

func (m *Model) handleOutputKey(msg tea.KeyMsg) tea.Cmd {
	page := max(m.height-6, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.output.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.output.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.output.move(-page)
	case key.Matches(msg, m.keys.PageDown):
		m.output.move(page)
	case key.Matches(msg, m.keys.Top):
		m.output.top()
	case key.Matches(msg, m.keys.Bottom):
		m.output.bottom()
	}
	return nil
}
