package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/core/workspace"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
	"github.com/hay-kot/asmbench/internal/export"
	"github.com/hay-kot/asmbench/pkg/tuitest"
)

const blink = `#include <8051.h>

int counter;

void main(void) {
  counter++;
}
`

// fakeServer plays the workspace store and compile service in memory.
type fakeServer struct {
	mu       sync.Mutex
	nextID   int
	docs     map[int]string
	sections map[int][]section.Section
}

func newFakeServer() *fakeServer {
	return &fakeServer{docs: map[int]string{}, sections: map[int][]section.Section{}}
}

func (f *fakeServer) Execute(_ context.Context, req session.Request) (session.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch req.Op {
	case session.OpAddFolder:
		f.nextID++
		return session.Response{Folder: &workspace.Folder{ID: f.nextID, Name: req.Form.Get(session.FieldName), ParentID: req.FolderID}}, nil
	case session.OpAddFile:
		f.nextID++
		f.docs[f.nextID] = string(req.Upload.Content)
		return session.Response{File: &workspace.File{ID: f.nextID, Name: req.Upload.Name, FolderID: req.FolderID}}, nil
	case session.OpDeleteFile:
		delete(f.docs, req.FileID)
		return session.Response{DeletedID: req.FileID}, nil
	case session.OpOpenFile:
		return f.page(req.FileID), nil
	case session.OpCreateSection:
		f.sections[req.FileID] = append(f.sections[req.FileID], section.Section{
			FileID: req.FileID, StartLine: req.Span.Start, EndLine: req.Span.End, Kind: req.Kind,
		})
		return f.page(req.FileID), nil
	case session.OpCompile:
		res := correlate.Result{
			Status:       correlate.StatusClean,
			ArtifactName: "main.asm",
			Document: correlate.Document{
				Lines: []correlate.Line{
					{Text: ";--- _main", Role: correlate.RoleHeader, Block: 1},
					{Text: ";\tmain.c:6: counter++;", Role: correlate.RoleBody, Block: 1, SourceLine: 6},
					{Text: "\tinc\t_counter", Role: correlate.RoleBody, Block: 1},
					{Text: "\tret", Role: correlate.RoleBody, Block: 1},
				},
				Blocks: []correlate.Block{{ID: 1, Title: "_main"}},
			},
			Markers: []correlate.Marker{{SourceLine: 6, Line: 1}},
		}
		return session.Response{Compile: &res}, nil
	}
	return session.Response{}, errors.New("unexpected " + string(req.Op))
}

func (f *fakeServer) page(fileID int) session.Response {
	doc := section.NewDocument(fileID, "", f.docs[fileID])
	return session.Response{Document: &doc, Sections: append([]section.Section(nil), f.sections[fileID]...)}
}

func newTestApp(t *testing.T, exec session.Executor, dir string) *bench.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Export.Dir = filepath.Join(dir, "out")
	cfg.Compile = compiler.Options{Standard: "c99", Processor: "mcs51"}
	cfg.Keybindings = map[string]config.Keybinding{
		"enter": {Action: config.ActionToggleHighlight},
		"space": {Action: config.ActionToggleBlock},
		"[":     {Action: config.ActionCollapseAll},
		"]":     {Action: config.ActionExpandAll},
		"c":     {Action: config.ActionCompile},
		"e":     {Action: config.ActionExport, Confirm: "Export?"},
		"g":     {Action: config.ActionJumpSource},
	}

	app := bench.NewApp(&cfg, jsonfile.NewWorkspaceStore(cfg.StateFile()), exec,
		export.Multi{export.NewLocalWriter(cfg.Export.Dir)}, eventbus.New(64))
	eventbus.NewNotificationRouter(app.Bus).Register()
	return app
}

func newTestModel(t *testing.T) (*Model, string) {
	t.Helper()
	dir := t.TempDir()
	m := New(context.Background(), Deps{App: newTestApp(t, newFakeServer(), dir)}, Opts{})
	require.NoError(t, m.loadErr)
	m.Update(tuitest.WindowSize(160, 40))
	return m, dir
}

// press sends each key and runs the commands it produces to completion.
func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := m.Update(tuitest.Key(k))
		drain(m, cmd)
	}
}

// drain runs cmd and feeds its messages back into m. Commands that block,
// such as timers and listeners, are abandoned.
func drain(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case nil, toastTickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func runCmd(c tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- c() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func toastMessages(m *Model) []string {
	var out []string
	for _, t := range m.toasts.Toasts() {
		out = append(out, t.notification.Message)
	}
	return out
}

// seedWorkspace adds root folder "src" and uploads main.c through the keys.
func seedWorkspace(t *testing.T, m *Model, dir string) int {
	t.Helper()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.c"), []byte(blink), 0o644))

	press(t, m, "A", "src", "enter")
	press(t, m, "u", filepath.Join(srcDir, "*.c"), "enter")

	fileID := m.sess.Tree().SelectedFile()
	require.NotZero(t, fileID)
	return fileID
}

func TestModel_AddFolderAndUpload(t *testing.T) {
	m, dir := newTestModel(t)
	fileID := seedWorkspace(t, m, dir)

	folders, files := m.sess.Tree().Len()
	assert.Equal(t, 1, folders)
	assert.Equal(t, 1, files)

	e, ok := m.tree.current()
	require.True(t, ok)
	assert.True(t, e.IsFile, "cursor follows the upload")
	assert.Equal(t, fileID, e.File.ID)

	assert.True(t, m.sess.Sections().IsOpen(fileID), "upload opens the file")
	assert.Equal(t, fileID, m.source.fileID)
	assert.Equal(t, 7, m.source.lines)
	assert.Equal(t, 1, m.source.cursor)
	assert.Zero(t, m.pending)
}

func TestModel_UploadWithoutMatchesWarns(t *testing.T) {
	m, dir := newTestModel(t)
	press(t, m, "A", "src", "enter")

	press(t, m, "u", filepath.Join(dir, "*.nothing"), "enter")

	_, files := m.sess.Tree().Len()
	assert.Zero(t, files)
	require.NotEmpty(t, m.toasts.Toasts())
	assert.Contains(t, toastMessages(m)[0], "no files match")
}

func TestModel_TagSection(t *testing.T) {
	m, dir := newTestModel(t)
	fileID := seedWorkspace(t, m, dir)

	press(t, m, "tab")
	require.Equal(t, paneSource, m.focus)

	press(t, m, "down", "down", "down", "down", "v", "down", "down")
	assert.Equal(t, section.Span{Start: 5, End: 7}, m.source.span())

	press(t, m, "s")
	require.NotNil(t, m.modal)
	press(t, m, "3")
	assert.Nil(t, m.modal)

	sec, err := m.sess.Sections().Get(fileID, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, section.KindProcedure, sec.Kind)
	assert.Zero(t, m.source.anchor, "mark cleared after tagging")
}

func TestModel_CompileHighlightFoldJump(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)

	press(t, m, "c")
	corr := m.sess.Correlator()
	require.True(t, corr.HasResult())
	assert.Equal(t, []int{0, 1, 2, 3}, m.output.rows)

	press(t, m, "tab")
	m.source.jump(6)
	press(t, m, "enter")
	assert.True(t, corr.IsHighlighted(6))
	line, ok := m.output.currentLine()
	require.True(t, ok)
	assert.Equal(t, 1, line, "output focuses the fragment")

	press(t, m, "tab")
	require.Equal(t, paneOutput, m.focus)
	m.source.jump(1)
	press(t, m, "g")
	assert.Equal(t, paneSource, m.focus)
	assert.Equal(t, 6, m.source.cursor)

	press(t, m, "tab", "space")
	assert.False(t, corr.BlockVisible(1))
	assert.Equal(t, []int{0}, m.output.rows)

	press(t, m, "]")
	assert.True(t, corr.BlockVisible(1))
	press(t, m, "[")
	assert.False(t, corr.BlockVisible(1))
}

func TestModel_HighlightNeedsCompile(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)

	press(t, m, "tab", "enter")

	assert.Contains(t, toastMessages(m), "compile this file first")
}

func TestModel_ExportAsksFirst(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)
	press(t, m, "c")

	press(t, m, "e")
	require.NotNil(t, m.modal)
	press(t, m, "n")
	assert.NoFileExists(t, filepath.Join(dir, "out", "main.asm"))

	press(t, m, "e", "y")
	assert.FileExists(t, filepath.Join(dir, "out", "main.asm"))
	assert.Contains(t, strings.Join(toastMessages(m), "\n"), "exported")
}

func TestModel_DeleteFileConfirm(t *testing.T) {
	m, dir := newTestModel(t)
	fileID := seedWorkspace(t, m, dir)

	press(t, m, "x", "n")
	_, ok := m.sess.Tree().File(fileID)
	assert.True(t, ok, "cancelled")

	press(t, m, "x", "y")
	_, ok = m.sess.Tree().File(fileID)
	assert.False(t, ok)
	assert.Zero(t, m.source.fileID)
}

func TestModel_BusyTargetIsNotStarted(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)

	first := m.start(session.Compile{Options: m.app.Config.Compile})
	require.NotNil(t, first)
	assert.Nil(t, m.start(session.Compile{Options: m.app.Config.Compile}))
	assert.Equal(t, 1, m.pending)

	drain(m, first)
	assert.Zero(t, m.pending)
	assert.True(t, m.sess.Correlator().HasResult())
}

func TestModel_ExternalChangeWaitsForPending(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)

	inflight := m.start(session.OpenFile{})
	require.NotNil(t, inflight)

	srv := newFakeServer()
	srv.nextID = 100
	other := newTestApp(t, srv, dir)
	_, err := other.Run(context.Background(), session.AddFolder{Name: "lib", Root: true})
	require.NoError(t, err)

	m.Update(workspaceChangedMsg{})
	assert.True(t, m.stale)
	folders, _ := m.sess.Tree().Len()
	assert.Equal(t, 1, folders, "not reloaded while a request is out")

	drain(m, inflight)
	assert.False(t, m.stale)
	folders, _ = m.sess.Tree().Len()
	assert.Equal(t, 2, folders)
	assert.True(t, m.sess.Sections().IsOpen(m.source.fileID), "response applied over the reload")

	reopened := newTestApp(t, newFakeServer(), dir)
	sess, err := reopened.Session(context.Background())
	require.NoError(t, err)
	folders, _ = sess.Tree().Len()
	assert.Equal(t, 2, folders, "save kept the external folder")
}

func TestModel_NotificationBecomesToast(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(notificationMsg(notify.Notification{Level: notify.LevelWarning, Message: "heads up"}))

	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"heads up"}, toastMessages(m))
	assert.True(t, m.toasts.Ticking())
}

func TestModel_View(t *testing.T) {
	m, dir := newTestModel(t)
	seedWorkspace(t, m, dir)
	press(t, m, "c")

	out := tuitest.TrimLines(m.View())

	assert.Contains(t, out, "Workspace")
	assert.Contains(t, out, "src/main.c")
	assert.Contains(t, out, "main.asm")
	assert.Contains(t, out, string(correlate.StatusClean))

	press(t, m, "x")
	assert.Contains(t, m.View(), "Delete main.c?")
}
