package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/core/workspace"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
	"github.com/hay-kot/asmbench/internal/export"
)

const blink = `#include <8051.h>

int counter;

void main(void) {
  counter++;
}
`

// fakeRemote plays the workspace store and compile service in memory.
type fakeRemote struct {
	mu       sync.Mutex
	nextID   int
	docs     map[int]string
	sections map[int][]section.Section
	compiled []session.Request
	fail     error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[int]string{}, sections: map[int][]section.Section{}}
}

func (f *fakeRemote) Execute(_ context.Context, req session.Request) (session.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return session.Response{}, f.fail
	}

	switch req.Op {
	case session.OpAddFolder:
		f.nextID++
		return session.Response{Folder: &workspace.Folder{ID: f.nextID, Name: req.Form.Get(session.FieldName), ParentID: req.FolderID}}, nil
	case session.OpAddFile:
		f.nextID++
		f.docs[f.nextID] = string(req.Upload.Content)
		return session.Response{File: &workspace.File{ID: f.nextID, Name: req.Upload.Name, FolderID: req.FolderID}}, nil
	case session.OpOpenFile:
		return f.page(req.FileID), nil
	case session.OpCreateSection:
		f.sections[req.FileID] = append(f.sections[req.FileID], section.Section{
			FileID: req.FileID, StartLine: req.Span.Start, EndLine: req.Span.End, Kind: req.Kind,
		})
		return f.page(req.FileID), nil
	case session.OpCompile:
		f.compiled = append(f.compiled, req)
		res := correlate.Result{
			Status:       correlate.StatusClean,
			ArtifactName: "main.asm",
			Document: correlate.Document{Lines: []correlate.Line{
				{Text: ";\tmain.c:6: counter++;", SourceLine: 6},
				{Text: "\tinc\t_counter"},
				{Text: "\tret"},
			}},
			Markers: []correlate.Marker{{SourceLine: 6, Line: 0}},
		}
		return session.Response{Compile: &res}, nil
	}
	return session.Response{}, errors.New("unexpected " + string(req.Op))
}

func (f *fakeRemote) page(fileID int) session.Response {
	doc := section.NewDocument(fileID, "", f.docs[fileID])
	return session.Response{Document: &doc, Sections: append([]section.Section(nil), f.sections[fileID]...)}
}

func newApp(t *testing.T, exec session.Executor) (*App, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Export.Dir = filepath.Join(dir, "out")
	cfg.Compile = compiler.Options{Standard: "c99", Processor: "mcs51"}

	app := NewApp(&cfg, jsonfile.NewWorkspaceStore(cfg.StateFile()), exec, export.Multi{export.NewLocalWriter(cfg.Export.Dir)}, eventbus.New(64))
	eventbus.NewNotificationRouter(app.Bus).Register()
	return app, dir
}

// seed creates folder "src" with main.c selected.
func seed(t *testing.T, app *App) int {
	t.Helper()
	ctx := context.Background()

	resp, err := app.Run(ctx, session.AddFolder{Name: "src", Root: true})
	require.NoError(t, err)
	require.NoError(t, app.Select(ctx, resp.Folder.ID, 0))

	resp, err = app.Run(ctx, session.AddFile{Name: "main.c", Content: []byte(blink)})
	require.NoError(t, err)
	require.NoError(t, app.Select(ctx, 0, resp.File.ID))
	return resp.File.ID
}

func TestApp_RunPersists(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)

	fileID := seed(t, app)

	reopened := NewApp(app.Config, jsonfile.NewWorkspaceStore(app.Config.StateFile()), remote, app.Sinks, eventbus.New(8))
	sess, err := reopened.Session(ctx)
	require.NoError(t, err)

	f, ok := sess.Tree().File(fileID)
	require.True(t, ok)
	assert.Equal(t, "main.c", f.Name)
	assert.Equal(t, fileID, sess.Tree().SelectedFile())
}

func TestApp_FailedExchangeIsNotSaved(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	before, err := os.ReadFile(app.Store.Path())
	require.NoError(t, err)

	remote.fail = errors.New("connection refused")
	_, err = app.Run(ctx, session.AddFolder{Name: "lib"})
	require.Error(t, err)

	after, err := os.ReadFile(app.Store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApp_CompileUsesDefaults(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	res, err := app.Compile(ctx, compiler.Options{})
	require.NoError(t, err)
	assert.Equal(t, correlate.StatusClean, res.Status)

	require.Len(t, remote.compiled, 1)
	assert.Equal(t, "c99", remote.compiled[0].Options.Standard)
	assert.Equal(t, "mcs51", remote.compiled[0].Options.Processor)
	assert.Equal(t, "main.c", remote.compiled[0].FileName)
}

func TestApp_CompileRejectsUnknownProcessor(t *testing.T) {
	app, _ := newApp(t, newFakeRemote())
	seed(t, app)

	_, err := app.Compile(context.Background(), compiler.Options{Processor: "z80x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestApp_Export(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())
	seed(t, app)

	_, err := app.Export(ctx, "")
	require.ErrorIs(t, err, errs.ErrValidation, "nothing compiled yet")

	_, err = app.Compile(ctx, compiler.Options{})
	require.NoError(t, err)

	receipts, err := app.Export(ctx, "")
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, filepath.Join(app.Config.Export.Dir, "main.asm"), receipts[0].Location)

	data, err := os.ReadFile(receipts[0].Location)
	require.NoError(t, err)
	assert.Equal(t, ";\tmain.c:6: counter++;\n\tinc\t_counter\n\tret\n", string(data))

	app.Config.Export.Name = "custom.asm"
	receipts, err = app.Export(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app.Config.Export.Dir, "custom.asm"), receipts[0].Location)
}

func TestApp_SuggestAndApply(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	fileID := seed(t, app)

	proposals, err := app.Suggest(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []section.Section{
		{FileID: fileID, StartLine: 1, EndLine: 1, Kind: section.KindDirective},
		{FileID: fileID, StartLine: 3, EndLine: 3, Kind: section.KindVariable},
		{FileID: fileID, StartLine: 5, EndLine: 7, Kind: section.KindProcedure},
	}, proposals)

	created, err := app.ApplySuggestions(ctx, proposals[2:])
	require.NoError(t, err)
	assert.Len(t, created, 1)

	sess, err := app.Session(ctx)
	require.NoError(t, err)
	assert.Len(t, sess.Sections().List(fileID), 1)

	again, err := app.Suggest(ctx, fileID)
	require.NoError(t, err)
	assert.Len(t, again, 2, "the procedure is already tagged")
}

func TestApp_SuggestNeedsFile(t *testing.T) {
	app, _ := newApp(t, newFakeRemote())

	_, err := app.Suggest(context.Background(), 0)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestApp_ApplySuggestionsJoinsErrors(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())
	fileID := seed(t, app)
	_, err := app.Run(ctx, session.OpenFile{})
	require.NoError(t, err)

	created, err := app.ApplySuggestions(ctx, []section.Section{
		{FileID: fileID, StartLine: 0, EndLine: 2, Kind: section.KindComment},
		{FileID: fileID, StartLine: 1, EndLine: 1, Kind: section.KindDirective},
	})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Len(t, created, 1)
}

func TestApp_ApplySuggestionsRejectsOtherFile(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())
	mainID := seed(t, app)

	resp, err := app.Run(ctx, session.AddFile{Name: "util.c", Content: []byte(blink)})
	require.NoError(t, err)
	utilID := resp.File.ID
	require.NoError(t, app.Select(ctx, 0, utilID))

	proposals, err := app.Suggest(ctx, mainID)
	require.NoError(t, err)
	require.NotEmpty(t, proposals)

	created, err := app.ApplySuggestions(ctx, proposals)
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, created)

	sess, err := app.Session(ctx)
	require.NoError(t, err)
	assert.Empty(t, sess.Sections().List(mainID))
	assert.Empty(t, sess.Sections().List(utilID))
}

func TestApp_NotificationsDelivered(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())

	var got []eventbus.NotificationPublishedPayload
	app.Notifications(func(p eventbus.NotificationPublishedPayload) { got = append(got, p) })

	_, err := app.Run(ctx, session.DeleteFile{})
	require.Error(t, err)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "select a file first")
}

func TestApp_Reload(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	other := NewApp(app.Config, jsonfile.NewWorkspaceStore(app.Store.Path()), remote, app.Sinks, eventbus.New(8))
	_, err := other.Run(ctx, session.AddFolder{Name: "lib"})
	require.NoError(t, err)

	sess, err := app.Reload(ctx)
	require.NoError(t, err)
	folders, files := sess.Tree().Len()
	assert.Equal(t, 2, folders)
	assert.Equal(t, 1, files)
}

func TestApp_BeginHoldsTargetUntilFinish(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	req, err := app.Begin(ctx, session.OpenFile{})
	require.NoError(t, err)

	_, err = app.Begin(ctx, session.OpenFile{})
	require.ErrorIs(t, err, errs.ErrBusy)

	resp, err := app.Exchange(ctx, req)
	require.NoError(t, err)
	require.NoError(t, app.Finish(ctx, req, resp, nil))

	sess, err := app.Session(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Sections().IsOpen(req.FileID))

	_, err = app.Begin(ctx, session.OpenFile{})
	require.NoError(t, err, "target released")
}

func TestApp_FinishReleasesFailedExchange(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())
	seed(t, app)

	req, err := app.Begin(ctx, session.OpenFile{})
	require.NoError(t, err)

	boom := errors.New("timeout")
	require.ErrorIs(t, app.Finish(ctx, req, session.Response{}, boom), boom)

	_, err = app.Begin(ctx, session.OpenFile{})
	require.NoError(t, err)
}

func TestApp_ExternalChange(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	changed, err := app.ExternalChange(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own save")

	other := NewApp(app.Config, jsonfile.NewWorkspaceStore(app.Store.Path()), remote, app.Sinks, eventbus.New(8))
	_, err = other.Run(ctx, session.AddFolder{Name: "lib"})
	require.NoError(t, err)

	changed, err = app.ExternalChange(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	sess, err := app.Session(ctx)
	require.NoError(t, err)
	folders, _ := sess.Tree().Len()
	assert.Equal(t, 2, folders)
}

func TestApp_ExternalChangeKeepsTargetsBusy(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	app, _ := newApp(t, remote)
	seed(t, app)

	open, err := app.Begin(ctx, session.OpenFile{})
	require.NoError(t, err)
	add, err := app.Begin(ctx, session.AddFolder{Name: "inc"})
	require.NoError(t, err)

	other := NewApp(app.Config, jsonfile.NewWorkspaceStore(app.Store.Path()), remote, app.Sinks, eventbus.New(8))
	_, err = other.Run(ctx, session.AddFolder{Name: "lib"})
	require.NoError(t, err)

	changed, err := app.ExternalChange(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	resp, err := app.Exchange(ctx, open)
	require.NoError(t, err)
	require.NoError(t, app.Finish(ctx, open, resp, nil))

	_, err = app.Begin(ctx, session.AddFolder{Name: "inc"})
	require.ErrorIs(t, err, errs.ErrBusy, "folder request still outstanding")

	resp, err = app.Exchange(ctx, add)
	require.NoError(t, err)
	require.NoError(t, app.Finish(ctx, add, resp, nil))

	sess, err := app.Session(ctx)
	require.NoError(t, err)
	folders, _ := sess.Tree().Len()
	assert.Equal(t, 3, folders, "reloaded folder and the late response")

	_, err = app.Begin(ctx, session.AddFolder{Name: "inc2"})
	require.NoError(t, err, "target released")
}

func TestApp_ArtifactThenWrite(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t, newFakeRemote())
	seed(t, app)

	_, err := app.Compile(ctx, compiler.Options{})
	require.NoError(t, err)

	art, err := app.Artifact(ctx, "out.asm")
	require.NoError(t, err)
	assert.Equal(t, "out.asm", art.Name)

	receipts, err := app.WriteArtifact(ctx, art)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.FileExists(t, receipts[0].Location)
}
