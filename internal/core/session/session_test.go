package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/eventbus/testbus"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "req-" + strconv.Itoa(n)
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	return New(WithLogger(zerolog.Nop()), WithIDs(sequentialIDs()))
}

// seeded returns a session with folder 1 (root) holding folder 2 and file 7,
// file 7 open with ten lines.
func seeded(t *testing.T) *Session {
	t.Helper()
	s := newSession(t)
	_, err := s.tree.AddFolder(workspace.Folder{ID: 1, Name: "src"})
	require.NoError(t, err)
	_, err = s.tree.AddFolder(workspace.Folder{ID: 2, Name: "lib", ParentID: 1})
	require.NoError(t, err)
	_, err = s.tree.AddFile(workspace.File{ID: 7, Name: "main.c", FolderID: 1})
	require.NoError(t, err)

	doc := section.Document{FileID: 7, Name: "main.c"}
	for i := range 10 {
		doc.Lines = append(doc.Lines, fmt.Sprintf("line %d", i+1))
	}
	require.NoError(t, s.index.Load(doc, nil))
	return s
}

func fileIDs(s *Session, folder int) []int {
	var ids []int
	for _, f := range s.Tree().Files(folder) {
		ids = append(ids, f.ID)
	}
	return ids
}

func stateJSON(t *testing.T, s *Session) string {
	t.Helper()
	b, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	return string(b)
}

func validOptions() compiler.Options {
	return compiler.Options{Standard: "c99", Processor: "mcs51"}
}

func TestDispatch_NoSelectionLeavesStateUnchanged(t *testing.T) {
	commands := []Command{
		AddFolder{Name: "child"},
		DeleteFolder{},
		AddFile{Name: "a.c"},
		DeleteFile{},
		OpenFile{},
		SplitFile{},
		CreateSection{Selection: LineSelection(1, 2), Kind: section.KindComment},
		DeleteSection{Start: 1, End: 2},
		Compile{Options: validOptions()},
	}

	for _, cmd := range commands {
		t.Run(string(cmd.Op()), func(t *testing.T) {
			s := seeded(t)
			before := stateJSON(t, s)

			_, err := s.Dispatch(cmd)
			require.ErrorIs(t, err, errs.ErrValidation)

			assert.Equal(t, before, stateJSON(t, s))
			assert.Empty(t, s.inflight)
		})
	}
}

func TestDispatch_AddFolderRootNeedsNoSelection(t *testing.T) {
	s := newSession(t)

	req, err := s.Dispatch(AddFolder{Name: " src ", Root: true})
	require.NoError(t, err)

	assert.Equal(t, "/folder/0/add-folder", req.Path)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "src", req.Form.Get(FieldName))
	assert.Equal(t, "req-1", req.ID)
}

func TestDispatch_Paths(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFolder(2))
	require.NoError(t, s.SelectFile(7))
	_, err := s.index.Create(7, 4, 6, section.KindProcedure)
	require.NoError(t, err)

	tests := []struct {
		cmd    Command
		method string
		path   string
	}{
		{AddFolder{Name: "x"}, http.MethodPost, "/folder/2/add-folder"},
		{AddFile{Name: "b.c"}, http.MethodPost, "/folder/2/add-file"},
		{DeleteFile{}, http.MethodPost, "/file/7/delete"},
		{SplitFile{}, http.MethodGet, "/file/7/parse"},
		{CreateSection{Selection: LineSelection(9, 8), Kind: section.KindVariable}, http.MethodGet, "/file/7/create-section/8/9/variable"},
		{DeleteSection{Start: 4, End: 6}, http.MethodPost, "/file/7/delete-section/4/6"},
		{Compile{Options: validOptions()}, http.MethodPost, "/compile"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd.Op()), func(t *testing.T) {
			req, err := s.Dispatch(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			s.Fail(req, errors.New("not sent"))
		})
	}
}

func TestDispatch_CreateSectionValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  CreateSection
		want error
	}{
		{"anchor without line id", CreateSection{Selection: Selection{Anchor: "", Focus: section.LineID(2)}, Kind: section.KindComment}, errs.ErrValidation},
		{"focus outside source", CreateSection{Selection: Selection{Anchor: section.LineID(1), Focus: "compiled_code"}, Kind: section.KindComment}, errs.ErrValidation},
		{"past end of document", CreateSection{Selection: LineSelection(9, 11), Kind: section.KindComment}, errs.ErrValidation},
		{"overlaps existing", CreateSection{Selection: LineSelection(3, 4), Kind: section.KindComment}, errs.ErrValidation},
		{"unknown kind", CreateSection{Selection: LineSelection(8, 8), Kind: "macro"}, errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)
			require.NoError(t, s.SelectFile(7))
			_, err := s.index.Create(7, 4, 6, section.KindProcedure)
			require.NoError(t, err)
			before := stateJSON(t, s)

			_, err = s.Dispatch(tt.cmd)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, stateJSON(t, s))
		})
	}
}

func TestDispatch_CreateSectionUnopenedFile(t *testing.T) {
	s := seeded(t)
	_, err := s.tree.AddFile(workspace.File{ID: 8, Name: "util.c", FolderID: 1})
	require.NoError(t, err)
	require.NoError(t, s.SelectFile(8))

	_, err = s.Dispatch(CreateSection{Selection: LineSelection(1, 1), Kind: section.KindComment})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDispatch_CompileMessages(t *testing.T) {
	tests := []struct {
		opts compiler.Options
		msg  string
	}{
		{compiler.Options{}, compiler.MsgMissingBoth},
		{compiler.Options{Processor: "z80"}, compiler.MsgMissingStandard},
		{compiler.Options{Standard: "c99"}, compiler.MsgMissingProcessor},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			s := seeded(t)
			require.NoError(t, s.SelectFile(7))

			_, err := s.Dispatch(Compile{Options: tt.opts})
			require.ErrorIs(t, err, errs.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
			assert.False(t, s.InFlight(Target{Kind: TargetCompile, ID: 7}))
		})
	}
}

func TestDispatch_BusyPerTarget(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))

	first, err := s.Dispatch(Compile{Options: validOptions()})
	require.NoError(t, err)

	_, err = s.Dispatch(Compile{Options: validOptions()})
	require.ErrorIs(t, err, errs.ErrBusy)

	// other targets are independent
	split, err := s.Dispatch(SplitFile{})
	require.NoError(t, err)
	s.Fail(split, errors.New("down"))

	s.Fail(first, errors.New("timeout"))
	_, err = s.Dispatch(Compile{Options: validOptions()})
	require.NoError(t, err)
}

func TestApply_AddFolderAndFile(t *testing.T) {
	s := newSession(t)

	req, err := s.Dispatch(AddFolder{Name: "src", Root: true})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{Folder: &workspace.Folder{ID: 3, Name: "src"}}))
	require.NoError(t, s.SelectFolder(3))

	req, err = s.Dispatch(AddFile{Name: "main.c", Content: []byte("void main(void) {}\n")})
	require.NoError(t, err)
	assert.Equal(t, "main.c", req.Upload.Name)
	require.NoError(t, s.Apply(req, Response{File: &workspace.File{ID: 9, Name: "main.c", FolderID: 3}}))

	assert.Equal(t, []int{9}, fileIDs(s, 3))
	assert.False(t, s.InFlight(req.Target))
}

func TestApply_DeleteFileDiscardsEverything(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.corr.Ingest(correlate.Result{
		FileID:   7,
		Status:   correlate.StatusClean,
		Document: correlate.Document{Lines: []correlate.Line{{Text: "nop"}}},
	}))
	require.NoError(t, s.SelectFile(7))

	req, err := s.Dispatch(DeleteFile{})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{DeletedID: 7}))

	assert.Empty(t, s.Tree().Files(1))
	assert.False(t, s.Sections().IsOpen(7))
	assert.False(t, s.Correlator().HasResult())
	assert.Zero(t, s.Tree().SelectedFile())
}

func TestApply_DeleteFolderCascades(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFolder(1))

	req, err := s.Dispatch(DeleteFolder{})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{DeletedID: 1}))

	folders, files := s.Tree().Len()
	assert.Zero(t, folders)
	assert.Zero(t, files)
	assert.False(t, s.Sections().IsOpen(7))
}

func TestApply_MismatchedDeleteLeavesState(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))
	before := stateJSON(t, s)

	req, err := s.Dispatch(DeleteFile{})
	require.NoError(t, err)
	require.ErrorIs(t, s.Apply(req, Response{DeletedID: 99}), errs.ErrValidation)

	assert.Equal(t, before, stateJSON(t, s))
	assert.False(t, s.InFlight(req.Target))
}

func TestApply_OpenFileKeepsOutermostSections(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))

	req, err := s.Dispatch(OpenFile{})
	require.NoError(t, err)

	doc := section.NewDocument(7, "main.c", "a\nb\nc\nd\ne\n")
	require.NoError(t, s.Apply(req, Response{
		Document: &doc,
		Sections: []section.Section{
			{StartLine: 1, EndLine: 4, Kind: section.KindProcedure},
			{StartLine: 2, EndLine: 3, Kind: section.KindVariable},
			{StartLine: 5, EndLine: 5, Kind: section.KindComment},
		},
	}))

	list := s.Sections().List(7)
	require.Len(t, list, 2)
	assert.Equal(t, section.KindProcedure, list[0].Kind)
	assert.Equal(t, 5, list[1].StartLine)
}

func TestApply_CreateAndDeleteSectionLocally(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))
	before := s.Sections().List(7)

	req, err := s.Dispatch(CreateSection{Selection: LineSelection(2, 5), Kind: section.KindDirective})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{}))

	got, err := s.Sections().Get(7, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, section.KindDirective, got.Kind)

	req, err = s.Dispatch(DeleteSection{Start: 2, End: 5})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{}))

	assert.Equal(t, before, s.Sections().List(7))
}

func TestApply_CreateSectionRenderMustConfirm(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))
	before := stateJSON(t, s)

	req, err := s.Dispatch(CreateSection{Selection: LineSelection(2, 5), Kind: section.KindDirective})
	require.NoError(t, err)

	doc, _ := s.Sections().Document(7)
	err = s.Apply(req, Response{Document: &doc})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, before, stateJSON(t, s))
}

func TestApply_DeleteSectionRenderMustDrop(t *testing.T) {
	bus := testbus.New(t)
	s := seeded(t)
	s.bus = bus.EventBus
	require.NoError(t, s.SelectFile(7))

	req, err := s.Dispatch(CreateSection{Selection: LineSelection(2, 5), Kind: section.KindDirective})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{}))
	before := stateJSON(t, s)

	req, err = s.Dispatch(DeleteSection{Start: 2, End: 5})
	require.NoError(t, err)

	doc, _ := s.Sections().Document(7)
	kept := []section.Section{{FileID: 7, StartLine: 2, EndLine: 5, Kind: section.KindDirective}}
	err = s.Apply(req, Response{Document: &doc, Sections: kept})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, before, stateJSON(t, s))
	bus.AssertNotPublished(t, eventbus.EventSectionDeleted, 20*time.Millisecond)

	req, err = s.Dispatch(DeleteSection{Start: 2, End: 5})
	require.NoError(t, err, "target released")
	require.NoError(t, s.Apply(req, Response{Document: &doc}))
	_, err = s.Sections().Get(7, 2, 5)
	require.ErrorIs(t, err, errs.ErrNotFound)
	bus.AssertPublished(t, eventbus.EventSectionDeleted)
}

func TestWithInFlight(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))
	req, err := s.Dispatch(OpenFile{})
	require.NoError(t, err)

	next, err := Restore(s.Snapshot(), WithLogger(zerolog.Nop()), WithIDs(sequentialIDs()), WithInFlight(s))
	require.NoError(t, err)
	assert.True(t, next.InFlight(req.Target))

	_, err = next.Dispatch(OpenFile{})
	require.ErrorIs(t, err, errs.ErrBusy)

	next.Fail(req, errors.New("timeout"))
	assert.False(t, next.InFlight(req.Target))
	assert.True(t, s.InFlight(req.Target), "the old session keeps its own marks")
}

func TestApply_CompileIngests(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))

	req, err := s.Dispatch(Compile{Options: validOptions()})
	require.NoError(t, err)
	assert.Equal(t, "7", req.Form.Get(compiler.FieldFileID))

	require.NoError(t, s.Apply(req, Response{Compile: &correlate.Result{
		Status:   correlate.StatusClean,
		Document: correlate.Document{Lines: []correlate.Line{{Text: "; source.c:1", SourceLine: 1}, {Text: "nop"}}},
		Markers:  []correlate.Marker{{SourceLine: 1, Line: 0}},
	}}))

	assert.Equal(t, 7, s.Correlator().FileID())
	f, ok := s.Correlator().Link(1)
	require.True(t, ok)
	assert.Equal(t, 1, f.End)
}

func TestRun(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFolder(2))

	var seen Request
	exec := ExecutorFunc(func(_ context.Context, req Request) (Response, error) {
		seen = req
		return Response{File: &workspace.File{ID: 11, Name: "isr.c", FolderID: req.FolderID}}, nil
	})

	resp, err := s.Run(context.Background(), exec, AddFile{Name: "isr.c"})
	require.NoError(t, err)
	assert.Equal(t, 11, resp.File.ID)
	assert.Equal(t, "/folder/2/add-file", seen.Path)
	assert.Equal(t, []int{11}, fileIDs(s, 2))
}

func TestRun_ExchangeFailureLeavesState(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFolder(2))
	before := stateJSON(t, s)

	exec := ExecutorFunc(func(context.Context, Request) (Response, error) {
		return Response{}, errors.New("502 bad gateway")
	})

	_, err := s.Run(context.Background(), exec, AddFile{Name: "isr.c"})
	require.Error(t, err)
	assert.False(t, errs.IsLocal(err))
	assert.Equal(t, before, stateJSON(t, s))
	assert.Empty(t, s.inflight)
}

func TestSnapshotRestore(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectFile(7))
	_, err := s.index.Create(7, 1, 3, section.KindComment)
	require.NoError(t, err)

	restored, err := Restore(s.Snapshot(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	assert.Equal(t, stateJSON(t, s), stateJSON(t, restored))
	assert.Equal(t, 7, restored.Tree().SelectedFile())
}

func TestOutermost(t *testing.T) {
	kept, dropped := Outermost([]section.Section{
		{StartLine: 5, EndLine: 9},
		{StartLine: 1, EndLine: 2},
		{StartLine: 5, EndLine: 6},
		{StartLine: 8, EndLine: 12},
		{StartLine: 13, EndLine: 13},
	})

	assert.Equal(t, 2, dropped)
	assert.Equal(t, []section.Section{
		{StartLine: 1, EndLine: 2},
		{StartLine: 5, EndLine: 9},
		{StartLine: 13, EndLine: 13},
	}, kept)
}

func TestDependentOptions(t *testing.T) {
	assert.Equal(t, []string{"model-medium", "model-large"}, DependentOptions("stm8"))
	assert.Empty(t, DependentOptions("avr"))
}

func TestEvents(t *testing.T) {
	bus := testbus.New(t)
	s := New(WithLogger(zerolog.Nop()), WithIDs(sequentialIDs()), WithBus(bus.EventBus))

	req, err := s.Dispatch(AddFolder{Name: "src", Root: true})
	require.NoError(t, err)
	require.NoError(t, s.Apply(req, Response{Folder: &workspace.Folder{ID: 1, Name: "src"}}))
	bus.AssertPublished(t, eventbus.EventFolderAdded)

	_, err = s.Dispatch(DeleteFile{})
	require.ErrorIs(t, err, errs.ErrValidation)
	bus.AssertPublished(t, eventbus.EventRequestFailed)
	bus.AssertNotPublished(t, eventbus.EventFileDeleted, 20*time.Millisecond)
}
