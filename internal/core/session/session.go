package session

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/logging"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// Form field names used by the workspace store.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldSourceFile  = "source_code_file"
)

// Session is the single active workspace: the tree with its selection, the
// sections of open files and the current compilation result.
//
// Session is not safe for concurrent use. Exchanges may run elsewhere, but
// Dispatch, Apply and Fail must be called from one goroutine.
type Session struct {
	tree     *workspace.Tree
	index    *section.Index
	corr     *correlate.Correlator
	inflight map[Target]string
	bus      *eventbus.EventBus
	log      zerolog.Logger
	newID    func() string
}

// Option configures a Session.
type Option func(*Session)

// WithBus publishes state changes to bus.
func WithBus(bus *eventbus.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithIDs replaces the request id generator.
func WithIDs(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithInFlight carries the outstanding requests of prev into the new
// session, so replacing a session under running exchanges keeps their
// targets busy until they finish.
func WithInFlight(prev *Session) Option {
	return func(s *Session) {
		if prev == nil {
			return
		}
		for t, id := range prev.inflight {
			s.inflight[t] = id
		}
	}
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		tree:     workspace.NewTree(),
		index:    section.NewIndex(),
		corr:     correlate.New(),
		inflight: make(map[Target]string),
		log:      logging.Component("session"),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree returns the workspace tree.
func (s *Session) Tree() *workspace.Tree { return s.tree }

// Sections returns the section index of open files.
func (s *Session) Sections() *section.Index { return s.index }

// Correlator returns the current compilation correlation.
func (s *Session) Correlator() *correlate.Correlator { return s.corr }

// SelectFolder moves the folder selection.
func (s *Session) SelectFolder(id int) error { return s.tree.SelectFolder(id) }

// SelectFile moves the file selection.
func (s *Session) SelectFile(id int) error { return s.tree.SelectFile(id) }

// InFlight reports whether a request for t is outstanding.
func (s *Session) InFlight(t Target) bool {
	_, ok := s.inflight[t]
	return ok
}

// Dispatch validates cmd against the current state and resolves it to a
// request. A rejected command leaves the session untouched; an accepted one
// only marks its target as in flight until Apply or Fail.
func (s *Session) Dispatch(cmd Command) (Request, error) {
	req, err := s.resolve(cmd)
	if err != nil {
		s.log.Info().Str("op", string(cmd.Op())).Err(err).Msg("command rejected")
		s.publishFailed(cmd.Op(), err)
		return Request{}, err
	}
	if id, busy := s.inflight[req.Target]; busy {
		err := fmt.Errorf("%s on %s %d waits for request %s: %w", req.Op, req.Target.Kind, req.Target.ID, id, errs.ErrBusy)
		s.log.Info().Str("op", string(req.Op)).Err(err).Msg("command rejected")
		s.publishFailed(req.Op, err)
		return Request{}, err
	}

	req.ID = s.newID()
	s.inflight[req.Target] = req.ID
	s.log.Debug().
		Str("op", string(req.Op)).
		Str("request_id", req.ID).
		Str("method", req.Method).
		Str("path", req.Path).
		Msg("request dispatched")
	return req, nil
}

func (s *Session) resolve(cmd Command) (Request, error) {
	switch c := cmd.(type) {
	case AddFolder:
		return s.resolveAddFolder(c)
	case DeleteFolder:
		id, err := s.selectedFolder()
		if err != nil {
			return Request{}, err
		}
		return Request{
			Op:       OpDeleteFolder,
			Target:   Target{Kind: TargetFolder, ID: id},
			Method:   http.MethodPost,
			Path:     fmt.Sprintf("/folder/%d/delete", id),
			FolderID: id,
		}, nil
	case AddFile:
		return s.resolveAddFile(c)
	case DeleteFile:
		id, err := s.selectedFile()
		if err != nil {
			return Request{}, err
		}
		return Request{
			Op:     OpDeleteFile,
			Target: Target{Kind: TargetFile, ID: id},
			Method: http.MethodPost,
			Path:   fmt.Sprintf("/file/%d/delete", id),
			FileID: id,
		}, nil
	case OpenFile:
		id := c.FileID
		if id == 0 {
			var err error
			if id, err = s.selectedFile(); err != nil {
				return Request{}, err
			}
		} else if _, ok := s.tree.File(id); !ok {
			return Request{}, errs.NotFoundf("file %d", id)
		}
		return Request{
			Op:       OpOpenFile,
			Target:   Target{Kind: TargetFile, ID: id},
			Method:   http.MethodGet,
			Path:     fmt.Sprintf("/file/%d", id),
			FileID:   id,
			FileName: s.fileName(id),
		}, nil
	case SplitFile:
		id, err := s.selectedFile()
		if err != nil {
			return Request{}, err
		}
		return Request{
			Op:     OpSplitFile,
			Target: Target{Kind: TargetSection, ID: id},
			Method: http.MethodGet,
			Path:   fmt.Sprintf("/file/%d/parse", id),
			FileID: id,
		}, nil
	case CreateSection:
		return s.resolveCreateSection(c)
	case DeleteSection:
		id, err := s.selectedFile()
		if err != nil {
			return Request{}, err
		}
		if _, err := s.index.Get(id, c.Start, c.End); err != nil {
			return Request{}, err
		}
		return Request{
			Op:     OpDeleteSection,
			Target: Target{Kind: TargetSection, ID: id},
			Method: http.MethodPost,
			Path:   fmt.Sprintf("/file/%d/delete-section/%d/%d", id, c.Start, c.End),
			FileID: id,
			Span:   section.Span{Start: c.Start, End: c.End},
		}, nil
	case Compile:
		id, err := s.selectedFile()
		if err != nil {
			return Request{}, err
		}
		if err := c.Options.Validate(); err != nil {
			return Request{}, err
		}
		return Request{
			Op:       OpCompile,
			Target:   Target{Kind: TargetCompile, ID: id},
			Method:   http.MethodPost,
			Path:     "/compile",
			Form:     c.Options.FormValues(id),
			FileID:   id,
			FileName: s.fileName(id),
			Options:  c.Options,
		}, nil
	default:
		return Request{}, errs.Validationf("unsupported command %T", cmd)
	}
}

func (s *Session) resolveAddFolder(c AddFolder) (Request, error) {
	parent := workspace.RootID
	if !c.Root {
		var err error
		if parent, err = s.selectedFolder(); err != nil {
			return Request{}, err
		}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Request{}, errs.Validationf("folder name must not be empty")
	}

	form := url.Values{}
	form.Set(FieldName, name)
	form.Set(FieldDescription, c.Description)
	return Request{
		Op:       OpAddFolder,
		Target:   Target{Kind: TargetFolder, ID: parent},
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/folder/%d/add-folder", parent),
		Form:     form,
		FolderID: parent,
	}, nil
}

func (s *Session) resolveAddFile(c AddFile) (Request, error) {
	folder, err := s.selectedFolder()
	if err != nil {
		return Request{}, err
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Request{}, errs.Validationf("file name must not be empty")
	}

	form := url.Values{}
	form.Set(FieldDescription, c.Description)
	return Request{
		Op:       OpAddFile,
		Target:   Target{Kind: TargetFolder, ID: folder},
		Method:   http.MethodPost,
		Path:     fmt.Sprintf("/folder/%d/add-file", folder),
		Form:     form,
		Upload:   &Upload{Field: FieldSourceFile, Name: name, Content: c.Content},
		FolderID: folder,
	}, nil
}

func (s *Session) resolveCreateSection(c CreateSection) (Request, error) {
	id, err := s.selectedFile()
	if err != nil {
		return Request{}, err
	}
	a, err := section.ParseLineID(c.Selection.Anchor)
	if err != nil {
		return Request{}, err
	}
	b, err := section.ParseLineID(c.Selection.Focus)
	if err != nil {
		return Request{}, err
	}
	start, end := min(a, b), max(a, b)
	if !c.Kind.IsValid() {
		return Request{}, errs.Validationf("unknown section kind %q", c.Kind)
	}
	if err := s.index.Check(id, start, end); err != nil {
		return Request{}, err
	}
	return Request{
		Op:     OpCreateSection,
		Target: Target{Kind: TargetSection, ID: id},
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/file/%d/create-section/%d/%d/%s", id, start, end, c.Kind),
		FileID: id,
		Span:   section.Span{Start: start, End: end},
		Kind:   c.Kind,
	}, nil
}

func (s *Session) fileName(id int) string {
	f, _ := s.tree.File(id)
	return f.Name
}

func (s *Session) selectedFolder() (int, error) {
	id := s.tree.SelectedFolder()
	if id == 0 {
		return 0, errs.Validationf("select a folder first")
	}
	return id, nil
}

func (s *Session) selectedFile() (int, error) {
	id := s.tree.SelectedFile()
	if id == 0 {
		return 0, errs.Validationf("select a file first")
	}
	return id, nil
}

// Apply installs the response to an accepted request and releases its
// target. If the response cannot be applied the session is left as it was.
func (s *Session) Apply(req Request, resp Response) error {
	defer s.release(req)

	if err := s.apply(req, resp); err != nil {
		s.log.Warn().Str("op", string(req.Op)).Str("request_id", req.ID).Err(err).Msg("response rejected")
		s.publishFailed(req.Op, err)
		return err
	}
	s.log.Debug().Str("op", string(req.Op)).Str("request_id", req.ID).Msg("response applied")
	return nil
}

func (s *Session) apply(req Request, resp Response) error {
	switch req.Op {
	case OpAddFolder:
		if resp.Folder == nil {
			return errs.Validationf("add-folder response has no folder")
		}
		f, err := s.tree.AddFolder(*resp.Folder)
		if err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) { b.PublishFolderAdded(eventbus.FolderAddedPayload{Folder: f}) })
	case OpDeleteFolder:
		id := req.FolderID
		if resp.DeletedID != 0 && resp.DeletedID != id {
			return errs.Validationf("deleted folder %d does not match requested %d", resp.DeletedID, id)
		}
		removed, err := s.tree.DeleteFolder(id)
		if err != nil {
			return err
		}
		for _, fileID := range removed.Files {
			s.index.Discard(fileID)
			s.corr.Discard(fileID)
		}
		s.publish(func(b *eventbus.EventBus) {
			b.PublishFolderDeleted(eventbus.FolderDeletedPayload{FolderID: id, Removed: removed})
		})
	case OpAddFile:
		if resp.File == nil {
			return errs.Validationf("add-file response has no file")
		}
		f, err := s.tree.AddFile(*resp.File)
		if err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) { b.PublishFileAdded(eventbus.FileAddedPayload{File: f}) })
	case OpDeleteFile:
		id := req.FileID
		if resp.DeletedID != 0 && resp.DeletedID != id {
			return errs.Validationf("deleted file %d does not match requested %d", resp.DeletedID, id)
		}
		if err := s.tree.DeleteFile(id); err != nil {
			return err
		}
		s.index.Discard(id)
		s.corr.Discard(id)
		s.publish(func(b *eventbus.EventBus) { b.PublishFileDeleted(eventbus.FileDeletedPayload{FileID: id}) })
	case OpOpenFile, OpSplitFile:
		if resp.Document == nil {
			return errs.Validationf("%s response has no document", req.Op)
		}
		if err := s.loadDocument(req.FileID, *resp.Document, resp.Sections); err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) {
			b.PublishFileOpened(eventbus.FileOpenedPayload{
				FileID:   req.FileID,
				Lines:    resp.Document.LineCount(),
				Sections: len(s.index.List(req.FileID)),
			})
		})
	case OpCreateSection:
		if resp.Document != nil {
			if !slices.ContainsFunc(resp.Sections, func(sec section.Section) bool { return sec.Span() == req.Span }) {
				return errs.Validationf("store did not confirm section %d-%d", req.Span.Start, req.Span.End)
			}
			if err := s.loadDocument(req.FileID, *resp.Document, resp.Sections); err != nil {
				return err
			}
		} else if _, err := s.index.Create(req.FileID, req.Span.Start, req.Span.End, req.Kind); err != nil {
			return err
		}
		created, err := s.index.Get(req.FileID, req.Span.Start, req.Span.End)
		if err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) { b.PublishSectionCreated(eventbus.SectionCreatedPayload{Section: created}) })
	case OpDeleteSection:
		deleted, err := s.index.Get(req.FileID, req.Span.Start, req.Span.End)
		if err != nil {
			return err
		}
		if resp.Document != nil {
			if slices.ContainsFunc(resp.Sections, func(sec section.Section) bool { return sec.Span() == req.Span }) {
				return errs.Validationf("store kept section %d-%d", req.Span.Start, req.Span.End)
			}
			if err := s.loadDocument(req.FileID, *resp.Document, resp.Sections); err != nil {
				return err
			}
		} else if err := s.index.Delete(req.FileID, req.Span.Start, req.Span.End); err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) { b.PublishSectionDeleted(eventbus.SectionDeletedPayload{Section: deleted}) })
	case OpCompile:
		if resp.Compile == nil {
			return errs.Validationf("compile response has no result")
		}
		result := *resp.Compile
		result.FileID = req.FileID
		if err := s.corr.Ingest(result); err != nil {
			return err
		}
		s.publish(func(b *eventbus.EventBus) {
			b.PublishCompileFinished(eventbus.CompileFinishedPayload{
				FileID:      result.FileID,
				Status:      result.Status,
				Diagnostics: len(result.Diagnostics),
			})
		})
	default:
		return errs.Validationf("unsupported operation %q", req.Op)
	}
	return nil
}

// loadDocument installs a rendered document. The store may render sections
// nested inside others; only the outermost of any overlapping group is kept.
func (s *Session) loadDocument(fileID int, doc section.Document, sections []section.Section) error {
	doc.FileID = fileID
	if doc.Name == "" {
		doc.Name = s.fileName(fileID)
	}
	kept, dropped := Outermost(sections)
	if dropped > 0 {
		s.log.Warn().Int("file_id", fileID).Int("dropped", dropped).Msg("overlapping sections dropped")
	}
	return s.index.Load(doc, kept)
}

// Outermost keeps, from any set of sections, a non-overlapping subset
// preferring sections that start earlier and span further.
func Outermost(sections []section.Section) ([]section.Section, int) {
	sorted := slices.Clone(sections)
	slices.SortStableFunc(sorted, func(a, b section.Section) int {
		if a.StartLine != b.StartLine {
			return a.StartLine - b.StartLine
		}
		return b.EndLine - a.EndLine
	})

	kept := make([]section.Section, 0, len(sorted))
	for _, sec := range sorted {
		if n := len(kept); n > 0 && kept[n-1].Span().Overlaps(sec.Span()) {
			continue
		}
		kept = append(kept, sec)
	}
	return kept, len(sorted) - len(kept)
}

// Fail releases the target of a request whose exchange failed. State is not
// touched.
func (s *Session) Fail(req Request, err error) {
	s.release(req)
	s.log.Warn().Str("op", string(req.Op)).Str("request_id", req.ID).Err(err).Msg("request failed")
	s.publishFailed(req.Op, err)
}

func (s *Session) release(req Request) {
	if s.inflight[req.Target] == req.ID {
		delete(s.inflight, req.Target)
	}
}

func (s *Session) publish(fn func(*eventbus.EventBus)) {
	if s.bus != nil {
		fn(s.bus)
	}
}

func (s *Session) publishFailed(op Op, err error) {
	s.publish(func(b *eventbus.EventBus) {
		b.PublishRequestFailed(eventbus.RequestFailedPayload{Op: string(op), Err: err})
	})
}

// DependentOptions lists the extra compiler flags offered for a processor.
func DependentOptions(processor string) []string {
	return compiler.DependentOptions(processor)
}
