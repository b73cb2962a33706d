// Package bench wires the workspace session to its collaborators: the
// remote store, the snapshot file, the export sinks and the event bus.
// Commands and the TUI consume App instead of cherry-picking dependencies.
package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/config"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/logging"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/core/splitter"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
	"github.com/hay-kot/asmbench/internal/data/remote"
	"github.com/hay-kot/asmbench/internal/export"
)

const busBuffer = 64

// App is the central entry point for asmbench operations.
type App struct {
	Config   *config.Config
	Store    *jsonfile.WorkspaceStore
	Exec     session.Executor
	Sinks    export.Multi
	Bus      *eventbus.EventBus
	Splitter *splitter.Splitter

	log        zerolog.Logger
	sess       *session.Session
	background bool
}

// New builds an App talking to the configured server.
func New(cfg *config.Config) (*App, error) {
	client, err := remote.New(cfg.Server, cfg.Cache.Documents)
	if err != nil {
		return nil, fmt.Errorf("create remote client: %w", err)
	}

	sinks, err := export.New(cfg.Export)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(busBuffer)
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
	eventbus.NewNotificationRouter(bus).Register()

	return NewApp(cfg, jsonfile.NewWorkspaceStore(cfg.StateFile()), client, sinks, bus), nil
}

// NewApp constructs an App from explicit dependencies.
func NewApp(
	cfg *config.Config,
	store *jsonfile.WorkspaceStore,
	exec session.Executor,
	sinks export.Multi,
	bus *eventbus.EventBus,
) *App {
	return &App{
		Config:   cfg,
		Store:    store,
		Exec:     exec,
		Sinks:    sinks,
		Bus:      bus,
		Splitter: splitter.New(),
		log:      logging.Component("bench"),
	}
}

// StartBus dispatches events on a background goroutine until ctx ends.
// Without it, events are delivered after each operation.
func (a *App) StartBus(ctx context.Context) {
	a.background = true
	go a.Bus.Start(ctx)
}

// Session returns the workspace session, restoring it from the snapshot
// file on first use.
func (a *App) Session(ctx context.Context) (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	return a.load(ctx)
}

// Reload discards the in-memory session and restores it from disk.
func (a *App) Reload(ctx context.Context) (*session.Session, error) {
	return a.load(ctx)
}

func (a *App) load(ctx context.Context) (*session.Session, error) {
	sess, err := a.Store.Session(ctx, session.WithBus(a.Bus), session.WithInFlight(a.sess))
	if err != nil {
		return nil, err
	}
	a.sess = sess
	folders, files := sess.Tree().Len()
	a.log.Debug().Int("folders", folders).Int("files", files).Str("path", a.Store.Path()).Msg("session loaded")
	return sess, nil
}

// Save writes the session snapshot.
func (a *App) Save(ctx context.Context) error {
	if a.sess == nil {
		return nil
	}
	if err := a.Store.Save(ctx, a.sess.Snapshot()); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

// Run performs cmd against the collaborators and saves the resulting state.
func (a *App) Run(ctx context.Context, cmd session.Command) (session.Response, error) {
	req, err := a.Begin(ctx, cmd)
	if err != nil {
		return session.Response{}, err
	}
	resp, err := a.Exchange(ctx, req)
	return resp, a.Finish(ctx, req, resp, err)
}

// Begin validates cmd and marks its target in flight without contacting
// any collaborator. Every accepted request must be handed to Finish.
func (a *App) Begin(ctx context.Context, cmd session.Command) (session.Request, error) {
	sess, err := a.Session(ctx)
	if err != nil {
		return session.Request{}, err
	}
	req, err := sess.Dispatch(cmd)
	if err != nil {
		a.flush()
		return session.Request{}, err
	}
	return req, nil
}

// Exchange performs req against the executor. It does not touch the
// session and may run on any goroutine.
func (a *App) Exchange(ctx context.Context, req session.Request) (session.Response, error) {
	return a.Exec.Execute(session.RequestContext(ctx, req), req)
}

// Finish applies the outcome of an exchange started with Begin and saves
// the session. A failed exchange only releases the target.
func (a *App) Finish(ctx context.Context, req session.Request, resp session.Response, exchangeErr error) error {
	defer a.flush()

	if exchangeErr != nil {
		a.sess.Fail(req, exchangeErr)
		return exchangeErr
	}
	if err := a.sess.Apply(req, resp); err != nil {
		return err
	}
	if err := a.Save(ctx); err != nil {
		a.log.Error().Err(err).Str("op", string(req.Op)).Msg("snapshot not saved")
		a.Bus.PublishNotificationPublished(eventbus.NotificationPublishedPayload{
			Level:   notify.LevelError,
			Message: err.Error(),
		})
		return err
	}
	return nil
}

// ExternalChange reloads the session when the snapshot file was saved by
// another process. It reports whether a reload happened.
func (a *App) ExternalChange(ctx context.Context) (bool, error) {
	file, err := a.Store.Load(ctx)
	if err != nil {
		return false, err
	}
	if file.Writer == "" || file.Writer == a.Store.Writer() {
		return false, nil
	}
	if _, err := a.load(ctx); err != nil {
		return false, err
	}
	a.log.Debug().Str("writer", file.Writer).Msg("workspace changed on disk")
	return true, nil
}

// Select moves the selection to a folder and, when fileID is set, a file.
func (a *App) Select(ctx context.Context, folderID, fileID int) error {
	sess, err := a.Session(ctx)
	if err != nil {
		return err
	}
	if folderID != 0 {
		if err := sess.SelectFolder(folderID); err != nil {
			return err
		}
	}
	if fileID != 0 {
		if err := sess.SelectFile(fileID); err != nil {
			return err
		}
	}
	return a.Save(ctx)
}

// Compile compiles the selected file. Empty option fields take the
// configured defaults.
func (a *App) Compile(ctx context.Context, opts compiler.Options) (correlate.Result, error) {
	resp, err := a.Run(ctx, session.Compile{Options: opts.Merge(a.Config.Compile)})
	if err != nil {
		return correlate.Result{}, err
	}
	if resp.Compile == nil {
		return correlate.Result{}, errors.New("compile returned no result")
	}
	return *resp.Compile, nil
}

// Export writes the current compiled output to every sink. An empty name
// falls back to the configured name, then the proposed one.
func (a *App) Export(ctx context.Context, name string) ([]export.Receipt, error) {
	art, err := a.Artifact(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.WriteArtifact(ctx, art)
}

// Artifact builds the export artifact from the current compilation without
// writing it anywhere.
func (a *App) Artifact(ctx context.Context, name string) (export.Artifact, error) {
	sess, err := a.Session(ctx)
	if err != nil {
		return export.Artifact{}, err
	}
	if name == "" {
		name = a.Config.Export.Name
	}
	return export.FromCorrelator(sess.Correlator(), name)
}

// WriteArtifact hands art to every sink. It does not touch the session and
// may run on any goroutine.
func (a *App) WriteArtifact(ctx context.Context, art export.Artifact) ([]export.Receipt, error) {
	receipts, err := a.Sinks.WriteAll(ctx, art)
	for _, r := range receipts {
		a.log.Info().
			Str("sink", r.Sink).
			Str("location", r.Location).
			Int("bytes", r.Bytes).
			Bool("unchanged", r.Unchanged).
			Msg("artifact exported")
	}
	return receipts, err
}

// Suggest proposes sections for the open document of fileID, or the
// selected file when fileID is 0. Proposals overlapping an existing
// section are left out.
func (a *App) Suggest(ctx context.Context, fileID int) ([]section.Section, error) {
	sess, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	if fileID == 0 {
		fileID = sess.Tree().SelectedFile()
	}
	if fileID == 0 {
		return nil, errs.Validationf("no file selected")
	}

	doc, ok := sess.Sections().Document(fileID)
	if !ok {
		if _, err := a.Run(ctx, session.OpenFile{FileID: fileID}); err != nil {
			return nil, err
		}
		doc, _ = sess.Sections().Document(fileID)
	}

	proposals, err := a.Splitter.Split(ctx, []byte(doc.Text()))
	if err != nil {
		return nil, err
	}

	existing := sess.Sections().List(fileID)
	out := make([]section.Section, 0, len(proposals))
	for _, p := range proposals {
		p.FileID = fileID
		if overlapsAny(p, existing) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ApplySuggestions creates each proposal on the selected file. Proposals
// for another file are rejected; a zero FileID means the selected file. It
// keeps going past failures and returns what was created with the joined
// errors.
func (a *App) ApplySuggestions(ctx context.Context, proposals []section.Section) ([]section.Section, error) {
	sess, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	selected := sess.Tree().SelectedFile()

	var (
		created []section.Section
		errList []error
	)
	for _, p := range proposals {
		if p.FileID != 0 && p.FileID != selected {
			errList = append(errList, fmt.Errorf("section %s: %w", p,
				errs.Validationf("proposal is for file %d, selected file is %d", p.FileID, selected)))
			continue
		}
		p.FileID = selected
		_, err := a.Run(ctx, session.CreateSection{
			Selection: session.LineSelection(p.StartLine, p.EndLine),
			Kind:      p.Kind,
		})
		if err != nil {
			errList = append(errList, fmt.Errorf("section %s: %w", p, err))
			continue
		}
		created = append(created, p)
	}
	return created, errors.Join(errList...)
}

// Notifications subscribes fn to user-facing notifications.
func (a *App) Notifications(fn func(eventbus.NotificationPublishedPayload)) {
	a.Bus.SubscribeNotificationPublished(fn)
}

// flush delivers pending events when no background dispatcher runs.
func (a *App) flush() {
	if a.background {
		return
	}
	a.Bus.Drain()
}

func overlapsAny(s section.Section, others []section.Section) bool {
	for _, o := range others {
		if s.Span().Overlaps(o.Span()) {
			return true
		}
	}
	return false
}
