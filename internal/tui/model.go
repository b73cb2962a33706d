// Package tui implements the interactive workbench: the workspace tree, the
// open Source Document and the generated output side by side.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/logging"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
)

const notificationBuffer = 32

type pane int

const (
	paneTree pane = iota
	paneSource
	paneOutput
	paneCount
)

func (p pane) String() string {
	switch p {
	case paneSource:
		return "source"
	case paneOutput:
		return "output"
	default:
		return "tree"
	}
}

// Deps are the collaborators of the workbench.
type Deps struct {
	App     *bench.App
	Changes <-chan jsonfile.Change // optional snapshot file changes
}

// Opts tweak the initial state.
type Opts struct {
	Warnings []string // shown as toasts on start
}

// Model is the workbench. Session mutations only happen in Update; request
// exchanges and export writes run in commands and report back by message.
type Model struct {
	ctx     context.Context
	app     *bench.App
	sess    *session.Session
	changes <-chan jsonfile.Change
	notes   chan notify.Notification
	log     zerolog.Logger
	loadErr error

	keys    KeyMap
	actions *KeybindingHandler
	help    help.Model
	toasts  *ToastController

	focus  pane
	tree   treeView
	source sourceView
	output outputView
	modal  modal

	width    int
	height   int
	pending  int
	stale    bool
	showHelp bool
}

// New builds the workbench around deps.App. A session that fails to load is
// reported in the view.
func New(ctx context.Context, deps Deps, opts Opts) *Model {
	actions := NewKeybindingHandler(deps.App.Config.Keybindings)
	m := &Model{
		ctx:     ctx,
		app:     deps.App,
		changes: deps.Changes,
		notes:   make(chan notify.Notification, notificationBuffer),
		log:     logging.Component("tui"),
		keys:    DefaultKeyMap(actions),
		actions: actions,
		help:    help.New(),
		toasts:  NewToastController(),
		output:  newOutputView(),
	}

	deps.App.Notifications(func(p eventbus.NotificationPublishedPayload) {
		select {
		case m.notes <- notify.Notification{Level: p.Level, Message: p.Message, CreatedAt: time.Now()}:
		default:
		}
	})

	for _, w := range opts.Warnings {
		m.toasts.Push(notify.Notification{Level: notify.LevelWarning, Message: w, CreatedAt: time.Now()})
	}

	sess, err := deps.App.Session(ctx)
	if err != nil {
		m.loadErr = err
		return m
	}
	m.sess = sess
	m.sync()
	return m
}

// Init starts the notification and file watch listeners.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitNotification(m.ctx, m.notes), waitChange(m.ctx, m.changes)}
	if m.toasts.HasToasts() {
		m.toasts.SetTicking(true)
		cmds = append(cmds, scheduleToastTick())
	}
	return tea.Batch(cmds...)
}

// sync rebuilds the view state from the session.
func (m *Model) sync() {
	if m.sess == nil {
		return
	}
	tree := m.sess.Tree()
	m.tree.refresh(tree)

	selected := tree.SelectedFile()
	lines := 0
	if doc, ok := m.sess.Sections().Document(selected); ok {
		lines = doc.LineCount()
	}
	if selected != m.source.fileID {
		m.source.reset(selected, lines)
	} else {
		m.source.resize(lines)
	}

	m.output.refresh(m.sess.Correlator())
}

// start begins the first command the session accepts and chains the rest
// behind it. Rejected commands are reported on the bus.
func (m *Model) start(cmds ...session.Command) tea.Cmd {
	for i, cmd := range cmds {
		req, err := m.app.Begin(m.ctx, cmd)
		if err != nil {
			m.log.Debug().Err(err).Str("op", string(cmd.Op())).Msg("command not started")
			continue
		}
		m.pending++

		ctx, app, rest := m.ctx, m.app, cmds[i+1:]
		return func() tea.Msg {
			resp, err := app.Exchange(ctx, req)
			return exchangeDoneMsg{req: req, resp: resp, err: err, rest: rest}
		}
	}
	return nil
}

// notify shows a toast, starting the tick timer when idle.
func (m *Model) notify(level notify.Level, msg string) tea.Cmd {
	m.toasts.Push(notify.Notification{Level: level, Message: msg, CreatedAt: time.Now()})
	if m.toasts.Ticking() {
		return nil
	}
	m.toasts.SetTicking(true)
	return scheduleToastTick()
}

func (m *Model) notifyErr(err error) tea.Cmd {
	return m.notify(notify.LevelError, err.Error())
}

// save persists view state changes that do not go through a request.
func (m *Model) save() tea.Cmd {
	if err := m.app.Save(m.ctx); err != nil {
		return m.notifyErr(err)
	}
	return nil
}
