package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
	"github.com/hay-kot/asmbench/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	app   *bench.App
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *bench.App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "tui",
		Usage:       "Open the interactive workbench",
		UsageText:   "asmbench tui",
		Description: "Shows the workspace tree, the selected source file and its generated code side by side. Also runs when asmbench is called without a command.",
		Action:      cmd.Run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var warnings []string
	for _, w := range cmd.flags.Config.Warnings() {
		warnings = append(warnings, fmt.Sprintf("%s: %s", w.Item, w.Message))
	}

	cmd.app.StartBus(ctx)

	deps := tui.Deps{App: cmd.app}
	watcher, err := jsonfile.NewWatcher(cmd.app.Store.Path())
	if err != nil {
		// The workbench still runs, it just will not see saves by other processes.
		log.Warn().Err(err).Msg("workspace watcher unavailable")
		warnings = append(warnings, "external workspace changes will not be picked up")
	} else {
		defer func() { _ = watcher.Close() }()
		deps.Changes = watcher.Watch(ctx)
	}

	cmd.app.Bus.PublishTuiStarted(eventbus.TUIStartedPayload{})
	defer cmd.app.Bus.PublishTuiStopped(eventbus.TUIStoppedPayload{})

	m := tui.New(ctx, deps, tui.Opts{Warnings: warnings})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
