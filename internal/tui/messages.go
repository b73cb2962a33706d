package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/data/jsonfile"
	"github.com/hay-kot/asmbench/internal/export"
)

// exchangeDoneMsg carries the outcome of a request started by Model.start.
// rest holds the commands chained behind it.
type exchangeDoneMsg struct {
	req  session.Request
	resp session.Response
	err  error
	rest []session.Command
}

type notificationMsg notify.Notification

type workspaceChangedMsg struct{}

type exportDoneMsg struct {
	receipts []export.Receipt
	err      error
}

func waitNotification(ctx context.Context, ch <-chan notify.Notification) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-ch:
			return notificationMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

// waitChange returns nil when there is nothing to watch.
func waitChange(ctx context.Context, ch <-chan jsonfile.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return workspaceChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}
