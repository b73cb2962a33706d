package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// FolderIDCompleter returns a ShellCompleteFunc that suggests folder ids
// with their path as the description.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func FolderIDCompleter(app *bench.App) cli.ShellCompleteFunc {
	return treeCompleter(app, func(tree *workspace.Tree, e workspace.Entry) (string, bool) {
		if e.IsFile {
			return "", false
		}
		return fmt.Sprintf("%d:%s", e.Folder.ID, tree.Path(e.Folder.ID)), true
	})
}

// FileIDCompleter is FolderIDCompleter for files.
func FileIDCompleter(app *bench.App) cli.ShellCompleteFunc {
	return treeCompleter(app, func(tree *workspace.Tree, e workspace.Entry) (string, bool) {
		if !e.IsFile {
			return "", false
		}
		return fmt.Sprintf("%d:%s/%s", e.File.ID, tree.Path(e.File.FolderID), e.File.Name), true
	})
}

func treeCompleter(app *bench.App, line func(*workspace.Tree, workspace.Entry) (string, bool)) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		sess, err := app.Session(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		tree := sess.Tree()
		for e := range tree.All() {
			if s, ok := line(tree, e); ok {
				_, _ = fmt.Fprintln(w, s)
			}
		}
	}
}
