package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/styles"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

type TreeCmd struct {
	flags *Flags
	app   *bench.App

	// flags
	jsonOutput bool
}

// NewTreeCmd creates a new tree command
func NewTreeCmd(flags *Flags, app *bench.App) *TreeCmd {
	return &TreeCmd{flags: flags, app: app}
}

// Register adds the tree command to the application
func (cmd *TreeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tree",
		Usage:     "Show the workspace folders and files",
		UsageText: "asmbench tree [--json]",
		Description: `Prints the workspace tree as last synchronized with the store.

The selected folder and file are marked with '*'. Commands that act on
"the selection" use these.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the tree snapshot as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *TreeCmd) run(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	tree := sess.Tree()

	if cmd.jsonOutput {
		return writeJSON(c, tree.Snapshot())
	}

	out := c.Root().Writer
	if folders, _ := tree.Len(); folders == 0 {
		_, _ = fmt.Fprintln(out, "Workspace is empty. Run 'asmbench folder add --root NAME' to start.")
		return nil
	}

	for e := range tree.All() {
		_, _ = fmt.Fprintln(out, treeLine(tree, e))
	}
	return nil
}

func treeLine(tree *workspace.Tree, e workspace.Entry) string {
	indent := strings.Repeat("  ", e.Depth)
	if e.IsFile {
		mark := " "
		if tree.SelectedFile() == e.File.ID {
			mark = "*"
		}
		return fmt.Sprintf("%s%s %s%s %s", indent, mark, styles.IconFileC, styles.TreeFileStyle.Render(e.File.Name), styles.DividerStyle.Render(fmt.Sprintf("#%d", e.File.ID)))
	}

	mark := " "
	if tree.SelectedFolder() == e.Folder.ID {
		mark = "*"
	}
	return fmt.Sprintf("%s%s %s %s %s", indent, mark, styles.IconFolderOpen, styles.TreeFolderStyle.Render(e.Folder.Name), styles.DividerStyle.Render(fmt.Sprintf("#%d", e.Folder.ID)))
}
