package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/session"
)

type FolderCmd struct {
	flags *Flags
	app   *bench.App

	// add flags
	root        bool
	parent      int
	description string

	// rm flags
	yes bool
}

// NewFolderCmd creates a new folder command
func NewFolderCmd(flags *Flags, app *bench.App) *FolderCmd {
	return &FolderCmd{flags: flags, app: app}
}

// Register adds the folder command to the application
func (cmd *FolderCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "folder",
		Usage: "Create, delete and select folders",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a folder under the selected folder",
				UsageText: "asmbench folder add [--root | --parent ID] NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "root",
						Usage:       "create a top-level folder",
						Destination: &cmd.root,
					},
					&cli.IntFlag{
						Name:        "parent",
						Usage:       "select this folder before adding",
						Destination: &cmd.parent,
					},
					&cli.StringFlag{
						Name:        "description",
						Aliases:     []string{"d"},
						Usage:       "folder description stored by the server",
						Destination: &cmd.description,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "rm",
				Usage:     "Delete a folder with everything below it",
				UsageText: "asmbench folder rm [--yes] [ID]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				ShellComplete: FolderIDCompleter(cmd.app),
				Action:        cmd.runRm,
			},
			{
				Name:          "select",
				Usage:         "Select a folder",
				UsageText:     "asmbench folder select ID",
				ShellComplete: FolderIDCompleter(cmd.app),
				Action:        cmd.runSelect,
			},
		},
	})

	return app
}

func (cmd *FolderCmd) runAdd(ctx context.Context, c *cli.Command) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if cmd.parent != 0 {
		if err := cmd.app.Select(ctx, cmd.parent, 0); err != nil {
			return err
		}
	}

	resp, err := cmd.app.Run(ctx, session.AddFolder{Name: name, Description: cmd.description, Root: cmd.root})
	if err != nil {
		return fmt.Errorf("add folder: %w", err)
	}

	newPrinter(c).Successf("Folder %q created (#%d)", resp.Folder.Name, resp.Folder.ID)
	return nil
}

func (cmd *FolderCmd) runRm(ctx context.Context, c *cli.Command) error {
	id, err := intArg(c, 0, "folder id")
	if err != nil {
		return err
	}
	if err := cmd.app.Select(ctx, id, 0); err != nil {
		return err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	selected := sess.Tree().SelectedFolder()
	if !cmd.yes && selected != 0 {
		ok, err := confirm(fmt.Sprintf("Delete %s and everything below it?", sess.Tree().Path(selected)))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not confirmed; pass --yes to delete without prompting")
		}
	}

	if _, err := cmd.app.Run(ctx, session.DeleteFolder{}); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	newPrinter(c).Successf("Folder #%d deleted", selected)
	return nil
}

func (cmd *FolderCmd) runSelect(ctx context.Context, c *cli.Command) error {
	id, err := requiredIntArg(c, 0, "folder id")
	if err != nil {
		return err
	}
	if err := cmd.app.Select(ctx, id, 0); err != nil {
		return err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	newPrinter(c).Successf("Selected %s", sess.Tree().Path(id))
	return nil
}
