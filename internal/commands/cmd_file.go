package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

type FileCmd struct {
	flags *Flags
	app   *bench.App

	// add flags
	folder      int
	description string

	// rm flags
	yes bool

	// show flags
	jsonOutput bool
}

// NewFileCmd creates a new file command
func NewFileCmd(flags *Flags, app *bench.App) *FileCmd {
	return &FileCmd{flags: flags, app: app}
}

// Register adds the file command to the application
func (cmd *FileCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "file",
		Usage: "Upload, delete, select and show source files",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Upload files into the selected folder",
				UsageText: "asmbench file add [--folder ID] GLOB...",
				Description: `Each argument is expanded as a glob pattern ('**' matches across
directories). Every match is uploaded under its base name.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "folder",
						Usage:       "select this folder before uploading",
						Destination: &cmd.folder,
					},
					&cli.StringFlag{
						Name:        "description",
						Aliases:     []string{"d"},
						Usage:       "description stored with every uploaded file",
						Destination: &cmd.description,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "rm",
				Usage:     "Delete a file",
				UsageText: "asmbench file rm [--yes] [ID]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				ShellComplete: FileIDCompleter(cmd.app),
				Action:        cmd.runRm,
			},
			{
				Name:          "select",
				Usage:         "Select a file and its folder",
				UsageText:     "asmbench file select ID",
				ShellComplete: FileIDCompleter(cmd.app),
				Action:        cmd.runSelect,
			},
			{
				Name:      "show",
				Usage:     "Print a file with its sections",
				UsageText: "asmbench file show [--json] [ID]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output the document and sections as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				ShellComplete: FileIDCompleter(cmd.app),
				Action:        cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *FileCmd) runAdd(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing file argument")
	}
	if cmd.folder != 0 {
		if err := cmd.app.Select(ctx, cmd.folder, 0); err != nil {
			return err
		}
	}

	paths, err := expandGlobs(c.Args().Slice())
	if err != nil {
		return err
	}

	p := newPrinter(c)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		resp, err := cmd.app.Run(ctx, session.AddFile{
			Name:        filepath.Base(path),
			Description: cmd.description,
			Content:     content,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		p.Successf("Uploaded %s (#%d)", resp.File.Name, resp.File.ID)
	}
	return nil
}

// expandGlobs resolves every pattern, keeping first-seen order and
// dropping duplicates. A pattern without matches is an error.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (cmd *FileCmd) runRm(ctx context.Context, c *cli.Command) error {
	id, err := cmd.selectArg(ctx, c)
	if err != nil {
		return err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	if id == 0 {
		id = sess.Tree().SelectedFile()
	}
	if f, ok := sess.Tree().File(id); ok && !cmd.yes {
		ok, err := confirm(fmt.Sprintf("Delete %s/%s?", sess.Tree().Path(f.FolderID), f.Name))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not confirmed; pass --yes to delete without prompting")
		}
	}

	if _, err := cmd.app.Run(ctx, session.DeleteFile{}); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	newPrinter(c).Successf("File #%d deleted", id)
	return nil
}

func (cmd *FileCmd) runSelect(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing file id argument")
	}
	id, err := cmd.selectArg(ctx, c)
	if err != nil {
		return err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	f, _ := sess.Tree().File(id)
	newPrinter(c).Successf("Selected %s/%s", sess.Tree().Path(f.FolderID), f.Name)
	return nil
}

// selectArg selects the file named by the first argument along with its
// folder. It returns 0 when no argument was given.
func (cmd *FileCmd) selectArg(ctx context.Context, c *cli.Command) (int, error) {
	id, err := intArg(c, 0, "file id")
	if err != nil || id == 0 {
		return 0, err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return 0, err
	}
	folderID := 0
	if f, ok := sess.Tree().File(id); ok {
		folderID = f.FolderID
	}
	return id, cmd.app.Select(ctx, folderID, id)
}

type showOutput struct {
	Document section.Document  `json:"document"`
	Sections []section.Section `json:"sections"`
}

func (cmd *FileCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := cmd.selectArg(ctx, c)
	if err != nil {
		return err
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	if id == 0 {
		id = sess.Tree().SelectedFile()
	}
	if !sess.Sections().IsOpen(id) {
		if _, err := cmd.app.Run(ctx, session.OpenFile{FileID: id}); err != nil {
			return fmt.Errorf("open file: %w", err)
		}
	}

	doc, _ := sess.Sections().Document(id)
	sections := sess.Sections().List(id)

	if cmd.jsonOutput {
		return writeJSON(c, showOutput{Document: doc, Sections: sections})
	}

	out := c.Root().Writer
	width := len(fmt.Sprint(doc.LineCount()))
	for n := 1; n <= doc.LineCount(); n++ {
		text, _ := doc.Line(n)
		_, _ = fmt.Fprintf(out, "%s %s %s\n",
			styles.LineNumberStyle.Render(fmt.Sprintf("%*d", width, n)),
			gutter(sess.Sections(), id, n),
			text,
		)
	}
	return nil
}

const gutterWidth = 10

// gutter renders the section column of a source line: the kind on the
// first line of a section, a bar on the rest.
func gutter(idx *section.Index, fileID, line int) string {
	sec, ok := idx.At(fileID, line)
	if !ok {
		return strings.Repeat(" ", gutterWidth)
	}
	label := "│"
	if sec.StartLine == line {
		label = string(sec.Kind)
	}
	return styles.SectionStyle(sec.Kind).Render(fmt.Sprintf("%-*s", gutterWidth, label))
}
