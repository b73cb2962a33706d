package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/session"
	"github.com/hay-kot/asmbench/pkg/iojson"
)

type SectionCmd struct {
	flags *Flags
	app   *bench.App

	// create flags
	kind string

	// shared output flags
	jsonOutput bool
	apply      bool

	reader iojson.FileReader[[]section.Section]
}

// NewSectionCmd creates a new section command
func NewSectionCmd(flags *Flags, app *bench.App) *SectionCmd {
	return &SectionCmd{flags: flags, app: app}
}

// Register adds the section command to the application
func (cmd *SectionCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON",
			Destination: &cmd.jsonOutput,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:    "section",
		Aliases: []string{"sec"},
		Usage:   "Tag line ranges of the selected file",
		Description: `Sections are non-overlapping line ranges labeled with a kind:
directive, variable, procedure, comment or assembly. All subcommands act
on the selected file.`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List the sections of the selected file",
				UsageText: "asmbench section ls [--json]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runList,
			},
			{
				Name:      "create",
				Usage:     "Tag lines START through END",
				UsageText: "asmbench section create [--kind KIND] START END",
				Description: `The kind is a name or its menu number (1-5). Without --kind an
interactive picker is shown.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "kind",
						Aliases:     []string{"k"},
						Usage:       "section kind, by name or number",
						Destination: &cmd.kind,
					},
				},
				Action: cmd.runCreate,
			},
			{
				Name:      "rm",
				Usage:     "Delete the section spanning exactly START through END",
				UsageText: "asmbench section rm START END",
				Action:    cmd.runRm,
			},
			{
				Name:   "split",
				Usage:  "Replace all sections with the store's own split",
				Action: cmd.runSplit,
			},
			{
				Name:      "suggest",
				Usage:     "Propose sections by parsing the source locally",
				UsageText: "asmbench section suggest [--apply] [--json]",
				Description: `Parses the selected file and proposes one section per top-level
construct. Proposals overlapping existing sections are left out.

The JSON output can be edited and fed back with 'section apply'.`,
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{
						Name:        "apply",
						Usage:       "create every proposed section",
						Destination: &cmd.apply,
					},
				},
				Action: cmd.runSuggest,
			},
			{
				Name:      "apply",
				Usage:     "Create sections from a JSON list",
				UsageText: "asmbench section apply [-f FILE]",
				Flags:     []cli.Flag{cmd.reader.Flag()},
				Action:    cmd.runApply,
			},
		},
	})

	return app
}

func (cmd *SectionCmd) runList(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	fileID := sess.Tree().SelectedFile()
	if fileID != 0 && !sess.Sections().IsOpen(fileID) {
		if _, err := cmd.app.Run(ctx, session.OpenFile{}); err != nil {
			return err
		}
	}

	sections := sess.Sections().List(fileID)
	if cmd.jsonOutput {
		return writeJSON(c, sections)
	}
	if len(sections) == 0 {
		newPrinter(c).Printf("No sections.")
		return nil
	}
	printSections(c, sections)
	return nil
}

func printSections(c *cli.Command, sections []section.Section) {
	p := newPrinter(c)
	for _, s := range sections {
		p.Printf("%5d-%-5d %s", s.StartLine, s.EndLine, s.Kind)
	}
}

func spanArgs(c *cli.Command) (int, int, error) {
	start, err := requiredIntArg(c, 0, "start line")
	if err != nil {
		return 0, 0, err
	}
	end, err := requiredIntArg(c, 1, "end line")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (cmd *SectionCmd) runCreate(ctx context.Context, c *cli.Command) error {
	start, end, err := spanArgs(c)
	if err != nil {
		return err
	}

	kind, err := cmd.resolveKind()
	if err != nil {
		return err
	}

	if _, err := cmd.app.Run(ctx, session.CreateSection{
		Selection: session.LineSelection(start, end),
		Kind:      kind,
	}); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	newPrinter(c).Successf("Tagged lines %d-%d as %s", min(start, end), max(start, end), kind)
	return nil
}

func (cmd *SectionCmd) resolveKind() (section.Kind, error) {
	if cmd.kind != "" {
		return section.ParseKind(cmd.kind)
	}
	if !interactive() {
		return "", fmt.Errorf("--kind is required when not running in a terminal")
	}

	options := make([]huh.Option[section.Kind], 0, len(section.Kinds()))
	for i, k := range section.Kinds() {
		options = append(options, huh.NewOption(fmt.Sprintf("%d. %s", i+1, k), k))
	}

	var kind section.Kind
	err := huh.NewSelect[section.Kind]().
		Title("Section kind").
		Options(options...).
		Value(&kind).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", fmt.Errorf("no kind chosen")
	}
	return kind, err
}

func (cmd *SectionCmd) runRm(ctx context.Context, c *cli.Command) error {
	start, end, err := spanArgs(c)
	if err != nil {
		return err
	}

	if _, err := cmd.app.Run(ctx, session.DeleteSection{Start: start, End: end}); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	newPrinter(c).Successf("Section %d-%d deleted", start, end)
	return nil
}

func (cmd *SectionCmd) runSplit(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.app.Run(ctx, session.SplitFile{}); err != nil {
		return fmt.Errorf("split file: %w", err)
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	sections := sess.Sections().List(sess.Tree().SelectedFile())
	newPrinter(c).Successf("File split into %d sections", len(sections))
	printSections(c, sections)
	return nil
}

func (cmd *SectionCmd) runSuggest(ctx context.Context, c *cli.Command) error {
	proposals, err := cmd.app.Suggest(ctx, 0)
	if err != nil {
		return err
	}

	if !cmd.apply {
		if cmd.jsonOutput {
			return writeJSON(c, proposals)
		}
		if len(proposals) == 0 {
			newPrinter(c).Printf("Nothing to suggest.")
			return nil
		}
		printSections(c, proposals)
		return nil
	}

	return cmd.create(ctx, c, proposals)
}

func (cmd *SectionCmd) runApply(ctx context.Context, c *cli.Command) error {
	proposals, err := cmd.reader.Read()
	if err != nil {
		return err
	}
	return cmd.create(ctx, c, proposals)
}

func (cmd *SectionCmd) create(ctx context.Context, c *cli.Command, proposals []section.Section) error {
	created, err := cmd.app.ApplySuggestions(ctx, proposals)

	if cmd.jsonOutput {
		if werr := writeJSON(c, created); werr != nil {
			return werr
		}
		return err
	}

	p := newPrinter(c)
	for _, s := range created {
		p.Successf("Tagged lines %d-%d as %s", s.StartLine, s.EndLine, s.Kind)
	}
	if err != nil {
		p.Warnf("%d of %d sections could not be created", len(proposals)-len(created), len(proposals))
	}
	return err
}
