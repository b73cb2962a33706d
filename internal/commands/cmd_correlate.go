package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/errs"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

type CorrelateCmd struct {
	flags *Flags
	app   *bench.App

	// flags
	all        bool
	jsonOutput bool
}

// NewCorrelateCmd creates a new correlate command
func NewCorrelateCmd(flags *Flags, app *bench.App) *CorrelateCmd {
	return &CorrelateCmd{flags: flags, app: app}
}

// Register adds the correlate command to the application
func (cmd *CorrelateCmd) Register(app *cli.Command) *cli.Command {
	allFlag := func(usage string) cli.Flag {
		return &cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       usage,
			Destination: &cmd.all,
		}
	}
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON",
			Destination: &cmd.jsonOutput,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:    "correlate",
		Aliases: []string{"cor"},
		Usage:   "Navigate between source lines and generated code",
		Description: `Works on the last compilation. Highlights and folded blocks are
saved with the workspace and shown by 'compile' and the TUI.`,
		Commands: []*cli.Command{
			{
				Name:      "link",
				Usage:     "Toggle the highlight of the code a source line produced",
				UsageText: "asmbench correlate link [--json] LINE",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runLink,
			},
			{
				Name:      "links",
				Usage:     "List every source line with generated code",
				UsageText: "asmbench correlate links [--json]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runLinks,
			},
			{
				Name:      "source",
				Usage:     "Find the source line a generated line came from",
				UsageText: "asmbench correlate source GENERATED_LINE",
				Description: `GENERATED_LINE is 1-based, as printed by 'compile'
including folded lines.`,
				Action: cmd.runSource,
			},
			{
				Name:      "blocks",
				Usage:     "List the collapsible blocks",
				UsageText: "asmbench correlate blocks [--json]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runBlocks,
			},
			{
				Name:      "fold",
				Usage:     "Hide block bodies",
				UsageText: "asmbench correlate fold (--all | ID...)",
				Flags:     []cli.Flag{allFlag("fold every block")},
				Action:    cmd.visibility(false),
			},
			{
				Name:      "unfold",
				Usage:     "Show block bodies",
				UsageText: "asmbench correlate unfold (--all | ID...)",
				Flags:     []cli.Flag{allFlag("unfold every block")},
				Action:    cmd.visibility(true),
			},
			{
				Name:      "toggle",
				Usage:     "Flip the visibility of block bodies",
				UsageText: "asmbench correlate toggle ID...",
				Action:    cmd.runToggle,
			},
		},
	})

	return app
}

func (cmd *CorrelateCmd) correlator(ctx context.Context) (*correlate.Correlator, error) {
	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return nil, err
	}
	corr := sess.Correlator()
	if !corr.HasResult() {
		return nil, errs.Validationf("nothing has been compiled")
	}
	return corr, nil
}

type linkOutput struct {
	correlate.Fragment
	Highlighted bool     `json:"highlighted"`
	Lines       []string `json:"lines"`
}

func (cmd *CorrelateCmd) runLink(ctx context.Context, c *cli.Command) error {
	line, err := requiredIntArg(c, 0, "source line")
	if err != nil {
		return err
	}
	corr, err := cmd.correlator(ctx)
	if err != nil {
		return err
	}

	frag, on, err := corr.ToggleHighlight(line)
	if err != nil {
		return err
	}
	if err := cmd.app.Save(ctx); err != nil {
		return err
	}

	res, _ := corr.Result()
	out := linkOutput{Fragment: frag, Highlighted: on}
	for i := frag.Start; i <= frag.End; i++ {
		out.Lines = append(out.Lines, res.Document.Lines[i].Text)
	}

	if cmd.jsonOutput {
		return writeJSON(c, out)
	}

	p := newPrinter(c)
	state := "off"
	if on {
		state = "on"
	}
	p.Printf("%s source line %d, generated lines %d-%d (highlight %s)",
		styles.CommandHeaderStyle.Render("Link:"), line, frag.Start+1, frag.End+1, state)
	for i, text := range out.Lines {
		p.Printf("%s %s", styles.LineNumberStyle.Render(fmt.Sprintf("%5d", frag.Start+i+1)), text)
	}
	return nil
}

func (cmd *CorrelateCmd) runLinks(ctx context.Context, c *cli.Command) error {
	corr, err := cmd.correlator(ctx)
	if err != nil {
		return err
	}

	links := corr.Links()
	if cmd.jsonOutput {
		return writeJSON(c, links)
	}

	p := newPrinter(c)
	for _, f := range links {
		mark := " "
		if corr.IsHighlighted(f.SourceLine) {
			mark = styles.HighlightStyle.Render("*")
		}
		p.Printf("%s %5d -> %d-%d", mark, f.SourceLine, f.Start+1, f.End+1)
	}
	if n := corr.Duplicates(); n > 0 {
		p.Warnf("%d repeated markers resolve only through 'correlate source'", n)
	}
	return nil
}

func (cmd *CorrelateCmd) runSource(ctx context.Context, c *cli.Command) error {
	line, err := requiredIntArg(c, 0, "generated line")
	if err != nil {
		return err
	}
	corr, err := cmd.correlator(ctx)
	if err != nil {
		return err
	}

	src, ok := corr.SourceFor(line - 1)
	if !ok {
		return errs.NotFoundf("generated line %d has no source line", line)
	}
	newPrinter(c).Printf("%d", src)
	return nil
}

type blockOutput struct {
	correlate.Block
	Visible bool `json:"visible"`
}

func (cmd *CorrelateCmd) runBlocks(ctx context.Context, c *cli.Command) error {
	corr, err := cmd.correlator(ctx)
	if err != nil {
		return err
	}

	blocks := make([]blockOutput, 0, len(corr.Blocks()))
	for _, b := range corr.Blocks() {
		blocks = append(blocks, blockOutput{Block: b, Visible: corr.BlockVisible(b.ID)})
	}
	if cmd.jsonOutput {
		return writeJSON(c, blocks)
	}

	p := newPrinter(c)
	for _, b := range blocks {
		state := styles.SuccessStyle.Render("shown ")
		if !b.Visible {
			state = styles.FoldedStyle.Render("folded")
		}
		p.Printf("%3d %s %s", b.ID, state, b.Title)
	}
	return nil
}

func (cmd *CorrelateCmd) visibility(visible bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		corr, err := cmd.correlator(ctx)
		if err != nil {
			return err
		}

		ids, err := blockIDs(c)
		if err != nil {
			return err
		}
		switch {
		case cmd.all:
			corr.SetAllBlocksVisibility(visible)
		case len(ids) == 0:
			return fmt.Errorf("pass block ids or --all")
		default:
			for _, id := range ids {
				if err := corr.SetBlockVisibility(id, visible); err != nil {
					return err
				}
			}
		}
		return cmd.app.Save(ctx)
	}
}

func (cmd *CorrelateCmd) runToggle(ctx context.Context, c *cli.Command) error {
	corr, err := cmd.correlator(ctx)
	if err != nil {
		return err
	}
	ids, err := blockIDs(c)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("missing block id argument")
	}

	p := newPrinter(c)
	for _, id := range ids {
		visible, err := corr.ToggleBlock(id)
		if err != nil {
			return err
		}
		if visible {
			p.Printf("block %d shown", id)
		} else {
			p.Printf("block %d folded", id)
		}
	}
	return cmd.app.Save(ctx)
}

func blockIDs(c *cli.Command) ([]int, error) {
	ids := make([]int, 0, c.Args().Len())
	for i := range c.Args().Len() {
		id, err := intArg(c, i, "block id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
