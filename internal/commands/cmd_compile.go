package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

type CompileCmd struct {
	flags *Flags
	app   *bench.App

	// flags
	standard      string
	processor     string
	optimizations []string
	dependent     []string
	pretty        bool
	quiet         bool
	jsonOutput    bool
}

// NewCompileCmd creates a new compile command
func NewCompileCmd(flags *Flags, app *bench.App) *CompileCmd {
	return &CompileCmd{flags: flags, app: app}
}

// Register adds the compile command to the application
func (cmd *CompileCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "compile",
		Usage:     "Compile the selected file",
		UsageText: "asmbench compile [--std STD] [--proc PROC] [--opt OPT]... [--dep DEP]... [--pretty | --json]",
		Description: `Submits the selected file to the compile service and prints the
generated code. Options left out take the values under 'compile' in the
config file. Run 'asmbench options' to list legal values.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "std",
				Usage:       "language standard",
				Destination: &cmd.standard,
			},
			&cli.StringFlag{
				Name:        "proc",
				Aliases:     []string{"m"},
				Usage:       "target processor",
				Destination: &cmd.processor,
			},
			&cli.StringSliceFlag{
				Name:        "opt",
				Usage:       "optimization flag (repeatable)",
				Destination: &cmd.optimizations,
			},
			&cli.StringSliceFlag{
				Name:        "dep",
				Usage:       "processor dependent flag (repeatable)",
				Destination: &cmd.dependent,
			},
			&cli.BoolFlag{
				Name:        "pretty",
				Usage:       "render a markdown report",
				Destination: &cmd.pretty,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "print only the status and diagnostics",
				Destination: &cmd.quiet,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the result as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CompileCmd) run(ctx context.Context, c *cli.Command) error {
	opts := compiler.Options{
		Standard:      cmd.standard,
		Processor:     cmd.processor,
		Optimizations: cmd.optimizations,
		Dependent:     cmd.dependent,
	}

	res, err := cmd.app.Compile(ctx, opts)
	if err != nil {
		return err
	}

	switch {
	case cmd.jsonOutput:
		return writeJSON(c, res)
	case cmd.pretty:
		return cmd.renderPretty(c, res)
	}

	printStatus(c, res)
	if cmd.quiet {
		return nil
	}

	sess, err := cmd.app.Session(ctx)
	if err != nil {
		return err
	}
	printListing(c, sess.Correlator())
	return nil
}

func printStatus(c *cli.Command, res correlate.Result) {
	p := newPrinter(c)
	switch res.Status {
	case correlate.StatusClean:
		p.Successf("%s", res.Status)
	case correlate.StatusWarnings:
		p.Warnf("%s", res.Status)
	default:
		p.Errorf("%s", res.Status)
	}
	for _, d := range res.Diagnostics {
		p.Printf("  %s %s", styles.LineNumberStyle.Render(fmt.Sprintf("line %d:", d.SourceLine)), d.Text)
	}
}

// printListing prints the visible generated lines. Hidden block bodies
// are replaced by a single fold marker.
func printListing(c *cli.Command, corr *correlate.Correlator) {
	res, ok := corr.Result()
	if !ok {
		return
	}

	out := c.Root().Writer
	folded := make(map[int]bool)
	for i, l := range res.Document.Lines {
		if !corr.LineVisible(i) {
			if !folded[l.Block] {
				folded[l.Block] = true
				_, _ = fmt.Fprintln(out, styles.FoldedStyle.Render(fmt.Sprintf("  ... block %d folded", l.Block)))
			}
			continue
		}

		text := l.Text
		if l.Role == correlate.RoleHeader {
			text = styles.BlockHeaderStyle.Render(text)
		}
		if src, ok := corr.SourceFor(i); ok && corr.IsHighlighted(src) {
			text = styles.HighlightStyle.Render(l.Text)
		}
		_, _ = fmt.Fprintln(out, text)
	}
}

func (cmd *CompileCmd) renderPretty(c *cli.Command, res correlate.Result) error {
	md := compileReport(cmd.app.Config.Compile, compiler.Options{
		Standard:      cmd.standard,
		Processor:     cmd.processor,
		Optimizations: cmd.optimizations,
		Dependent:     cmd.dependent,
	}, res)

	width := 100
	if w, _, err := term.GetSize(1); err == nil && w > 0 {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw report")
		_, _ = fmt.Fprintln(c.Root().Writer, md)
		return nil
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw report")
		rendered = md
	}
	_, _ = fmt.Fprint(c.Root().Writer, rendered)
	return nil
}

// compileReport builds the markdown summary of a compilation.
func compileReport(defaults, opts compiler.Options, res correlate.Result) string {
	opts = opts.Merge(defaults)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Status)
	fmt.Fprintf(&b, "`sdcc %s`\n\n", strings.Join(opts.Args(), " "))

	if res.ArtifactName != "" {
		fmt.Fprintf(&b, "Artifact: **%s**\n\n", res.ArtifactName)
	}

	if len(res.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n| Line | Message |\n|---:|---|\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "| %d | %s |\n", d.SourceLine, strings.ReplaceAll(d.Text, "|", `\|`))
		}
		b.WriteString("\n")
	}

	if len(res.Document.Blocks) > 0 {
		b.WriteString("## Blocks\n\n")
		for _, blk := range res.Document.Blocks {
			fmt.Fprintf(&b, "- %d: %s\n", blk.ID, blk.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Generated code\n\n```asm\n")
	for _, l := range res.Document.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	return b.String()
}
