package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

type ExportCmd struct {
	flags *Flags
	app   *bench.App

	// flags
	name       string
	noDiff     bool
	jsonOutput bool
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags, app *bench.App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Write the generated code of the last compilation",
		UsageText: "asmbench export [--name NAME] [--no-diff] [--json]",
		Description: `Writes every generated line, folded or not, to the export directory
and, when enabled, the S3 bucket. The name defaults to export.name from
the config, then the name proposed by the compiler, then compiled.asm.

When the local file already exists the changes are shown as a diff.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "artifact file name",
				Destination: &cmd.name,
			},
			&cli.BoolFlag{
				Name:        "no-diff",
				Usage:       "do not print the diff against the previous file",
				Destination: &cmd.noDiff,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output receipts as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	receipts, err := cmd.app.Export(ctx, cmd.name)

	if cmd.jsonOutput {
		if werr := writeJSON(c, receipts); werr != nil {
			return werr
		}
		return err
	}

	p := newPrinter(c)
	for _, r := range receipts {
		switch {
		case r.Unchanged:
			p.Successf("%s unchanged (%s)", r.Location, r.Sink)
		default:
			p.Successf("Wrote %d bytes to %s (%s)", r.Bytes, r.Location, r.Sink)
		}
		if r.Diff != "" && !cmd.noDiff {
			p.Printf("%s", colorDiff(r.Diff))
		}
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func colorDiff(diff string) string {
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = styles.CommandHeaderStyle.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = styles.DividerStyle.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = styles.SuccessStyle.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = styles.ErrorStyle.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
