package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/asmbench/internal/bench"
	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

type OptionsCmd struct {
	flags *Flags
	app   *bench.App

	// flags
	processor  string
	jsonOutput bool
}

// NewOptionsCmd creates a new options command
func NewOptionsCmd(flags *Flags, app *bench.App) *OptionsCmd {
	return &OptionsCmd{flags: flags, app: app}
}

// Register adds the options command to the application
func (cmd *OptionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "options",
		Usage:     "List compiler standards, processors and flags",
		UsageText: "asmbench options [--processor PROC] [--json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "processor",
				Aliases:     []string{"m"},
				Usage:       "only show the dependent flags of this processor",
				Destination: &cmd.processor,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type processorOptions struct {
	Processor string   `json:"processor"`
	Family    string   `json:"family"`
	Dependent []string `json:"dependent"`
}

type optionsOutput struct {
	Standards     []string           `json:"standards,omitempty"`
	Optimizations []string           `json:"optimizations,omitempty"`
	Processors    []processorOptions `json:"processors"`
}

func (cmd *OptionsCmd) run(_ context.Context, c *cli.Command) error {
	out := optionsOutput{}

	if cmd.processor != "" {
		family, ok := compiler.FamilyOf(cmd.processor)
		if !ok {
			return fmt.Errorf("unknown processor %q; known: %s", cmd.processor, strings.Join(compiler.Processors(), ", "))
		}
		out.Processors = []processorOptions{{
			Processor: cmd.processor,
			Family:    string(family),
			Dependent: compiler.DependentOptions(cmd.processor),
		}}
	} else {
		out.Standards = compiler.Standards()
		out.Optimizations = compiler.Optimizations()
		for _, proc := range compiler.Processors() {
			family, _ := compiler.FamilyOf(proc)
			out.Processors = append(out.Processors, processorOptions{
				Processor: proc,
				Family:    string(family),
				Dependent: compiler.DependentOptions(proc),
			})
		}
	}

	if cmd.jsonOutput {
		return writeJSON(c, out)
	}

	p := newPrinter(c)
	if len(out.Standards) > 0 {
		p.Printf("%s %s", styles.CommandHeaderStyle.Render("Standards:"), strings.Join(out.Standards, " "))
		p.Printf("%s %s", styles.CommandHeaderStyle.Render("Optimizations:"), strings.Join(out.Optimizations, " "))
		p.Printf("%s", styles.CommandHeaderStyle.Render("Processors:"))
	}
	for _, po := range out.Processors {
		deps := strings.Join(po.Dependent, " ")
		if deps == "" {
			deps = "-"
		}
		p.Printf("  %-10s %s %s", po.Processor, styles.DividerStyle.Render(fmt.Sprintf("[%s]", po.Family)), deps)
	}
	return nil
}
