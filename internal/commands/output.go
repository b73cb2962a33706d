package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/asmbench/internal/core/eventbus"
	"github.com/hay-kot/asmbench/internal/core/notify"
	"github.com/hay-kot/asmbench/internal/core/styles"
	"github.com/hay-kot/asmbench/pkg/iojson"
)

// printer writes styled status lines.
type printer struct {
	w io.Writer
}

func newPrinter(c *cli.Command) *printer {
	return &printer{w: c.Root().Writer}
}

func (p *printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Successf(format string, args ...any) {
	p.Printf("%s %s", styles.SuccessStyle.Render(styles.IconCheck), fmt.Sprintf(format, args...))
}

func (p *printer) Warnf(format string, args ...any) {
	p.Printf("%s %s", styles.WarningStyle.Render(styles.IconWarning), fmt.Sprintf(format, args...))
}

func (p *printer) Errorf(format string, args ...any) {
	p.Printf("%s %s", styles.ErrorStyle.Render(styles.IconError), fmt.Sprintf(format, args...))
}

// notification prints a bus notification to stderr.
func notification(n eventbus.NotificationPublishedPayload) {
	p := &printer{w: os.Stderr}
	switch n.Level {
	case notify.LevelError:
		p.Errorf("%s", n.Message)
	case notify.LevelWarning:
		p.Warnf("%s", n.Message)
	default:
		p.Printf("%s", n.Message)
	}
}

func writeJSON(c *cli.Command, v any) error {
	return iojson.Write(c.Root().Writer, v)
}

// interactive reports whether prompts can be shown.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// confirm asks a yes/no question. Without a terminal the answer is no.
func confirm(title string) (bool, error) {
	if !interactive() {
		return false, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// intArg parses the i-th positional argument, or returns 0 when absent.
func intArg(c *cli.Command, i int, name string) (int, error) {
	if c.Args().Len() <= i {
		return 0, nil
	}
	n, err := strconv.Atoi(c.Args().Get(i))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, c.Args().Get(i))
	}
	return n, nil
}

// requiredIntArg is intArg for arguments that must be given.
func requiredIntArg(c *cli.Command, i int, name string) (int, error) {
	if c.Args().Len() <= i {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	return intArg(c, i, name)
}
