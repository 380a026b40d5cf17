package remind

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/reminders"
)

// ExportCmd writes reminders as an iCalendar file of VTODOs.
type ExportCmd struct {
	Output string `short:"o" help:"File to write (defaults to stdout)." type:"path"`
	Filter string `help:"Which reminders to export (all, active, done)." default:"all" enum:"all,active,done"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	f, err := reminders.ParseFilter(c.Filter)
	if err != nil {
		return err
	}
	list := ctx.Reminders.List(f)
	if len(list) == 0 {
		return recurrence.ErrNothingToExport
	}

	var w io.Writer = ctx.Out
	if c.Output != "" {
		file, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := recurrence.ExportICal(w, list, ctx.Now()); err != nil {
		return fmt.Errorf("failed to export reminders: %w", err)
	}

	if c.Output != "" {
		fmt.Fprintf(ctx.Out, "✓ Exported %d reminder(s) to %s\n", len(list), c.Output)
	}
	return nil
}
