package remind

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/reminders"
)

type DeleteCmd struct {
	ID  string `arg:"" help:"Reminder ID or unique prefix."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	r, err := cli.ResolveID(ctx.Reminders.List(reminders.FilterAll), c.ID)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Delete reminder?").
					Description(fmt.Sprintf("Are you sure you want to delete %q?", r.Title)).
					Affirmative("Delete").
					Negative("Cancel").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula())
		err := form.Run()
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(ctx.Out, "Cancelled.")
			return nil
		}
	}

	if !ctx.Reminders.Delete(context.Background(), r.ID) {
		return fmt.Errorf("reminder not found: %s", r.ID)
	}

	fmt.Fprintf(ctx.Out, "✓ Reminder deleted: %s\n", r.Title)
	return nil
}
