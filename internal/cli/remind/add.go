package remind

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
)

type AddCmd struct {
	Title       string `arg:"" optional:"" help:"What to be reminded about."`
	Priority    string `help:"Priority (low, medium, high)." default:"medium" enum:"low,medium,high"`
	Repeat      string `help:"Repeat mode (none, every_x_minutes, every_x_hours, daily, weekly)." default:"none"`
	Every       string `help:"Interval for every_x_minutes and every_x_hours."`
	Days        string `help:"Weekdays for weekly reminders (e.g., mon,wed,fri)."`
	At          string `help:"When to remind: HH:MM, \"YYYY-MM-DD HH:MM\" or RFC3339. Repeating reminders use only the time of day."`
	Interactive bool   `short:"i" help:"Fill in the reminder with an interactive form."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	var (
		in  recurrence.Input
		err error
	)
	if c.Interactive || c.Title == "" {
		in, err = c.runForm(ctx)
	} else {
		in, err = c.input(ctx)
	}
	if err != nil {
		return err
	}

	p, err := recurrence.Build(in)
	if err != nil {
		return err
	}

	r := ctx.Reminders.Add(context.Background(), p)
	fmt.Fprintf(ctx.Out, "✓ Reminder added: %s (%s)\n", r.Title, recurrence.Describe(r))
	if !ctx.Reminders.NotificationsEnabled() {
		fmt.Fprintln(ctx.Out, "⚠️  Notifications are off, so this reminder will not fire.")
		fmt.Fprintln(ctx.Out, "   Start remindr-tray and make sure notifications.enabled is true.")
	}
	return nil
}

// input builds the form input from flags.
func (c *AddCmd) input(ctx *cli.Context) (recurrence.Input, error) {
	mode, err := models.ParseMode(c.Repeat)
	if err != nil {
		return recurrence.Input{}, err
	}

	in := recurrence.Input{
		Title:       c.Title,
		Priority:    c.Priority,
		Mode:        mode,
		IntervalRaw: c.Every,
	}

	if c.Days != "" {
		days, err := cli.ParseWeekdays(c.Days)
		if err != nil {
			return recurrence.Input{}, err
		}
		in.SelectedDays = days
	}

	switch {
	case c.At != "":
		at, err := cli.ParseWhen(c.At, ctx.Now())
		if err != nil {
			return recurrence.Input{}, err
		}
		in.Time = at
	case mode != models.ModeNone:
		// The time picker defaults to now.
		in.Time = ctx.Now()
	}

	return in, nil
}

func (c *AddCmd) runForm(ctx *cli.Context) (recurrence.Input, error) {
	var (
		title    = c.Title
		priority = c.Priority
		mode     = models.ModeNone
		every    = c.Every
		days     []models.Weekday
		at       = ctx.Now().Format(constants.DateTimeFormat)
	)
	if priority == "" {
		priority = string(models.PriorityMedium)
	}

	priorityOptions := make([]huh.Option[string], 0, len(models.Priorities))
	for _, p := range models.Priorities {
		priorityOptions = append(priorityOptions, huh.NewOption(strings.ToUpper(string(p)), string(p)))
	}
	modeOptions := make([]huh.Option[models.Mode], 0, len(models.Modes))
	for _, m := range models.Modes {
		modeOptions = append(modeOptions, huh.NewOption(m.Label(), m))
	}
	dayOptions := make([]huh.Option[models.Weekday], 0, 7)
	for d := models.Monday; d <= models.Sunday; d++ {
		dayOptions = append(dayOptions, huh.NewOption(d.Short(), d))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&priority),
			huh.NewSelect[models.Mode]().
				Title("Repeat").
				Options(modeOptions...).
				Value(&mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Every").
				Description("Whole number of minutes or hours").
				Value(&every).
				Validate(func(s string) error {
					_, err := recurrence.ParseInterval(s)
					return err
				}),
		).WithHideFunc(func() bool {
			return mode != models.ModeEveryMinutes && mode != models.ModeEveryHours
		}),
		huh.NewGroup(
			huh.NewMultiSelect[models.Weekday]().
				Title("Days").
				Options(dayOptions...).
				Value(&days).
				Validate(func(ds []models.Weekday) error {
					if len(ds) == 0 {
						return fmt.Errorf("select at least one day")
					}
					return nil
				}),
		).WithHideFunc(func() bool {
			return mode != models.ModeWeekly
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("When").
				Description("HH:MM or YYYY-MM-DD HH:MM").
				Value(&at).
				Validate(func(s string) error {
					_, err := cli.ParseWhen(s, ctx.Now())
					return err
				}),
		).WithHideFunc(func() bool {
			return mode == models.ModeEveryMinutes || mode == models.ModeEveryHours
		}),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return recurrence.Input{}, fmt.Errorf("interactive form error: %w", err)
	}

	in := recurrence.Input{
		Title:        title,
		Priority:     priority,
		Mode:         mode,
		IntervalRaw:  every,
		SelectedDays: days,
		Time:         ctx.Now(),
	}
	if mode != models.ModeEveryMinutes && mode != models.ModeEveryHours {
		t, err := cli.ParseWhen(at, ctx.Now())
		if err != nil {
			return recurrence.Input{}, err
		}
		in.Time = t
	}
	return in, nil
}
