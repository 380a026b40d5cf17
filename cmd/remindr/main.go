package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/cli/backups"
	"github.com/julianstephens/remindr/internal/cli/remind"
	"github.com/julianstephens/remindr/internal/cli/system"
	"github.com/julianstephens/remindr/internal/config"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/errors"
	"github.com/julianstephens/remindr/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/remindr/config.yaml"`
	Debug   bool   `help:"Log at debug level, also to stderr."`

	Init       system.InitCmd       `cmd:"" help:"Write the default config and initialize storage."`
	Add        remind.AddCmd        `cmd:"" help:"Add a reminder."`
	List       remind.ListCmd       `cmd:"" help:"List reminders." default:"1"`
	Show       remind.ShowCmd       `cmd:"" help:"Show a reminder."`
	Done       remind.DoneCmd       `cmd:"" help:"Toggle a reminder between done and active."`
	Delete     remind.DeleteCmd     `cmd:"" help:"Delete a reminder."`
	Plan       remind.PlanCmd       `cmd:"" help:"Show the notifications a reminder schedules."`
	Export     remind.ExportCmd     `cmd:"" help:"Export reminders as iCalendar."`
	Daemon     system.DaemonCmd     `cmd:"" help:"Deliver queued notifications as they fall due."`
	NotifyTest system.NotifyTestCmd `cmd:"" name:"notify-test" help:"Send a test notification."`
	Queue      system.QueueCmd      `cmd:"" help:"List queued notifications."`
	MCP        system.MCPCmd        `cmd:"" name:"mcp" help:"Serve reminder tools over MCP on stdio."`
	Backup     struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Snapshot the stored reminders." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Replace the stored reminders with a backup."`
	} `cmd:"" help:"Manage reminder backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a backend credential in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored credential (password masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored credential."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability and stored credentials."`
	} `cmd:"" help:"Manage PostgreSQL and redis credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Reminders with repeating notifications"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Debug: CLI.Debug || cfg.Log.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{
		Config:     cfg,
		ConfigPath: CLI.Config,
		Out:        os.Stdout,
		Now:        time.Now,
	}

	// Init opens storage itself; keyring commands must work before storage is reachable
	if cmd := ctx.Command(); cmd != "init" && !strings.HasPrefix(cmd, "keyring") {
		if err := cfg.Validate(); err != nil {
			errors.Fatalf("invalid config %s: %v", CLI.Config, err)
		}
		if err := appCtx.Open(context.Background()); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	appCtx.Close()
	errors.Fatal(err)
	logger.Close()
}
