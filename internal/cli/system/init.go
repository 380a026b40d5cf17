package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/config"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/logger"
)

type InitCmd struct {
	Force bool `help:"Overwrite the config file and delete existing reminders and queued notifications."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	// Release handles before files are replaced.
	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close existing storage: %w", err)
	}

	// Back up with the settings in effect before the config is rewritten.
	if c.Force && ctx.Config != nil {
		backupExisting(ctx)
	}

	path := ctx.ConfigPath
	if path == "" {
		path = constants.DefaultConfigFile
	}
	written, err := config.WriteDefault(path, c.Force)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(ctx.Out, "Wrote default config to: %s\n", path)
	} else {
		fmt.Fprintf(ctx.Out, "Using existing config at: %s\n", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	ctx.Config = cfg

	if c.Force {
		for _, p := range resetPaths(cfg) {
			if err := os.Remove(p); err == nil {
				fmt.Fprintf(ctx.Out, "Deleted existing data at: %s\n", p)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete %s: %w", p, err)
			}
			// SQLite sidecar files
			os.Remove(p + "-wal")
			os.Remove(p + "-shm")
		}
	}

	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Initialized %s storage (%s)\n", constants.AppName, describeStorage(cfg))
	fmt.Fprintf(ctx.Out, "Notification queue at: %s\n", cfg.Notifications.QueuePath)
	return nil
}

func backupExisting(ctx *cli.Context) {
	defer ctx.Close()
	if err := ctx.Open(context.Background()); err != nil {
		logger.Warn("Could not open existing storage for backup", "error", err)
		return
	}
	if p := ctx.PerformAutomaticBackup(context.Background()); p != "" {
		fmt.Fprintf(ctx.Out, "Backed up existing reminders to: %s\n", p)
	}
}

// resetPaths lists the local files --force removes. Remote backends are not touched.
func resetPaths(cfg *config.Config) []string {
	var paths []string
	switch constants.StorageBackend(cfg.Storage.Backend) {
	case constants.BackendFile:
		paths = append(paths, cfg.Storage.Path)
	case constants.BackendSQLite:
		if cfg.Storage.Path != cfg.Notifications.QueuePath {
			paths = append(paths, cfg.Storage.Path)
		}
	}
	return append(paths, cfg.Notifications.QueuePath)
}

func describeStorage(cfg *config.Config) string {
	switch constants.StorageBackend(cfg.Storage.Backend) {
	case constants.BackendFile, constants.BackendSQLite:
		return fmt.Sprintf("%s at %s", cfg.Storage.Backend, cfg.Storage.Path)
	case constants.BackendRedis:
		return fmt.Sprintf("redis at %s/%d", cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
	default:
		return cfg.Storage.Backend
	}
}
