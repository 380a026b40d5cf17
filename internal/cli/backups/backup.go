package backups

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/remindr/internal/backup"
	"github.com/julianstephens/remindr/internal/cli"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	backupPath, err := ctx.Backups().CreateBackup(context.Background())
	if errors.Is(err, backup.ErrNothingToBackup) {
		fmt.Fprintln(ctx.Out, "Nothing to back up yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	list, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n\n", len(list), backup.MaxBackups)
	for _, b := range list {
		sizeKB := float64(b.Size) / 1024.0
		fmt.Fprintf(ctx.Out, "  %s  %s  %d reminder(s)  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), b.Count, sizeKB)
	}
	fmt.Fprintf(ctx.Out, "\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()

	backupPath, err := resolveBackupPath(c.BackupFile, mgr.GetBackupDir())
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Restore reminders?").
					Description(fmt.Sprintf("This replaces your current reminders with %s.\nA backup of the current list is made first.", filepath.Base(backupPath))).
					Affirmative("Restore").
					Negative("Cancel").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	current, err := mgr.RestoreBackup(context.Background(), backupPath)
	if current != "" {
		fmt.Fprintf(ctx.Out, "Created backup of current reminders: %s\n", filepath.Base(current))
	}
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	restored := ctx.Reminders.Load(context.Background())
	fmt.Fprintf(ctx.Out, "✓ Restored %d reminder(s) from %s\n", len(restored), filepath.Base(backupPath))
	fmt.Fprintln(ctx.Out, "  Queued notifications are unchanged.")
	return nil
}

// resolveBackupPath accepts an absolute path, a path relative to the working directory,
// or a file name inside the backup directory.
func resolveBackupPath(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}

	if _, err := os.Stat(name); err == nil {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return abs, nil
	}

	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
