package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/punto/internal/backup"
	"github.com/klauern/punto/internal/config"
	"github.com/klauern/punto/internal/ui"
)

func backupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "Manage snapshots taken before sync overwrote files",
		Description: `Snapshots are taken by download and upload when --backup is given or
   backup.enabled is set. Each one is a tar.gz of a single entry's destination.`,
		Commands: []*cli.Command{
			backupsListCommand(),
			backupsRestoreCommand(),
			backupsVerifyCommand(),
			backupsPruneCommand(),
			backupsStatsCommand(),
		},
	}
}

func backupsListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List snapshots, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Only list snapshots of this path",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Show at most this many snapshots (0 = all)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format: table, json, yaml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store := backupStore(settingsFrom(ctx))

			var (
				backups []backup.Metadata
				err     error
			)
			if source := cmd.String("source"); source != "" {
				backups, err = store.History(source)
			} else {
				backups, err = store.List()
			}
			if err != nil {
				return err
			}
			if limit := cmd.Int("limit"); limit > 0 && len(backups) > limit {
				backups = backups[:limit]
			}

			switch cmd.String("format") {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(backups); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			case "yaml":
				encoder := yaml.NewEncoder(os.Stdout)
				defer func() { _ = encoder.Close() }()
				if err := encoder.Encode(backups); err != nil {
					return fmt.Errorf("failed to encode YAML: %w", err)
				}
				return nil
			case "table":
				printBackupTable(backups)
				return nil
			default:
				return fmt.Errorf("unsupported format %q (use table, json or yaml)", cmd.String("format"))
			}
		},
	}
}

func printBackupTable(backups []backup.Metadata) {
	if len(backups) == 0 {
		fmt.Println(ui.StatusSkipped("No backups found"))
		return
	}
	for _, b := range backups {
		kind := "file"
		if b.Dir {
			kind = "dir"
		}
		fmt.Printf("%s  %s  %-4s %3d file(s) %9s  %s\n",
			ui.Bold(b.ID),
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			kind,
			b.Files,
			formatBytes(b.Size),
			b.SourcePath,
		)
	}
}

func backupsRestoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Unpack a snapshot onto its original path",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Restore somewhere other than the original path",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := backupArg(cmd)
			if err != nil {
				return err
			}
			metadata, err := backupStore(settingsFrom(ctx)).Restore(id, cmd.String("to"))
			if err != nil {
				return err
			}
			target := cmd.String("to")
			if target == "" {
				target = metadata.SourcePath
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Restored %s to %s", id, target)))
			return nil
		},
	}
}

func backupsVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check snapshot archives against their recorded hashes",
		ArgsUsage: "[id]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store := backupStore(settingsFrom(ctx))

			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				all, err := store.List()
				if err != nil {
					return err
				}
				for _, b := range all {
					ids = append(ids, b.ID)
				}
			}

			failed := 0
			for _, id := range ids {
				if err := store.Verify(id); err != nil {
					fmt.Println(ui.StatusError(err.Error()))
					failed++
					continue
				}
				fmt.Println(ui.StatusSuccess(id))
			}
			if failed > 0 {
				return fmt.Errorf("%d backup(s) failed verification", failed)
			}
			return nil
		},
	}
}

func backupsPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete old snapshots",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keep",
				Value: -1,
				Usage: "Snapshots to keep per path (default from settings)",
			},
			&cli.DurationFlag{
				Name:  "max-age",
				Value: -1,
				Usage: "Delete snapshots older than this (default from settings)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "List what would be deleted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings := settingsFrom(ctx)
			opts := pruneOptions(settings)
			if keep := cmd.Int("keep"); keep >= 0 {
				opts.MaxBackups = keep
			}
			if age := cmd.Duration("max-age"); age >= 0 {
				opts.MaxAge = age
			}
			opts.DryRun = cmd.Bool("dry-run")

			deleted, err := backupStore(settings).Prune(opts)
			if err != nil {
				return err
			}
			for _, id := range deleted {
				fmt.Println(ui.Dim(id))
			}
			if opts.DryRun {
				fmt.Println(ui.StatusWarning(fmt.Sprintf("Would delete %d backup(s)", len(deleted))))
				return nil
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Deleted %d backup(s)", len(deleted))))
			return nil
		},
	}
}

func backupsStatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize the backup store",
		Action: func(ctx context.Context, _ *cli.Command) error {
			store := backupStore(settingsFrom(ctx))
			stats, err := store.Stats()
			if err != nil {
				return err
			}

			fmt.Println(ui.Bold("Backups:"))
			fmt.Printf("  Location: %s\n", store.Dir())
			fmt.Printf("  Count:    %d (%d path(s))\n", stats.TotalBackups, stats.Sources)
			fmt.Printf("  Size:     %s\n", formatBytes(stats.TotalSize))
			if stats.TotalBackups == 0 {
				fmt.Println("  Newest:   None")
				return nil
			}
			fmt.Printf("  Newest:   %s (%s)\n",
				stats.NewestBackup.Format("2006-01-02 15:04:05"),
				formatDuration(time.Since(stats.NewestBackup)))
			fmt.Printf("  Oldest:   %s (%s)\n",
				stats.OldestBackup.Format("2006-01-02 15:04:05"),
				formatDuration(time.Since(stats.OldestBackup)))
			return nil
		},
	}
}

// backupStore opens the store named by the settings.
func backupStore(settings *config.Settings) *backup.Store {
	return backup.NewStore(settings.Backup.Location)
}

// pruneOptions converts the retention settings.
func pruneOptions(settings *config.Settings) backup.PruneOptions {
	opts := backup.DefaultPruneOptions()
	opts.MaxBackups = settings.Backup.MaxBackups
	opts.MaxAge = time.Duration(settings.Backup.RetentionDays) * 24 * time.Hour
	return opts
}

// backupArg returns the single snapshot ID argument.
func backupArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected one backup ID, got %d arguments", cmd.Args().Len())
	}
	return cmd.Args().First(), nil
}

// formatBytes formats byte count in human-readable format.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
