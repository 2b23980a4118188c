package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/punto/internal/backup"
	"github.com/klauern/punto/internal/config"
	"github.com/klauern/punto/internal/install"
	"github.com/klauern/punto/internal/mirror"
	"github.com/klauern/punto/internal/progress"
	"github.com/klauern/punto/internal/repo"
	"github.com/klauern/punto/internal/shell"
	"github.com/klauern/punto/internal/sync"
	"github.com/klauern/punto/internal/ui"
	"github.com/klauern/punto/internal/ui/tui"
)

// errMissingConfig is returned when a command is called without a file.
var errMissingConfig = errors.New("missing config file argument")

func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "Delete destination files that are missing from the source (dir entries only)",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"d"},
			Usage:   "Preview changes without modifying files",
		},
		&cli.BoolFlag{
			Name:  "backup",
			Usage: "Snapshot each existing destination before overwriting it",
		},
		&cli.BoolFlag{
			Name:  "skip-backup",
			Usage: "Take no snapshots even when backup.enabled is set",
		},
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Copy every entry from the repository to the system",
		ArgsUsage: "<config>",
		Description: `Mirror each entry of the config file from repo_base to system_base, in order.
   The first failing entry stops the run.

   Examples:
     punto download dotfiles.yaml
     punto download --dry-run dotfiles.toml
     punto download --backup dotfiles.yaml`,
		Flags: syncFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd, sync.Download)
		},
	}
}

func uploadCommand() *cli.Command {
	flags := append(syncFlags(), &cli.BoolFlag{
		Name:  "status",
		Usage: "Show uncommitted changes in the repository afterwards",
	})
	return &cli.Command{
		Name:      "upload",
		Usage:     "Copy every entry from the system back to the repository",
		ArgsUsage: "<config>",
		Description: `Mirror each entry of the config file from system_base to repo_base, in order.

   Examples:
     punto upload dotfiles.yaml
     punto upload --status dotfiles.yaml`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := runSync(ctx, cmd, sync.Upload); err != nil {
				return err
			}
			if !cmd.Bool("status") || cmd.Bool("dry-run") {
				return nil
			}
			desc, err := loadDescriptor(ctx, cmd)
			if err != nil {
				return err
			}
			return printRepoStatus(desc.RepoBase())
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "List system files that are not in the repository",
		ArgsUsage: "<config>",
		Description: `Report paths under each entry's system side that have no counterpart in the
   repository. Paths are printed relative to system_base. A download leaves
   these files in place. With --reverse, report repository paths missing from
   the system instead, relative to repo_base.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "reverse",
				Usage: "Compare in the upload direction",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			desc, err := loadDescriptor(ctx, cmd)
			if err != nil {
				return err
			}

			dir := sync.Download
			if cmd.Bool("reverse") {
				dir = dir.Reverse()
			}

			checker := sync.NewChecker(desc, nil)
			tracker := progress.Entries("Checking", desc.Len())
			var stale []string
			for _, e := range desc.Entries() {
				tracker.Start(e.String())
				found, err := checker.CheckEntry(e, dir)
				if err != nil {
					tracker.Finish()
					return err
				}
				stale = append(stale, found...)
				tracker.Done()
			}
			tracker.Finish()

			if len(stale) == 0 {
				fmt.Println(ui.StatusSuccess("No drift found"))
				return nil
			}
			for _, p := range stale {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install the packages listed in an installer file",
		ArgsUsage: "<installer>",
		Description: `Run each section's install command once per package. A failing package
   does not stop the others; failures are listed at the end.

   Examples:
     punto install packages.yaml
     punto install --section cargo packages.yaml
     punto install --pick packages.toml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "section",
				Aliases: []string{"s"},
				Usage:   "Install only the named section",
			},
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "Choose sections interactively",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := configArg(cmd)
			if err != nil {
				return err
			}
			sections, err := config.LoadInstallSections(path)
			if err != nil {
				return err
			}

			sections, err = chooseSections(cmd, sections)
			if err != nil || len(sections) == 0 {
				return err
			}

			fmt.Println(ui.Dim(fmt.Sprintf("Installing %d packages from %d sections",
				install.TotalPackages(sections), len(sections))))

			current := ""
			failures := install.InstallAll(ctx, nil, sections, func(section, pkg string, err error) {
				if section != current {
					current = section
					fmt.Println()
					fmt.Println(ui.Banner(ui.Title(section)))
				}
				if err != nil {
					fmt.Println(ui.StatusError(pkg))
					return
				}
				fmt.Println(ui.StatusSuccess(pkg))
			})

			return reportInstallFailures(failures)
		},
	}
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:      "shell",
		Usage:     "Run the command blocks of a shell file",
		ArgsUsage: "<shell-file>",
		Description: `Run each block's commands in order. The first failing command stops its
   block and every block after it.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := configArg(cmd)
			if err != nil {
				return err
			}
			blocks, err := config.LoadShellBlocks(path)
			if err != nil {
				return err
			}
			return shell.RunBlocks(ctx, nil, blocks, func(b *shell.Block) {
				fmt.Println(ui.Banner(ui.Title(b.Title())))
			})
		},
	}
}

// runSync loads the descriptor and runs it in one direction.
func runSync(ctx context.Context, cmd *cli.Command, dir sync.Direction) error {
	desc, err := loadDescriptor(ctx, cmd)
	if err != nil {
		return err
	}

	settings := settingsFrom(ctx)
	m := mirror.New(nil,
		mirror.WithTool(settings.Mirror.Tool),
		mirror.WithQuiet(settings.Mirror.Quiet),
	)
	opts := sync.Options{
		Delete: cmd.Bool("delete") || settings.Mirror.Delete,
		DryRun: cmd.Bool("dry-run"),
		OnEntry: func(ev sync.Event) {
			switch ev.Type {
			case sync.EventEntryStart:
				fmt.Println(ui.Counter(ev.Index+1, ev.Total), ui.Bold(ev.Entry.String()))
			case sync.EventEntryComplete:
				fmt.Println(ui.StatusSuccess(ev.From + " -> " + ev.To))
				if ev.BackupID != "" {
					fmt.Println(ui.Dim("  previous contents saved as " + ev.BackupID))
				}
			case sync.EventEntryFailed:
				fmt.Println(ui.StatusError(ev.From + " -> " + ev.To))
			}
		},
	}

	var store *backup.Store
	if backupEnabled(cmd, settings) {
		store = backupStore(settings)
		opts.Backup = store
	}

	syncer := sync.New(desc, m, opts)
	run := syncer.Download
	if dir == sync.Upload {
		run = syncer.Upload
	}
	result, err := run(ctx)
	if err != nil {
		return err
	}

	if result.DryRun {
		fmt.Println(ui.StatusWarning(fmt.Sprintf("Dry run - no changes made, %d entries previewed", len(result.Previewed()))))
	}
	fmt.Printf("Finished %s: %d entries, %d synced\n", dir, result.TotalProcessed(), len(result.Synced()))

	if store != nil && settings.Backup.CleanupOnSync && tookSnapshot(result) {
		deleted, err := store.Prune(pruneOptions(settings))
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.StatusWarning(fmt.Sprintf("backup cleanup failed: %v", err)))
		} else if len(deleted) > 0 {
			fmt.Printf("Cleaned up %d old backup(s)\n", len(deleted))
		}
	}
	return nil
}

// backupEnabled applies --backup and --skip-backup over backup.enabled.
// Dry runs never snapshot.
func backupEnabled(cmd *cli.Command, settings *config.Settings) bool {
	if cmd.Bool("dry-run") || cmd.Bool("skip-backup") {
		return false
	}
	return cmd.Bool("backup") || settings.Backup.Enabled
}

func tookSnapshot(result *sync.Result) bool {
	for _, er := range result.Entries {
		if er.BackupID != "" {
			return true
		}
	}
	return false
}

// loadDescriptor reads the descriptor named by the first argument.
func loadDescriptor(ctx context.Context, cmd *cli.Command) (*sync.Descriptor, error) {
	path, err := configArg(cmd)
	if err != nil {
		return nil, err
	}
	return config.LoadDescriptor(path, settingsFrom(ctx))
}

// configArg returns the single file argument.
func configArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%w: usage: punto %s %s", errMissingConfig, cmd.Name, cmd.ArgsUsage)
	}
	return cmd.Args().First(), nil
}

// chooseSections applies --section or --pick.
func chooseSections(cmd *cli.Command, sections []install.Section) ([]install.Section, error) {
	if name := cmd.String("section"); name != "" {
		s, err := install.Select(sections, name)
		if err != nil {
			return nil, err
		}
		return []install.Section{s}, nil
	}
	if !cmd.Bool("pick") {
		return sections, nil
	}

	items := make([]tui.SectionItem, 0, len(sections))
	for _, s := range sections {
		items = append(items, tui.SectionItem{Name: s.Name, Detail: strings.Join(s.Packages, ", ")})
	}
	result, err := tui.RunSectionPicker("Select sections to install", items)
	if err != nil {
		return nil, err
	}
	if result.Action != tui.SectionPickerActionSelect {
		fmt.Println(ui.StatusSkipped("Nothing selected"))
		return nil, nil
	}

	chosen := make([]install.Section, 0, len(result.Selected))
	for _, name := range result.Selected {
		s, err := install.Select(sections, name)
		if err != nil {
			return nil, err
		}
		chosen = append(chosen, s)
	}
	return chosen, nil
}

// reportInstallFailures prints failed packages and returns an error if any.
func reportInstallFailures(failures []install.Failed) error {
	if len(failures) == 0 {
		fmt.Println()
		fmt.Println(ui.StatusSuccess("All packages installed"))
		return nil
	}

	total := 0
	fmt.Fprintln(os.Stderr)
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, ui.StatusWarning(fmt.Sprintf("Some packages in section %s failed to install", f.Section)))
		for _, pkg := range f.Packages {
			fmt.Fprintf(os.Stderr, "  %s %s\n", ui.SymbolError, pkg)
		}
		total += len(f.Packages)
	}
	return fmt.Errorf("%d package(s) failed to install", total)
}

// printRepoStatus lists uncommitted changes under the repository base.
func printRepoStatus(path string) error {
	report, err := repo.Status(path)
	if err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			fmt.Println(ui.StatusSkipped("Repository base is not a git repository"))
			return nil
		}
		return err
	}

	if report.Clean() {
		fmt.Println(ui.StatusSuccess("Repository is clean"))
		return nil
	}
	fmt.Println(ui.Header("Uncommitted changes:"))
	for _, c := range report.Changes {
		fmt.Printf("  %s %s\n", c.Code(), c.Path)
	}
	return nil
}
