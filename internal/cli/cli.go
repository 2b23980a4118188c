// Package cli provides the command-line interface for punto.
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/punto/internal/config"
	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "punto",
		Usage:   "Synchronize dotfiles between a repository and the live system",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger := configureLogging(cmd)
			settings, err := config.Load()
			if err != nil {
				return ctx, err
			}
			if err := configureColors(cmd, settings); err != nil {
				return ctx, err
			}
			ctx = logging.NewContext(ctx, logger)
			return withSettings(ctx, settings), nil
		},
		Commands: []*cli.Command{
			downloadCommand(),
			uploadCommand(),
			checkCommand(),
			installCommand(),
			shellCommand(),
			validateCommand(),
			backupsCommand(),
			versionCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output from the --no-color flag, falling
// back to the output.color setting.
func configureColors(cmd *cli.Command, settings *config.Settings) error {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return nil
	}
	return ui.ApplyColorMode(settings.Output.Color)
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) *slog.Logger {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return logger
}

type settingsKey struct{}

func withSettings(ctx context.Context, s *config.Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// settingsFrom returns the settings loaded in Before, or the defaults.
func settingsFrom(ctx context.Context) *config.Settings {
	if s, ok := ctx.Value(settingsKey{}).(*config.Settings); ok && s != nil {
		return s
	}
	return config.Default()
}
