package cli

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/klauern/punto/internal/config"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version, build and environment information",
		Action: func(ctx context.Context, _ *cli.Command) error {
			fmt.Printf("punto version %s\n", Version)
			fmt.Printf("  commit: %s\n", Commit)
			fmt.Printf("  built: %s\n", BuildDate)
			fmt.Printf("  go: %s\n", runtime.Version())
			fmt.Printf("  mirror: %s\n", mirrorTool(settingsFrom(ctx).Mirror.Tool))
			fmt.Printf("  settings: %s\n", config.FilePath())
			return nil
		},
	}
}

// mirrorTool describes where the directory mirror tool resolves on PATH.
func mirrorTool(tool string) string {
	path, err := exec.LookPath(tool)
	if err != nil {
		return tool + " (not found)"
	}
	return tool + " (" + path + ")"
}
