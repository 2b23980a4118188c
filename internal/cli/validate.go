package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/punto/internal/security"
	"github.com/klauern/punto/internal/sync"
	"github.com/klauern/punto/internal/ui"
	"github.com/klauern/punto/internal/validation"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a sync config against the filesystem without copying",
		ArgsUsage: "<config>",
		Description: `Report every problem a download would hit instead of stopping at the first:
   missing sources, sync_type mismatches and entries sharing a destination.
   Nested destinations and ignore_files on file entries are warnings.
   With --reverse, check the upload direction. With --secrets, also scan every
   source file for credentials; run it with --reverse before an upload.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "reverse",
				Usage: "Validate the upload direction",
			},
			&cli.BoolFlag{
				Name:  "secrets",
				Usage: "Scan source files for credentials",
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

			result := validation.Descriptor(desc, dir, nil)
			if cmd.Bool("secrets") {
				scan, err := security.NewScanner(nil, nil).ScanDescriptor(desc, dir)
				if err != nil {
					return err
				}
				result.Merge(scan)
			}
			for _, w := range result.Warnings {
				fmt.Println(ui.StatusWarning(w))
			}
			for _, e := range result.Errors {
				fmt.Println(ui.StatusError(e.Error()))
			}

			if result.HasErrors() {
				return fmt.Errorf("%s", result.Summary())
			}
			fmt.Println(ui.StatusSuccess(result.Summary()))
			return nil
		},
	}
}
