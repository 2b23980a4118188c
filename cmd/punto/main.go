// Command punto mirrors dotfiles between a repository and the live system.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/klauern/punto/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
