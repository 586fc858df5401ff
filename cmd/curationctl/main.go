package main

import (
	"os"

	"ProductCurator/internal/cli/commands"
	"ProductCurator/internal/cli/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
