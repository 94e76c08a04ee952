package main

import (
	"os"

	"labops/cmd/gids2pdf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
