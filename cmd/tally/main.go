package main

import (
	"os"

	"github.com/cleared-dev/tally/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
