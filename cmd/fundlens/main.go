package main

import (
	"os"

	"github.com/wonny/fundlens/cmd/fundlens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
