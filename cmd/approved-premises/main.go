package main

import (
	"os"

	"github.com/terra-clan/approved-premises/cmd/approved-premises/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
