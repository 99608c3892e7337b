// Package main is the entry point for the chatxport CLI.
package main

import (
	"os"

	"github.com/jmylchreest/chatxport/cmd/chatxport/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
