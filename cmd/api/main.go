package main

import (
	"os"

	"github.com/baharkarakas/paystream/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
