package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sonemaro/dtaprep/cmd/dtaprep/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
