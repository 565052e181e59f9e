package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-slicer-settings/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
