package main

import (
	"fmt"
	"os"

	"github.com/chrisrossi/dumpling/internal/cli"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := cli.NewRootCommand(Version, Commit).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
