package main

import (
	"os"

	"github.com/ironsheep/image-stipple-mcp/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.SetVersion(Version, GitCommit, BuildTime)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
