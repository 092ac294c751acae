// printstash - CLI client for a printstash 3D-printing asset server.
package main

import (
	"fmt"
	"os"

	"github.com/printstash/printstash/internal/cli"
	"github.com/printstash/printstash/internal/version"
)

// Version information, overridden at build time via -ldflags.
var (
	Version   = "v0.3.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
