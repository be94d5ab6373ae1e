// Command netscan discovers live hosts and open TCP ports.
package main

import "github.com/anstrom/netscan/cmd/cli"

// Set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
