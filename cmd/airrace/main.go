// Command airrace flies gesture-controlled air races headlessly and manages
// their recordings.
package main

import (
	"os"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

const appName = "airrace"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
