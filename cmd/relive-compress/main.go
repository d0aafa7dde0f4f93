// Command relive-compress re-encodes new game captures in place and keeps
// their original timestamps.
package main

import (
	"os"

	"github.com/kyleseven/ReLive-Compress/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "1.0.0-dev"

func main() {
	os.Exit(cli.Execute(version))
}
