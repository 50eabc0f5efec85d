// sieve is a multi-pattern text filter.
// Single binary — scan, redact, and follow streams against compiled pattern lists.
package main

import (
	"os"

	"github.com/corey/sieve/cmd/sieve/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if code := cmd.ScanExitCode(err); code >= 0 {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
