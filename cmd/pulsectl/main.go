// Command pulsectl fetches the project sheet once and prints or exports the
// dashboard without starting the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
