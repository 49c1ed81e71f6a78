// Command actornet runs graph actor networks described by scenario files.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
