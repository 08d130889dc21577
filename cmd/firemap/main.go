// Command firemap serves the fire-brigade incident feed and its live dashboard.
package main

import (
	"os"

	_ "time/tzdata" // feed.timezone must resolve on minimal images
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
