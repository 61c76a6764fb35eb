// txpool-sim drives a layered transaction pool with synthetic traffic and a
// block builder, and reports how the pool behaved.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
