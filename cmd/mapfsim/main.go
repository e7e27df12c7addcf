// Command mapfsim runs cooperative-discrete-planner and local-reactive-
// controller trials from a YAML configuration file.
package main

import (
	"fmt"
	"os"

	"github.com/elektrokombinacija/mapf-reservation-sim/cmd/mapfsim/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
