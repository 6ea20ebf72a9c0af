// Command etl loads marketplace CSV exports into the star schema warehouse.
package main

import (
	"fmt"
	"os"

	"marketdw/internal/cli"

	// register all warehouse backends with the storage factory
	_ "marketdw/internal/storage/all"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
