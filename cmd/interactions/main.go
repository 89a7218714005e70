// Command interactions runs the interaction hub: it loads a dataset of
// comments, likes and subscriptions into the in-memory store, prints reports
// over it and publishes the derived projections to Redis and PostgreSQL.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}
