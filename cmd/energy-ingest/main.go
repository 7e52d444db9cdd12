// Command energy-ingest lands weather and electricity time-series data in
// the bronze layer of an S3 bucket and compacts hourly objects into daily
// ones.
package main

import (
	"fmt"
	"os"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
