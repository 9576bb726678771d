// SlabNest nests irregular parts into stock slabs or a strip and checks,
// renders and inspects the resulting layouts.
//
// Build:
//   go build -o slabnest ./cmd/slabnest
//
// Examples:
//   slabnest solve parts.csv --sheet 3000x1400 --stock 5 --svg out/ --pdf report.pdf
//   slabnest check instance.json solution.json
//   slabnest render instance.json solution.json --out svg/ --quadtree
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
