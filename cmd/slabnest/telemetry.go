package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/piwi3910/SlabNest/internal/telemetry"
	"github.com/spf13/cobra"
)

// startTelemetry installs the metric and trace providers when --metrics-out
// or --trace-out is set. The returned finish flushes the spans and writes the
// metrics file.
func startTelemetry(cmd *cobra.Command) (finish func() error, err error) {
	if metricsOut == "" && traceOut == "" {
		return func() error { return nil }, nil
	}

	opts := telemetry.DefaultOptions()
	var traceFile *os.File
	if traceOut != "" {
		traceFile, err = os.Create(traceOut)
		if err != nil {
			return nil, fmt.Errorf("create trace file: %w", err)
		}
		opts.TraceWriter = traceFile
	}

	shutdown, err := telemetry.Init(cmd.Context(), opts)
	if err != nil {
		if traceFile != nil {
			traceFile.Close()
		}
		return nil, err
	}

	return func() error {
		errs := []error{shutdown(context.Background())}
		if traceFile != nil {
			errs = append(errs, traceFile.Close())
			fmt.Fprintf(cmd.OutOrStdout(), "Trace written to %s\n", traceOut)
		}
		if metricsOut != "" {
			err := telemetry.WriteMetrics(metricsOut)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Metrics written to %s\n", metricsOut)
			}
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}
