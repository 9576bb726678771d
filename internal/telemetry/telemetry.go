// Package telemetry installs the OpenTelemetry providers behind the engine's
// spans and meters and writes the collected metrics out.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrNilContext is returned by Init when ctx is nil.
var ErrNilContext = errors.New("telemetry: nil context")

// Options selects what Init installs.
type Options struct {
	// ServiceName identifies the process in the resource attributes.
	ServiceName string
	// ServiceVersion is recorded next to the service name.
	ServiceVersion string
	// TraceWriter receives finished spans as JSON. Nil leaves tracing off.
	TraceWriter io.Writer
}

// DefaultOptions returns options with the service identity filled in and
// tracing off.
func DefaultOptions() Options {
	return Options{ServiceName: "slabnest", ServiceVersion: "dev"}
}

var (
	meterOnce sync.Once
	meterErr  error
)

// Init installs a meter provider that feeds the otel instruments into the
// default Prometheus registry and, when opts.TraceWriter is set, a tracer
// provider that writes spans to it.
//
// The meter provider lives for the rest of the process; repeated calls reuse
// it. The returned shutdown flushes and stops the tracer provider and must be
// called before the trace writer is closed.
func Init(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultOptions().ServiceName
	}

	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	)

	meterOnce.Do(func() {
		// registers with the default prometheus registry
		exporter, err := promexporter.New()
		if err != nil {
			meterErr = fmt.Errorf("create prometheus exporter: %w", err)
			return
		}
		otel.SetMeterProvider(sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		))
	})
	if meterErr != nil {
		return nil, fmt.Errorf("init meter: %w", meterErr)
	}

	if opts.TraceWriter != nil {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.TraceWriter))
		if err != nil {
			return nil, fmt.Errorf("init tracer: create exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	return shutdown, nil
}

// WriteMetrics writes every metric of the default Prometheus registry to
// path in the text exposition format.
func WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
