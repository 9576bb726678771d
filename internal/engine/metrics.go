package engine

import (
	"context"
	"sync"

	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var meter = otel.Meter("slabnest.engine")

// tracer is looked up per span so that a provider installed after package
// init, or replaced between runs, receives the spans.
func tracer() trace.Tracer { return otel.Tracer("slabnest.engine") }

var (
	// collisionQueries counts layout collision queries by how they were settled
	collisionQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slabnest_collision_queries_total",
		Help: "Collision queries by resolution (surrogate_reject, exact_reject, clear)",
	}, []string{"result"})

	// itemsPlaced counts placed item copies
	itemsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slabnest_items_placed_total",
		Help: "Total item copies placed",
	})

	// itemsUnplaced counts item copies that did not fit
	itemsUnplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slabnest_items_unplaced_total",
		Help: "Total item copies left unplaced",
	})

	// solveDuration tracks solve latency
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slabnest_solve_duration_seconds",
		Help:    "Solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
	}, []string{"algorithm"})
)

var (
	solveLatency metric.Float64Histogram
	solveTotal   metric.Int64Counter
	solveDensity metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the otel instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		solveLatency, err = meter.Float64Histogram(
			"slabnest_solve_latency_seconds",
			metric.WithDescription("Duration of solve runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solveTotal, err = meter.Int64Counter(
			"slabnest_solve_total",
			metric.WithDescription("Total number of solve runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solveDensity, err = meter.Float64Histogram(
			"slabnest_solve_density",
			metric.WithDescription("Density of returned solutions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startSolveSpan creates a span for a solve run.
func startSolveSpan(ctx context.Context, in *model.Instance, algorithm model.Algorithm) (context.Context, trace.Span) {
	return tracer().Start(ctx, "Optimizer.Solve",
		trace.WithAttributes(
			attribute.String("slabnest.instance", in.Name),
			attribute.String("slabnest.algorithm", string(algorithm)),
			attribute.Int("slabnest.items", len(in.Items)),
			attribute.Int("slabnest.copies", in.TotalDemand()),
		),
	)
}

// recordSolve sets span attributes and records metrics for a finished run.
func recordSolve(ctx context.Context, span trace.Span, sol *model.Solution, algorithm model.Algorithm) {
	q := sol.Queries
	span.SetAttributes(
		attribute.Int("slabnest.layouts", len(sol.Layouts)),
		attribute.Int("slabnest.placed", sol.PlacedCount()),
		attribute.Int("slabnest.unplaced", sol.UnplacedCount()),
		attribute.Float64("slabnest.density", sol.Density),
		attribute.Int64("slabnest.queries", q.Queries),
	)

	collisionQueries.WithLabelValues("surrogate_reject").Add(float64(q.SurrogateRejects))
	collisionQueries.WithLabelValues("exact_reject").Add(float64(q.ExactRejects))
	collisionQueries.WithLabelValues("clear").Add(float64(q.ExactChecks - q.ExactRejects))
	itemsPlaced.Add(float64(sol.PlacedCount()))
	itemsUnplaced.Add(float64(sol.UnplacedCount()))
	solveDuration.WithLabelValues(string(algorithm)).Observe(sol.Runtime.Seconds())

	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("algorithm", string(algorithm)),
		attribute.Bool("success", true),
	)
	solveLatency.Record(ctx, sol.Runtime.Seconds(), attrs)
	solveTotal.Add(ctx, 1, attrs)
	solveDensity.Record(ctx, sol.Density, metric.WithAttributes(attribute.String("algorithm", string(algorithm))))
}

// recordSolveError marks the span failed and counts the run.
func recordSolveError(ctx context.Context, span trace.Span, algorithm model.Algorithm, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if initMetrics() != nil {
		return
	}
	solveTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", string(algorithm)),
		attribute.Bool("success", false),
	))
}
