// Package bench times the pool variants against each other. Each scenario
// runs a number of rounds, each against a freshly built pool, and reports
// the cost per pull or release.
package bench

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/config"
	"github.com/ajitpratap0/lockfreepool/pkg/errors"
	"github.com/ajitpratap0/lockfreepool/pkg/logger"
	"github.com/ajitpratap0/lockfreepool/pkg/metrics"
	"github.com/ajitpratap0/lockfreepool/pkg/observability"
)

// Runner executes benchmark scenarios described by a BenchConfig.
type Runner struct {
	cfg     *config.BenchConfig
	logger  *zap.Logger
	metrics *metrics.BenchMetrics
	pools   *metrics.PoolCollector
	tracer  *observability.ScenarioTracer
	monitor *processMonitor
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger. The pools built during a run log
// through it too.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records round timings in bm and exposes the pool under test
// through pools. Either may be nil.
func WithMetrics(bm *metrics.BenchMetrics, pools *metrics.PoolCollector) Option {
	return func(r *Runner) {
		r.metrics = bm
		r.pools = pools
	}
}

// NewRunner validates cfg, including the variant and scenario names, and
// returns a runner for it.
func NewRunner(cfg *config.BenchConfig, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range cfg.Variants {
		if _, ok := variants[v]; !ok {
			return nil, unknown("variant", v, Variants())
		}
	}
	for _, s := range cfg.Scenarios {
		if _, ok := scenarios[s]; !ok {
			return nil, unknown("scenario", s, Scenarios())
		}
	}

	r := &Runner{
		cfg:    cfg,
		tracer: observability.NewScenarioTracer(cfg.Name),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r, nil
}

// Run times one variant in one scenario over the configured rounds.
func (r *Runner) Run(ctx context.Context, variant, scenario string) (Result, error) {
	spec, ok := scenarios[scenario]
	if !ok {
		return Result{}, unknown("scenario", scenario, Scenarios())
	}
	if _, ok := variants[variant]; !ok {
		return Result{}, unknown("variant", variant, Variants())
	}

	ctx = context.WithValue(ctx, logger.VariantKey, variant)
	ctx = context.WithValue(ctx, logger.ScenarioKey, scenario)

	var result Result
	err := r.tracer.Trace(ctx, variant, scenario, func(ctx context.Context, span *observability.Span) error {
		var err error
		result, err = r.run(ctx, variant, scenario, spec)
		span.SetAttribute("bench.ops", result.Ops)
		span.SetAttribute("bench.ns_per_op", result.NsPerOp)
		return err
	})
	return result, err
}

func (r *Runner) run(ctx context.Context, variant, scenario string, spec scenarioSpec) (Result, error) {
	w := r.cfg.Workload
	workers := 1
	if spec.concurrent {
		workers = w.GetWorkers()
	}
	log := r.log(ctx)

	result := Result{
		Variant:  variant,
		Scenario: scenario,
		Workers:  workers,
	}
	perRound := metrics.NewLatencyTracker(w.Rounds)

	for round := 0; round < w.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			if r.metrics != nil {
				r.metrics.ObserveFailure(variant, scenario)
			}
			return result, errors.FromContext(err, "benchmark interrupted").
				WithDetail("variant", variant).
				WithDetail("scenario", scenario).
				WithDetail("round", round)
		}

		s, err := buildSubject(variant, w.PayloadBytes, r.logger)
		if err != nil {
			return result, err
		}
		if r.pools != nil {
			r.pools.Track(s.stats)
		}

		ops, elapsed := spec.run(s, w.Iterations, workers)

		result.Rounds++
		result.Ops += ops
		result.Duration += elapsed
		perRound.Record(time.Duration(nsPerOp(elapsed, ops)))

		stats := s.stats.Stats()
		result.Allocated = stats.Allocated
		result.Pages = stats.Pages

		if r.metrics != nil {
			r.metrics.ObserveRound(variant, scenario, ops, elapsed)
		}
		if ce := log.Check(zap.DebugLevel, "round complete"); ce != nil {
			ce.Write(
				zap.Int("round", round),
				zap.Int("ops", ops),
				zap.Duration("elapsed", elapsed),
				zap.Uint64("allocated", stats.Allocated),
			)
		}
	}

	result.NsPerOp = nsPerOp(result.Duration, result.Ops)
	result.BestNsPerOp = float64(perRound.GetPercentile(0))
	result.MedianNsPerOp = float64(perRound.GetPercentile(50))
	if r.monitor != nil {
		result.RSSBytes = r.monitor.rss(ctx)
	}

	log.Info("scenario complete",
		zap.Int("rounds", result.Rounds),
		zap.Int("ops", result.Ops),
		zap.Float64("ns_per_op", result.NsPerOp),
		zap.Float64("median_ns_per_op", result.MedianNsPerOp))

	return result, nil
}

// RunAll runs every configured scenario for every configured variant and
// collects the results. The workload timeout, if any, bounds the whole run.
// On error the partial report is returned with it.
func (r *Runner) RunAll(ctx context.Context) (*Report, error) {
	if timeout := r.cfg.Workload.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	runID := fmt.Sprintf("%s-%d", r.cfg.Name, started.UnixNano())
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)

	r.monitor = newProcessMonitor(ctx)
	report := &Report{
		Name:      r.cfg.Name,
		RunID:     runID,
		StartedAt: started,
		Host:      CollectHostInfo(ctx, r.logger),
		Workload:  r.cfg.Workload,
	}

	r.log(ctx).Info("benchmark started",
		zap.Strings("variants", r.cfg.Variants),
		zap.Strings("scenarios", r.cfg.Scenarios),
		zap.Int("iterations", r.cfg.Workload.Iterations),
		zap.Int("workers", r.cfg.Workload.GetWorkers()))

	for _, scenario := range r.cfg.Scenarios {
		for _, variant := range r.cfg.Variants {
			res, err := r.Run(ctx, variant, scenario)
			if err != nil {
				report.Duration = time.Since(started)
				return report, err
			}
			report.Results = append(report.Results, res)
		}
	}

	report.Duration = time.Since(started)
	r.log(ctx).Info("benchmark finished", zap.Duration("duration", report.Duration))
	return report, nil
}

// log returns the runner's logger tagged with the run, variant and scenario
// in ctx and with the active span.
func (r *Runner) log(ctx context.Context) *zap.Logger {
	l := r.logger.With(logger.ContextFields(ctx)...)
	return observability.LoggerWithTrace(ctx, l)
}

func nsPerOp(d time.Duration, ops int) float64 {
	if ops == 0 {
		return 0
	}
	return float64(d.Nanoseconds()) / float64(ops)
}
