package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/internal/bench"
	"github.com/ajitpratap0/lockfreepool/pkg/config"
	"github.com/ajitpratap0/lockfreepool/pkg/logger"
	"github.com/ajitpratap0/lockfreepool/pkg/observability"
)

var version = "0.1.0"

const envPrefix = "POOLBENCH"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "poolbench",
		Short: "poolbench - compare concurrent object pool strategies",
		Long: `poolbench times the none, mutex, spinlock and linear object pools against each
other in single and multi-goroutine pull/release scenarios and writes a JSON report.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poolbench v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pool variants and scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Variants:")
			for _, v := range bench.Variants() {
				d, err := bench.DescribeVariant(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-10s %s\n", v, d)
			}
			fmt.Fprintln(w, "\nScenarios:")
			for _, s := range bench.Scenarios() {
				d, err := bench.DescribeScenario(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-10s %s\n", s, d)
			}
			return nil
		},
	})

	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	v := viper.New()
	defaults := config.Default()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark matrix",
		Long: `Run every selected scenario for every selected pool variant.

Settings come from, in increasing priority: built-in defaults, the YAML file
given with --config, POOLBENCH_* environment variables and flags.

Example:
  poolbench run --variants mutex,linear --scenarios alloc-mt --workers 8 --pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cfg, cmd.OutOrStdout())
		},
	}

	f := runCmd.Flags()
	f.String("config", "", "Path to a YAML benchmark configuration")
	f.String("name", defaults.Name, "Run name used in logs, traces and the report")
	f.StringSlice("variants", defaults.Variants, "Pool variants to compare")
	f.StringSlice("scenarios", defaults.Scenarios, "Scenarios to run")
	f.Int("iterations", defaults.Workload.Iterations, "Values pulled per worker per round")
	f.Int("workers", defaults.Workload.Workers, "Goroutines in the multi-goroutine scenarios")
	f.Int("rounds", defaults.Workload.Rounds, "Rounds per scenario, each on a fresh pool")
	f.Int("payload-bytes", defaults.Workload.PayloadBytes, "Capacity of each pooled byte slice")
	f.Duration("timeout", defaults.Workload.Timeout, "Bound on the whole run (0 = none)")
	f.String("report", defaults.Report.Path, `Report file, "-" for stdout`)
	f.Bool("pretty", defaults.Report.Pretty, "Indent the JSON report")
	f.String("log-level", defaults.Observability.LogLevel, "Log level (debug, info, warn, error)")
	f.String("log-encoding", defaults.Observability.LogEncoding, "Log encoding (json, console)")
	f.String("metrics-addr", defaults.Observability.MetricsAddr, "Serve Prometheus metrics on this address while running")
	f.Bool("trace", defaults.Observability.EnableTracing, "Export a span per scenario to stderr")
	f.Float64("trace-sample-rate", defaults.Observability.TracingSampleRate, "Fraction of scenario spans to sample")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)

	return runCmd
}

// resolveConfig layers the config file, environment and flags over the
// defaults. Only flags that were set and variables that exist override.
func resolveConfig(v *viper.Viper) (*config.BenchConfig, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadBenchConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v.IsSet("name") {
		cfg.Name = v.GetString("name")
	}
	if v.IsSet("variants") {
		cfg.Variants = splitList(v.GetStringSlice("variants"))
	}
	if v.IsSet("scenarios") {
		cfg.Scenarios = splitList(v.GetStringSlice("scenarios"))
	}
	if v.IsSet("iterations") {
		cfg.Workload.Iterations = v.GetInt("iterations")
	}
	if v.IsSet("workers") {
		cfg.Workload.Workers = v.GetInt("workers")
	}
	if v.IsSet("rounds") {
		cfg.Workload.Rounds = v.GetInt("rounds")
	}
	if v.IsSet("payload-bytes") {
		cfg.Workload.PayloadBytes = v.GetInt("payload-bytes")
	}
	if v.IsSet("timeout") {
		cfg.Workload.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("report") {
		cfg.Report.Path = v.GetString("report")
	}
	if v.IsSet("pretty") {
		cfg.Report.Pretty = v.GetBool("pretty")
	}
	if v.IsSet("log-level") {
		cfg.Observability.LogLevel = v.GetString("log-level")
	}
	if v.IsSet("log-encoding") {
		cfg.Observability.LogEncoding = v.GetString("log-encoding")
	}
	if v.IsSet("metrics-addr") {
		cfg.Observability.MetricsAddr = v.GetString("metrics-addr")
	}
	if v.IsSet("trace") {
		cfg.Observability.EnableTracing = v.GetBool("trace")
	}
	if v.IsSet("trace-sample-rate") {
		cfg.Observability.TracingSampleRate = v.GetFloat64("trace-sample-rate")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both repeated values and a single comma separated
// environment value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// runBench executes a configured run and writes its report.
func runBench(ctx context.Context, cfg *config.BenchConfig, out io.Writer) error {
	logCfg := cfg.Observability.LoggerConfig()
	logCfg.OutputPaths = []string{"stderr"}
	if err := logger.Init(logCfg); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(zap.String("component", "poolbench"))

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.EnableTracing
	tracing.ServiceVersion = version
	tracing.SamplingRate = cfg.Observability.TracingSampleRate
	shutdownTracing, err := observability.InitTracing(tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	opts := []bench.Option{bench.WithLogger(log)}
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv, bm, pools, err := startMetricsServer(addr, log)
		if err != nil {
			return err
		}
		defer srv.stop(log)
		opts = append(opts, bench.WithMetrics(bm, pools))
	}

	runner, err := bench.NewRunner(cfg, opts...)
	if err != nil {
		return err
	}

	report, runErr := runner.RunAll(ctx)
	if report != nil && len(report.Results) > 0 {
		if err := writeReport(report, cfg.Report, out); err != nil {
			return err
		}
	}
	return runErr
}

func writeReport(report *bench.Report, rc config.ReportConfig, out io.Writer) error {
	if rc.Path == "" || rc.Path == "-" {
		return report.WriteJSON(out, rc.Pretty)
	}
	return report.WriteFile(rc.Path, rc.Pretty)
}

