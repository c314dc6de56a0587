package config

import (
	"runtime"
	"time"

	"github.com/ajitpratap0/lockfreepool/pkg/errors"
	"github.com/ajitpratap0/lockfreepool/pkg/logger"
)

// BenchConfig describes one benchmark run: which pools to compare, which
// scenarios to time and how hard to push them.
type BenchConfig struct {
	// Name labels the run in logs, traces and the report
	Name string `yaml:"name" json:"name"`

	// Variants lists the pool strategies to compare (none, mutex, spinlock, linear)
	Variants []string `yaml:"variants" json:"variants"`
	// Scenarios lists the timed workloads (alloc, free, alloc-mt, free-mt)
	Scenarios []string `yaml:"scenarios" json:"scenarios"`

	// Workload settings shared by every scenario
	Workload WorkloadConfig `yaml:"workload" json:"workload"`

	// Report controls where the JSON report goes
	Report ReportConfig `yaml:"report" json:"report"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// WorkloadConfig sizes a scenario.
type WorkloadConfig struct {
	// Iterations is the number of values each worker pulls per round
	Iterations int `yaml:"iterations" json:"iterations"`
	// Workers is the goroutine count of the multi-goroutine scenarios
	Workers int `yaml:"workers" json:"workers"`
	// Rounds repeats every scenario; results are summed over rounds
	Rounds int `yaml:"rounds" json:"rounds"`
	// PayloadBytes is the capacity of each pooled byte slice
	PayloadBytes int `yaml:"payload_bytes" json:"payload_bytes"`
	// Timeout bounds the whole run, zero means no limit
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ReportConfig controls the JSON report.
type ReportConfig struct {
	// Path of the report file, "-" or empty writes to stdout
	Path string `yaml:"path" json:"path"`
	// Pretty indents the JSON
	Pretty bool `yaml:"pretty" json:"pretty"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	Development bool   `yaml:"development" json:"development"`

	// MetricsAddr serves /metrics while the run is in progress when set
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`

	EnableTracing     bool    `yaml:"enable_tracing" json:"enable_tracing"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// Default returns the configuration used when no file is given. It times
// every variant in every scenario with the workload of the reference
// benchmarks: five workers pulling 16 KiB buffers.
func Default() *BenchConfig {
	return &BenchConfig{
		Name:      "poolbench",
		Variants:  []string{"none", "mutex", "spinlock", "linear"},
		Scenarios: []string{"alloc", "free", "alloc-mt", "free-mt"},
		Workload: WorkloadConfig{
			Iterations:   10000,
			Workers:      5,
			Rounds:       5,
			PayloadBytes: 16 * 1024,
		},
		Report: ReportConfig{
			Path: "-",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "console",
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks that the configuration can drive a run. Names of variants
// and scenarios are checked by the harness, which owns them.
func (c *BenchConfig) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeValidation, "name is required")
	}
	if len(c.Variants) == 0 {
		return errors.New(errors.ErrorTypeValidation, "at least one variant is required")
	}
	if len(c.Scenarios) == 0 {
		return errors.New(errors.ErrorTypeValidation, "at least one scenario is required")
	}
	if c.Workload.Iterations <= 0 {
		return errors.New(errors.ErrorTypeValidation, "iterations must be positive").
			WithDetail("iterations", c.Workload.Iterations)
	}
	if c.Workload.Workers <= 0 {
		return errors.New(errors.ErrorTypeValidation, "workers must be positive").
			WithDetail("workers", c.Workload.Workers)
	}
	if c.Workload.Rounds <= 0 {
		return errors.New(errors.ErrorTypeValidation, "rounds must be positive").
			WithDetail("rounds", c.Workload.Rounds)
	}
	if c.Workload.PayloadBytes < 0 {
		return errors.New(errors.ErrorTypeValidation, "payload_bytes cannot be negative")
	}
	if c.Workload.Timeout < 0 {
		return errors.New(errors.ErrorTypeValidation, "timeout cannot be negative")
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.New(errors.ErrorTypeValidation, "tracing_sample_rate must be within [0, 1]").
			WithDetail("tracing_sample_rate", r)
	}
	return nil
}

// GetWorkers returns the number of workers, falling back to the CPU count
func (w *WorkloadConfig) GetWorkers() int {
	if w.Workers <= 0 {
		return runtime.NumCPU()
	}
	return w.Workers
}

// LoggerConfig maps the observability settings onto the logger package.
func (o *ObservabilityConfig) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	if o.LogLevel != "" {
		cfg.Level = o.LogLevel
	}
	if o.LogEncoding != "" {
		cfg.Encoding = o.LogEncoding
	}
	cfg.Development = o.Development
	return cfg
}

// LoadBenchConfig reads a YAML file over the defaults and validates the
// result. Keys missing from the file keep their default values.
func LoadBenchConfig(path string) (*BenchConfig, error) {
	cfg := Default()
	if err := Load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration").
			WithDetail("path", path)
	}
	return cfg, nil
}
