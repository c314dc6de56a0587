// Package config holds the benchmark configuration for poolbench.
//
// A BenchConfig is organized into sections:
//   - Variants and Scenarios: the matrix to run
//   - Workload: iterations, workers, rounds, payload size, timeout
//   - Report: where the JSON report is written
//   - Observability: log level and encoding, metrics address, tracing
//
// Configurations are plain YAML. ${VAR} references are replaced with
// environment values before parsing:
//
//	name: nightly
//	variants: [mutex, linear]
//	workload:
//	  iterations: ${POOLBENCH_ITERATIONS}
//	  workers: 8
//
// Load the file over the defaults with LoadBenchConfig:
//
//	cfg, err := config.LoadBenchConfig("bench.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
