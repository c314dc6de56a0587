package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lockfreepool/pkg/metrics"
)

type metricsServer struct {
	http *http.Server
	addr string
}

// startMetricsServer serves /metrics on addr from a dedicated registry
// holding the Go runtime, process, pool and harness metrics.
func startMetricsServer(addr string, log *zap.Logger) (*metricsServer, *metrics.BenchMetrics, *metrics.PoolCollector, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pools := metrics.NewPoolCollector("poolbench")
	reg.MustRegister(pools)
	bm := metrics.NewBenchMetrics(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &metricsServer{
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: ln.Addr().String(),
	}

	go func() {
		if err := srv.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", srv.addr))

	return srv, bm, pools, nil
}

func (s *metricsServer) stop(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", zap.Error(err))
	}
}
