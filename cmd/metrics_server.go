package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netsim-lab/uec-mp/sim/telemetry"
)

// startMetricsServer serves collector on addr at /metrics in the background.
func startMetricsServer(addr string, collector *telemetry.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server on %s: %v", addr, err)
		}
	}()
	logrus.Infof("Serving metrics on %s/metrics", addr)
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Warnf("metrics server shutdown: %v", err)
	}
}

// waitForInterrupt blocks until SIGINT/SIGTERM or ctx is done.
func waitForInterrupt(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logrus.Warn("Simulation finished; metrics stay available until interrupted")
	<-ctx.Done()
}
