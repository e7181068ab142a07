// Package server provides the HTTP server `redactor serve` exposes next to
// the scheduled job.
//
// The server carries no redaction traffic. It serves:
//   - /health: liveness
//   - /ready: readiness, backed by the registered health checks
//   - the metrics path (default /metrics), when metrics are enabled
//
// Every request passes through panic recovery and request logging.
//
// # Basic Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("storage", health.PingCheck(store))
//
//	srv := server.NewServer(&server.Config{
//	    ListenAddress:   cfg.Telemetry.Metrics.ListenAddress,
//	    MetricsPath:     cfg.Telemetry.Metrics.Path,
//	    ShutdownTimeout: 30 * time.Second,
//	}, checker, collector.Handler())
//
//	// Blocks until ctx is cancelled, then shuts down gracefully.
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
