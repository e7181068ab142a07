// Package health serves liveness and readiness probes for `redactor serve`.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("storage", health.PingCheck(store))
//	checker.RegisterCheck("scheduler", health.LastRunCheck(scheduler))
//	checker.Register(mux)
//
// /health always answers 200 while the process runs. /ready runs every
// registered check and answers 503 when one of them fails.
package health
