// Package retention applies redaction policies retroactively by deleting
// event records.
//
// # Redaction Job
//
// A Job walks every user and every data type in time or location mode,
// evaluates the policy up to now and deletes, interval by interval, the
// matching event records:
//
//	subject.email = email AND datumType = UPPER(dataType)
//	AND startTS < timestamp < endTS AND timestamp >= applyTS
//
// The job is idempotent: a second run over the same data deletes nothing
// more. Deletions within one pair run in interval order; users may be
// processed in parallel with Config.Concurrency.
//
// # Basic Usage
//
//	eval := evaluator.New(store, evaluator.DefaultConfig())
//	job := retention.NewJob(store, store, eval, &retention.Config{
//	    Concurrency: 4,
//	    Schedule:    "12 2 * * *",
//	    Timezone:    "Asia/Seoul",
//	})
//
//	report, err := job.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("run %s deleted %d records", report.RunID, report.TotalDeleted)
//
// # Scheduling
//
// Scheduler triggers the job with robfig/cron in the configured timezone.
// Runs never overlap; Stop waits for a running job.
//
//	scheduler, err := retention.NewScheduler(job)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := scheduler.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer scheduler.Stop()
//
// # Dry Run
//
// With Config.DryRun the job counts the records it would delete and leaves
// the store untouched.
//
// # Observability
//
// WithMetrics attaches a Prometheus sink; WithTracer attaches an
// OpenTelemetry tracer that receives one "redaction.run" span per run and a
// child "redaction.pair" span per pair. Spans carry counts and data types,
// never emails.
package retention
