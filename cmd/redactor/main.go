// Redactor applies privacyviz members' time and location redaction
// policies to the collected event log.
//
// It deletes redacted records retroactively on a daily schedule and serves
// filtered reads for records the job has not reached yet.
//
// Usage:
//
//	# Run the scheduler with metrics and health endpoints
//	redactor serve --config redactor.yaml
//
//	# Run one redaction pass now, without deleting
//	redactor run --dry-run
//
//	# Read one member's visible wifi records for a day
//	redactor query --email alice@example.com --type wifi --date 2023-05-01
//
//	# Load fixtures into the SQLite store
//	redactor import --users users.yaml --events events.jsonl
package main

import (
	"os"

	_ "time/tzdata"
)

func main() {
	os.Exit(Execute())
}
