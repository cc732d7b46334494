// jobhook evaluates print-job submission policies.
//
// A print-management platform pauses each submitted job and hands jobhook the
// job's metadata. Color jobs must be confirmed by the user; large jobs are
// redirected to a high-volume printer. Every decision is recorded as evidence.
//
// Usage:
//
//	# Evaluate one job interactively
//	jobhook evaluate --printer "Front Office" --color --pages 4 --cost 1.20
//
//	# Replay recorded submissions with scripted prompt answers
//	jobhook replay jobs.jsonl --config jobhook.yaml
//
//	# Validate a configuration file
//	jobhook validate --config jobhook.yaml
//
//	# Inspect recorded decisions
//	jobhook evidence query --disposition canceled
package main

func main() {
	Execute()
}
