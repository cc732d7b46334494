// Package job defines the read-only view of a print job that the policy
// evaluator inspects at the platform's decision point.
//
// A Snapshot is built once per submission event by the host platform. Jobs can
// reach the evaluator before page and cost analysis has finished; in that case
// only identity metadata (user, printer, submission time) is populated and
// AnalysisComplete is false. Fields documented as analysis-gated must not be
// interpreted until AnalysisComplete is true.
package job
