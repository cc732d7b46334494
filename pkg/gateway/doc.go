// Package gateway defines the capability set the policy evaluator uses to act
// on a print job, and ships two implementations of it.
//
// ActionGateway is implemented by the host platform: prompting the user,
// canceling the job, bypassing the origin release queue, redirecting to
// another printer, messaging the user and writing the application log.
// PromptConfirm is the only blocking operation; every other call is
// fire-and-forget from the evaluator's point of view.
//
// Recorder captures calls in order and answers prompts from a script. It backs
// the evaluator tests and dry runs. Console drives a terminal session for the
// jobhook CLI.
package gateway
