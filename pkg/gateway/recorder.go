package gateway

import (
	"context"
	"sync"
)

// Call is one recorded gateway invocation.
type Call struct {
	Op       Operation
	Text     string // prompt message, user message or log line
	Target   string // redirect target
	Prompt   PromptOptions
	Redirect RedirectOptions
}

// Recorder is an ActionGateway that records every call in order and answers
// prompts with a scripted response. Failures can be injected per operation;
// a failing call is still recorded.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	response  PromptResponse
	failures  map[Operation]error
	responses []PromptResponse
}

// NewRecorder creates a recorder that answers every prompt with response.
func NewRecorder(response PromptResponse) *Recorder {
	return &Recorder{
		response: response,
		failures: make(map[Operation]error),
	}
}

// FailOn makes every call to op return err.
func (r *Recorder) FailOn(op Operation, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = err
	return r
}

// QueueResponses scripts the next prompt answers. Once the queue is drained
// the recorder falls back to its default response.
func (r *Recorder) QueueResponses(responses ...PromptResponse) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, responses...)
	return r
}

// PromptConfirm records the prompt and returns the scripted response.
func (r *Recorder) PromptConfirm(ctx context.Context, message string, opts PromptOptions) (PromptResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Op: OpPromptConfirm, Text: message, Prompt: opts})
	if err := r.failures[OpPromptConfirm]; err != nil {
		return "", err
	}

	if len(r.responses) > 0 {
		resp := r.responses[0]
		r.responses = r.responses[1:]
		return resp, nil
	}
	return r.response, nil
}

// CancelJob records a cancellation.
func (r *Recorder) CancelJob(ctx context.Context) error {
	return r.record(Call{Op: OpCancelJob})
}

// BypassReleaseQueue records a release-queue bypass.
func (r *Recorder) BypassReleaseQueue(ctx context.Context) error {
	return r.record(Call{Op: OpBypassReleaseQueue})
}

// Redirect records a redirect.
func (r *Recorder) Redirect(ctx context.Context, targetPrinter string, opts RedirectOptions) error {
	return r.record(Call{Op: OpRedirect, Target: targetPrinter, Redirect: opts})
}

// SendMessage records a user message.
func (r *Recorder) SendMessage(ctx context.Context, text string) error {
	return r.record(Call{Op: OpSendMessage, Text: text})
}

// LogInfo records a log line.
func (r *Recorder) LogInfo(ctx context.Context, text string) error {
	return r.record(Call{Op: OpLogInfo, Text: text})
}

func (r *Recorder) record(call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.failures[call.Op]
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// Operations returns the recorded operation names in call order.
func (r *Recorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]Operation, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (r *Recorder) Count(op Operation) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls. Scripted responses and failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
