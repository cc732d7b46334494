package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultPromptTimeout is how long Console waits for an answer.
const DefaultPromptTimeout = 60 * time.Second

var (
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)
	markupPattern    = regexp.MustCompile(`<[^>]+>`)
)

// Console is an ActionGateway that talks to a user on a terminal.
//
// Answers are read from a single background reader shared by all prompts, so
// a prompt that timed out does not swallow the next answer.
type Console struct {
	out     io.Writer
	logger  *slog.Logger
	timeout time.Duration

	in        *bufio.Scanner
	startOnce sync.Once
	lines     chan string

	mu  sync.Mutex
	job ConsoleOutcome
}

// ConsoleOutcome summarises what the console gateway did to the job.
type ConsoleOutcome struct {
	Canceled       bool
	Bypassed       bool
	RedirectTarget string
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPromptTimeout overrides DefaultPromptTimeout. A non-positive value
// disables the timeout.
func WithPromptTimeout(d time.Duration) ConsoleOption {
	return func(c *Console) { c.timeout = d }
}

// WithConsoleLogger sets the logger that receives LogInfo lines.
func WithConsoleLogger(logger *slog.Logger) ConsoleOption {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConsole creates a console gateway reading answers from in and writing
// prompts and messages to out.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		out:     out,
		logger:  slog.Default(),
		timeout: DefaultPromptTimeout,
		in:      bufio.NewScanner(in),
		lines:   make(chan string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) readLines() {
	defer close(c.lines)
	for c.in.Scan() {
		c.lines <- c.in.Text()
	}
}

// PromptConfirm prints the dialog and waits for a yes/no answer. Anything other
// than y/yes is a Cancel; end of input and an elapsed timeout are a Timeout.
func (c *Console) PromptConfirm(ctx context.Context, message string, opts PromptOptions) (PromptResponse, error) {
	c.startOnce.Do(func() { go c.readLines() })

	if opts.Title != "" {
		fmt.Fprintf(c.out, "== %s ==\n", opts.Title)
	}
	if opts.Description != "" {
		fmt.Fprintln(c.out, opts.Description)
	}
	fmt.Fprintln(c.out, PlainText(message))
	fmt.Fprint(c.out, "Print this job? [y/N]: ")

	var deadline <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case line, ok := <-c.lines:
		fmt.Fprintln(c.out)
		if !ok {
			return Timeout, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return Confirm, nil
		default:
			return Cancel, nil
		}
	case <-deadline:
		fmt.Fprintln(c.out, "\nNo answer, prompt timed out.")
		return Timeout, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CancelJob reports the cancellation.
func (c *Console) CancelJob(ctx context.Context) error {
	c.mu.Lock()
	c.job.Canceled = true
	c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, "Job canceled.")
	return err
}

// BypassReleaseQueue reports the bypass.
func (c *Console) BypassReleaseQueue(ctx context.Context) error {
	c.mu.Lock()
	c.job.Bypassed = true
	c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, "Release queue bypassed.")
	return err
}

// Redirect reports the new target printer.
func (c *Console) Redirect(ctx context.Context, targetPrinter string, opts RedirectOptions) error {
	c.mu.Lock()
	c.job.RedirectTarget = targetPrinter
	c.mu.Unlock()
	hold := ""
	if opts.AllowHoldAtTarget {
		hold = " (hold at target allowed)"
	}
	_, err := fmt.Fprintf(c.out, "Job redirected to %s%s.\n", targetPrinter, hold)
	return err
}

// SendMessage prints the message as plain text.
func (c *Console) SendMessage(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "Message: %s\n", PlainText(text))
	return err
}

// LogInfo writes the line to the console logger.
func (c *Console) LogInfo(ctx context.Context, text string) error {
	c.logger.InfoContext(ctx, text, "component", "gateway.console")
	return nil
}

// Outcome returns what has been done to the job so far.
func (c *Console) Outcome() ConsoleOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// PlainText strips the small HTML subset used in prompt messages.
func PlainText(s string) string {
	s = lineBreakPattern.ReplaceAllString(s, "\n")
	s = markupPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
