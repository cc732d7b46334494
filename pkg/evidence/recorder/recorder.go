package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/policy/engine"
)

// Outcomes reported to MetricsRecorder.
const (
	OutcomeStored  = "stored"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// Enabled enables evidence recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both waiting for buffer space and each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// HashUsernames stores "sha256:<hex>" instead of the username.
	// Default: false
	HashUsernames bool

	// MaxFieldLength truncates free-text fields (document name, errors).
	// Default: 500
	MaxFieldLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    1000,
		WriteTimeout:   5 * time.Second,
		MaxFieldLength: 500,
	}
}

// FromConfig builds a recorder configuration from the evidence section.
func FromConfig(cfg *config.EvidenceConfig) *Config {
	c := DefaultConfig()
	c.Enabled = cfg.Enabled
	if cfg.Recorder.AsyncBuffer > 0 {
		c.AsyncBuffer = cfg.Recorder.AsyncBuffer
	}
	if cfg.Recorder.WriteTimeout > 0 {
		c.WriteTimeout = cfg.Recorder.WriteTimeout
	}
	if cfg.Recorder.MaxFieldLength > 0 {
		c.MaxFieldLength = cfg.Recorder.MaxFieldLength
	}
	c.HashUsernames = cfg.Recorder.HashUsernames
	return c
}

// MetricsRecorder receives one outcome per recorded decision.
type MetricsRecorder interface {
	RecordEvidence(outcome string)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. The component field is added.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger.With("component", "evidence.recorder")
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Recorder) {
		if m != nil {
			r.metrics = m
		}
	}
}

// Recorder turns engine decisions into evidence records and writes them to
// storage on a background goroutine, off the evaluation path.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	recordChan chan *evidence.DecisionRecord
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
	metrics    MetricsRecorder

	mu     sync.RWMutex
	closed bool
}

// New creates a recorder and starts its worker. Close must be called to
// flush pending records.
func New(storage evidence.Storage, cfg *Config, opts ...Option) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *evidence.DecisionRecord, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "evidence.recorder"),
		metrics:    noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"enabled", cfg.Enabled,
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
		"hash_usernames", cfg.HashUsernames,
	)

	return r
}

// RecordDecision enqueues the decision and logs any failure. It satisfies
// engine.DecisionRecorder: it never waits on storage, and waits at most
// WriteTimeout for buffer space before dropping the record.
func (r *Recorder) RecordDecision(ctx context.Context, decision *engine.Decision) {
	if err := r.Record(ctx, decision); err != nil {
		r.logger.Warn("decision evidence not recorded",
			"evaluation_id", decision.EvaluationID,
			"error", err,
		)
	}
}

// Record enqueues the decision for async writing. It waits at most
// WriteTimeout for buffer space and never waits on storage.
func (r *Recorder) Record(ctx context.Context, decision *engine.Decision) error {
	if !r.config.Enabled || decision == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.metrics.RecordEvidence(OutcomeDropped)
		return evidence.NewRecorderError(decision.EvaluationID, evidence.ErrRecorderClosed)
	}

	record, err := r.BuildRecord(decision)
	if err != nil {
		r.metrics.RecordEvidence(OutcomeFailed)
		return evidence.NewRecorderError(decision.EvaluationID, err)
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		r.logger.Debug("evidence record enqueued",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
		)
		return nil
	case <-timer.C:
		r.logger.Error("evidence record channel full, dropping record",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		r.metrics.RecordEvidence(OutcomeDropped)
		return evidence.NewRecorderError(record.EvaluationID, evidence.ErrBufferFull)
	case <-ctx.Done():
		r.metrics.RecordEvidence(OutcomeDropped)
		return evidence.NewRecorderError(record.EvaluationID, ctx.Err())
	}
}

// Close stops accepting records, drains the buffer and waits for all
// pending writes. Safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.logger.Info("shutting down evidence recorder")
	r.wg.Wait()
	r.logger.Info("evidence recorder shut down complete")
	return nil
}

// worker drains the channel and writes records until Close.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Info("draining evidence channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("evidence channel drained")
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *evidence.DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"error", err,
		)
		r.metrics.RecordEvidence(OutcomeFailed)
		return
	}
	r.metrics.RecordEvidence(OutcomeStored)

	duration := time.Since(start)
	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"evaluation_id", record.EvaluationID,
		"disposition", record.Disposition,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

// BuildRecord converts a decision into a hashed evidence record.
// Times are normalized to UTC.
func (r *Recorder) BuildRecord(decision *engine.Decision) (*evidence.DecisionRecord, error) {
	snap := decision.Job
	maxLen := r.config.MaxFieldLength

	record := &evidence.DecisionRecord{
		ID:               uuid.New().String(),
		EvaluationID:     decision.EvaluationID,
		EvaluatedAt:      utc(decision.EvaluatedAt),
		RecordedTime:     time.Now().UTC(),
		JobID:            snap.JobID,
		Username:         snap.Username,
		PrinterName:      snap.PrinterName,
		DocumentName:     TruncateString(snap.DocumentName, maxLen),
		SubmittedAt:      utc(snap.SubmittedAt),
		AnalysisComplete: snap.AnalysisComplete,
		IsColor:          snap.IsColor,
		TotalPages:       snap.TotalPages,
		Cost:             snap.Cost,
		Disposition:      string(decision.Disposition),
		FinalState:       string(decision.State),
		PromptResponse:   string(decision.PromptResponse),
		RedirectTarget:   decision.RedirectTarget,
		EvaluationTime:   decision.EvaluationTime,
	}

	if r.config.HashUsernames {
		record.Username = HashUsername(snap.Username)
	}

	record.Rules = make([]evidence.RuleOutcome, 0, len(decision.Rules))
	for _, rr := range decision.Rules {
		outcome := evidence.RuleOutcome{
			Rule:           rr.Rule,
			Matched:        rr.Matched,
			Canceled:       rr.Canceled,
			Error:          TruncateString(rr.Error, maxLen),
			EvaluationTime: rr.EvaluationTime,
		}
		for _, a := range rr.Actions {
			outcome.Actions = append(outcome.Actions, string(a.Action))
		}
		record.Rules = append(record.Rules, outcome)
	}

	for _, a := range decision.Failures() {
		record.FailedActions = append(record.FailedActions, evidence.ActionFailure{
			Action: string(a.Action),
			Error:  TruncateString(a.ErrorMessage, maxLen),
		})
	}

	hash, err := HashRecord(record)
	if err != nil {
		return nil, err
	}
	record.RecordHash = hash

	return record, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

type noopMetrics struct{}

func (noopMetrics) RecordEvidence(string) {}
