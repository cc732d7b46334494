package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/evidence/storage"
	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[string]int)}
}

func (m *countingMetrics) RecordEvidence(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *countingMetrics) get(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

// evaluate runs a real evaluation so recorded decisions have the engine's shape.
func evaluate(t *testing.T, snap *job.Snapshot, gw gateway.ActionGateway, opts ...engine.Option) *engine.Decision {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(testLogger())}, opts...)
	ev, err := engine.New(engine.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("engine.New() failed: %v", err)
	}
	d, err := ev.Evaluate(context.Background(), snap, gw)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	return d
}

func largeJob() *job.Snapshot {
	return &job.Snapshot{
		JobID:            "job-42",
		Username:         "jdoe",
		PrinterName:      "Front Office",
		DocumentName:     "quarterly-report.pdf",
		SubmittedAt:      time.Date(2026, 5, 1, 8, 30, 0, 0, time.FixedZone("EST", -5*3600)),
		AnalysisComplete: true,
		TotalPages:       25,
		Cost:             1.25,
	}
}

func TestRecorder_EndToEndWithEvaluator(t *testing.T) {
	store := storage.NewMemoryStorage()
	metrics := newCountingMetrics()
	rec := New(store, DefaultConfig(), WithLogger(testLogger()), WithMetrics(metrics))

	d := evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm), engine.WithDecisionRecorder(rec))

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	records, err := store.Query(context.Background(), &evidence.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]

	if r.EvaluationID != d.EvaluationID {
		t.Errorf("EvaluationID = %q, want %q", r.EvaluationID, d.EvaluationID)
	}
	if r.Disposition != "proceed" {
		t.Errorf("Disposition = %q, want proceed", r.Disposition)
	}
	if r.RedirectTarget != "Perrysburg Showroom M3150" {
		t.Errorf("RedirectTarget = %q", r.RedirectTarget)
	}
	if r.Username != "jdoe" || r.JobID != "job-42" || r.TotalPages != 25 {
		t.Errorf("job identity not copied: %+v", r)
	}
	if r.SubmittedAt.Location() != time.UTC {
		t.Errorf("SubmittedAt not normalized to UTC: %v", r.SubmittedAt)
	}
	if !r.SubmittedAt.Equal(largeJob().SubmittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", r.SubmittedAt, largeJob().SubmittedAt)
	}

	var volume *evidence.RuleOutcome
	for i := range r.Rules {
		if r.Rules[i].Rule == engine.RuleVolumeRedirect {
			volume = &r.Rules[i]
		}
	}
	if volume == nil || !volume.Matched {
		t.Fatalf("volume rule outcome missing or unmatched: %+v", r.Rules)
	}
	want := []string{"bypassReleaseQueue", "redirect", "sendMessage", "logInfo"}
	if strings.Join(volume.Actions, ",") != strings.Join(want, ",") {
		t.Errorf("volume actions = %v, want %v", volume.Actions, want)
	}

	if !VerifyRecord(r) {
		t.Error("VerifyRecord() = false for stored record")
	}
	if metrics.get(OutcomeStored) != 1 {
		t.Errorf("stored outcome = %d, want 1", metrics.get(OutcomeStored))
	}
}

func TestRecorder_CanceledColorJob(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, DefaultConfig(), WithLogger(testLogger()))

	snap := largeJob()
	snap.IsColor = true
	d := evaluate(t, snap, gateway.NewRecorder(gateway.Timeout))

	if err := rec.Record(context.Background(), d); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	rec.Close()

	records, _ := store.Query(context.Background(), &evidence.Query{Disposition: "canceled"})
	if len(records) != 1 {
		t.Fatalf("expected 1 canceled record, got %d", len(records))
	}
	r := records[0]
	if r.PromptResponse != "TIMEOUT" {
		t.Errorf("PromptResponse = %q, want TIMEOUT", r.PromptResponse)
	}
	if r.RedirectTarget != "" {
		t.Errorf("canceled job has redirect target %q", r.RedirectTarget)
	}
	if r.FinalState != string(engine.StateCanceled) {
		t.Errorf("FinalState = %q, want %q", r.FinalState, engine.StateCanceled)
	}
}

func TestRecorder_FailedActions(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, DefaultConfig(), WithLogger(testLogger()))

	gw := gateway.NewRecorder(gateway.Confirm).FailOn(gateway.OpSendMessage, errors.New("client offline"))
	rec.RecordDecision(context.Background(), evaluate(t, largeJob(), gw))
	rec.Close()

	records, _ := store.Query(context.Background(), &evidence.Query{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	failed := records[0].FailedActions
	if len(failed) != 1 || failed[0].Action != "sendMessage" || failed[0].Error != "client offline" {
		t.Errorf("FailedActions = %+v", failed)
	}
}

func TestRecorder_HashUsernames(t *testing.T) {
	store := storage.NewMemoryStorage()
	cfg := DefaultConfig()
	cfg.HashUsernames = true
	rec := New(store, cfg, WithLogger(testLogger()))

	rec.RecordDecision(context.Background(), evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm)))
	rec.Close()

	records, _ := store.Query(context.Background(), &evidence.Query{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Username != HashUsername("jdoe") {
		t.Errorf("Username = %q, want hashed", records[0].Username)
	}
}

func TestRecorder_Disabled(t *testing.T) {
	store := storage.NewMemoryStorage()
	cfg := DefaultConfig()
	cfg.Enabled = false
	rec := New(store, cfg, WithLogger(testLogger()))

	if err := rec.Record(context.Background(), evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm))); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	rec.Close()

	if store.Size() != 0 {
		t.Errorf("disabled recorder stored %d records", store.Size())
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	metrics := newCountingMetrics()
	rec := New(storage.NewMemoryStorage(), DefaultConfig(), WithLogger(testLogger()), WithMetrics(metrics))
	rec.Close()

	err := rec.Record(context.Background(), evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm)))
	if !errors.Is(err, evidence.ErrRecorderClosed) {
		t.Errorf("Record() after Close = %v, want ErrRecorderClosed", err)
	}
	var re *evidence.RecorderError
	if !errors.As(err, &re) || re.EvaluationID == "" {
		t.Errorf("expected RecorderError with evaluation id, got %v", err)
	}
	if metrics.get(OutcomeDropped) != 1 {
		t.Errorf("dropped outcome = %d, want 1", metrics.get(OutcomeDropped))
	}

	// Second Close is a no-op.
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

// blockingStorage blocks every Store until released.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
	entered chan struct{}
}

func (s *blockingStorage) Store(ctx context.Context, r *evidence.DecisionRecord) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.MemoryStorage.Store(ctx, r)
}

func TestRecorder_BufferFullDropsRecord(t *testing.T) {
	store := &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		release:       make(chan struct{}),
		entered:       make(chan struct{}, 1),
	}
	metrics := newCountingMetrics()
	cfg := DefaultConfig()
	cfg.AsyncBuffer = 1
	cfg.WriteTimeout = 50 * time.Millisecond
	rec := New(store, cfg, WithLogger(testLogger()), WithMetrics(metrics))

	d := evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm))
	ctx := context.Background()

	// First record occupies the worker, second fills the buffer.
	if err := rec.Record(ctx, d); err != nil {
		t.Fatalf("first Record() failed: %v", err)
	}
	<-store.entered
	if err := rec.Record(ctx, d); err != nil {
		t.Fatalf("second Record() failed: %v", err)
	}

	start := time.Now()
	err := rec.Record(ctx, d)
	if !errors.Is(err, evidence.ErrBufferFull) {
		t.Errorf("third Record() = %v, want ErrBufferFull", err)
	}
	// The evaluation path waits for buffer space at most WriteTimeout.
	if elapsed := time.Since(start); elapsed > cfg.WriteTimeout+time.Second {
		t.Errorf("third Record() blocked for %v", elapsed)
	}

	close(store.release)
	rec.Close()

	if store.Size() != 2 {
		t.Errorf("stored %d records, want 2", store.Size())
	}
	if metrics.get(OutcomeDropped) != 1 || metrics.get(OutcomeStored) != 2 {
		t.Errorf("outcomes = %v", metrics.outcomes)
	}
}

func TestRecorder_StorageFailureCounted(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.Close()

	metrics := newCountingMetrics()
	rec := New(store, DefaultConfig(), WithLogger(testLogger()), WithMetrics(metrics))
	rec.RecordDecision(context.Background(), evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm)))
	rec.Close()

	if metrics.get(OutcomeFailed) != 1 {
		t.Errorf("failed outcome = %d, want 1", metrics.get(OutcomeFailed))
	}
}

func TestRecorder_DrainsOnClose(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := New(store, DefaultConfig(), WithLogger(testLogger()))

	d := evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm))
	for i := 0; i < 50; i++ {
		if err := rec.Record(context.Background(), d); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}
	rec.Close()

	if store.Size() != 50 {
		t.Errorf("stored %d records after Close, want 50", store.Size())
	}
}

func TestBuildRecord_Truncation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFieldLength = 10
	rec := New(storage.NewMemoryStorage(), cfg, WithLogger(testLogger()))
	defer rec.Close()

	d := evaluate(t, largeJob(), gateway.NewRecorder(gateway.Confirm))
	r, err := rec.BuildRecord(d)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if r.DocumentName != "quarter..." {
		t.Errorf("DocumentName = %q, want %q", r.DocumentName, "quarter...")
	}
	if r.ID == "" || r.ID == d.EvaluationID {
		t.Errorf("record ID should be a fresh uuid, got %q", r.ID)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Evidence.Enabled = true
	cfg.Evidence.Recorder.AsyncBuffer = 7
	cfg.Evidence.Recorder.WriteTimeout = time.Second
	cfg.Evidence.Recorder.MaxFieldLength = 0
	cfg.Evidence.Recorder.HashUsernames = true

	got := FromConfig(&cfg.Evidence)
	if !got.Enabled || got.AsyncBuffer != 7 || got.WriteTimeout != time.Second || !got.HashUsernames {
		t.Errorf("FromConfig() = %+v", got)
	}
	if got.MaxFieldLength != DefaultConfig().MaxFieldLength {
		t.Errorf("MaxFieldLength = %d, want default", got.MaxFieldLength)
	}
}
